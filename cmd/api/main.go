package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/justintanner/short-video-maker/internal/compose"
	"github.com/justintanner/short-video-maker/internal/http/handlers"
	"github.com/justintanner/short-video-maker/internal/http/httpapi"
	"github.com/justintanner/short-video-maker/internal/infra"
	"github.com/justintanner/short-video-maker/internal/media"
	"github.com/justintanner/short-video-maker/internal/metrics"
	"github.com/justintanner/short-video-maker/internal/music"
	"github.com/justintanner/short-video-maker/internal/pipeline"
	"github.com/justintanner/short-video-maker/internal/providers/kie"
	"github.com/justintanner/short-video-maker/internal/providers/pexels"
	"github.com/justintanner/short-video-maker/internal/providers/tts"
	"github.com/justintanner/short-video-maker/internal/providers/whisper"
	"github.com/justintanner/short-video-maker/internal/queue"
	"github.com/justintanner/short-video-maker/internal/storage"
	"github.com/justintanner/short-video-maker/internal/tempfiles"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare data directory")
	}
	library, err := music.NewLibrary(store.MusicDir(), time.Now().UnixNano(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to index music catalog")
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)
	tracker := tempfiles.NewTracker(logger)

	videoGen, err := kie.NewClient(kie.Options{
		APIKey:          cfg.KieAPIKey,
		BaseURL:         cfg.KieBaseURL,
		Model:           cfg.KieModel,
		Logger:          &logger,
		Metrics:         recorder,
		BackoffBase:     cfg.KieBackoffBase,
		BackoffCap:      cfg.KieBackoffCap,
		PollInterval:    cfg.KiePollInterval,
		PollMaxAttempts: cfg.KiePollMaxAttempts,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure video provider")
	}
	stock, err := pexels.NewClient(pexels.Options{
		APIKey: cfg.PexelsAPIKey,
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure stock footage provider")
	}
	synth := tts.NewClient(tts.Options{BaseURL: cfg.TTSBaseURL, Logger: &logger})
	scribe := whisper.NewClient(whisper.Options{BaseURL: cfg.WhisperBaseURL, Logger: &logger})
	ffmpeg := media.NewFFmpeg(cfg.FFmpegPath, logger)
	compositor := media.NewExecCompositor(cfg.CompositorCmd, logger)

	scenes := pipeline.NewSceneProcessor(pipeline.ProcessorOptions{
		Synthesizer:   synth,
		Transcriber:   scribe,
		Encoder:       ffmpeg,
		VideoGen:      videoGen,
		Stock:         stock,
		Store:         store,
		Tracker:       tracker,
		Metrics:       recorder,
		Logger:        logger,
		PublicBaseURL: cfg.PublicBaseURL,
		DefaultVoice:  cfg.DefaultVoice,
		CreateRetries: cfg.KieCreateRetries,
	})
	handoff := compose.NewHandoff(library, compositor, store, tracker, logger)
	runner := pipeline.NewRunner(scenes, handoff, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := queue.New(ctx, runner, tracker, store, recorder, logger)

	app := handlers.NewApp(jobs, store, library, logger)
	router := httpapi.NewRouter(app, cfg, registry)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	cancel()
	jobs.Wait()
	logger.Info().Msg("server stopped")
}
