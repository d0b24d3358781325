package tts

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// minimalWav builds a RIFF/WAVE stream whose duration is dataSize/byteRate
// seconds.
func minimalWav(byteRate uint32, dataSize int) []byte {
	var buf []byte
	u32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	u16 := func(v uint16) {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}
	buf = append(buf, "RIFF"...)
	u32(uint32(36 + dataSize))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	u32(16)
	u16(1)
	u16(1)
	u32(byteRate / 2)
	u32(byteRate)
	u16(2)
	u16(16)
	buf = append(buf, "data"...)
	u32(uint32(dataSize))
	return append(buf, make([]byte, dataSize)...)
}

func TestSynthesize(t *testing.T) {
	wav := minimalWav(32000, 64000) // 2 seconds

	client := NewClient(Options{
		BaseURL: "http://tts.test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v1/audio/speech" {
				t.Errorf("path = %q", r.URL.Path)
			}
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			if payload["model"] != "kokoro" || payload["voice"] != "af_bella" || payload["response_format"] != "wav" {
				t.Errorf("payload = %v", payload)
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(string(wav))),
				Header:     http.Header{},
			}, nil
		})},
	})

	audio, duration, err := client.Synthesize(context.Background(), "hello there", "af_bella")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(audio) != len(wav) {
		t.Fatalf("audio size = %d, want %d", len(audio), len(wav))
	}
	if math.Abs(duration-2.0) > 1e-9 {
		t.Fatalf("duration = %v, want 2.0", duration)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client := NewClient(Options{})
	if _, _, err := client.Synthesize(context.Background(), "   ", "af_heart"); err == nil {
		t.Fatal("Synthesize() with blank text should fail")
	}
}

func TestSynthesizeSurfacesServerError(t *testing.T) {
	client := NewClient(Options{
		BaseURL: "http://tts.test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(strings.NewReader("model loading")),
				Header:     http.Header{},
			}, nil
		})},
	})
	_, _, err := client.Synthesize(context.Background(), "hi", "af_heart")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("Synthesize() error = %v, want status 503", err)
	}
}

func TestSynthesizeRejectsNonWavResponse(t *testing.T) {
	client := NewClient(Options{
		BaseURL: "http://tts.test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("not audio")),
				Header:     http.Header{},
			}, nil
		})},
	})
	if _, _, err := client.Synthesize(context.Background(), "hi", "af_heart"); err == nil {
		t.Fatal("Synthesize() should fail on undecodable audio")
	}
}
