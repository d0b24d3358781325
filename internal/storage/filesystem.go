// Package storage owns the on-disk layout of the service: transient artifacts
// under temp/, finished videos under videos/, and the music catalog under
// music/. Finished videos are the persisted record of completed jobs; the
// queue discovers previously completed jobs by scanning them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists artifacts onto the local filesystem under one data dir.
type FileStore struct {
	basePath string
}

// NewFileStore initializes the data dir layout rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	for _, sub := range []string{"temp", "videos", "music"} {
		if err := os.MkdirAll(filepath.Join(basePath, sub), 0o755); err != nil {
			return nil, fmt.Errorf("storage: ensure %s dir: %w", sub, err)
		}
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// MusicDir returns the directory holding the background music catalog.
func (s *FileStore) MusicDir() string {
	return filepath.Join(s.basePath, "music")
}

// NewTempPath reserves a unique path under temp/ for a transient artifact.
// The name embeds the owning job id so concurrent jobs never collide.
func (s *FileStore) NewTempPath(jobID, ext string) string {
	name := fmt.Sprintf("%s-%s%s", jobID, uuid.NewString(), ext)
	return filepath.Join(s.basePath, "temp", name)
}

// TempKey converts an absolute temp path back into the key it is served
// under. Returns false when path is not inside temp/.
func (s *FileStore) TempKey(path string) (string, bool) {
	rel, err := filepath.Rel(filepath.Join(s.basePath, "temp"), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// ResolveTemp maps a served temp key back to an absolute path, rejecting
// traversal outside temp/.
func (s *FileStore) ResolveTemp(key string) (string, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, "temp", filepath.FromSlash(clean)), nil
}

// WriteTemp persists data as a new transient artifact and returns its path.
func (s *FileStore) WriteTemp(ctx context.Context, jobID, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.NewTempPath(jobID, ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		// A short write can leave a partial file the caller never learns
		// the path of; remove it rather than leak it.
		os.Remove(path)
		return "", fmt.Errorf("storage: write temp file: %w", err)
	}
	return path, nil
}

// OutputPath returns the deterministic location of a job's finished video.
func (s *FileStore) OutputPath(jobID string) string {
	return filepath.Join(s.basePath, "videos", jobID+".mp4")
}

// OutputExists reports whether a finished video exists for jobID.
func (s *FileStore) OutputExists(jobID string) bool {
	info, err := os.Stat(s.OutputPath(jobID))
	return err == nil && !info.IsDir()
}

// ListOutputIDs scans the videos dir and returns the job ids with a finished
// video, in directory order.
func (s *FileStore) ListOutputIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, "videos"))
	if err != nil {
		return nil, fmt.Errorf("storage: list outputs: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".mp4") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".mp4"))
	}
	return ids, nil
}

// DeleteOutput removes the finished video for jobID. Missing files are
// tolerated.
func (s *FileStore) DeleteOutput(jobID string) error {
	err := os.Remove(s.OutputPath(jobID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete output: %w", err)
	}
	return nil
}

// sanitizeKey normalizes a served key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
