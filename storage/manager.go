// Package storage owns the uploads and processed areas: where a job's
// transient input lives, where its output goes, and when each is removed.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidstego/logger"
	"vidstego/models"
)

// DefaultExtension is used for uploads whose filename carries none.
const DefaultExtension = ".mp4"

// ErrInvalidName is returned for processed filenames that are empty or
// would resolve outside the processed area.
var ErrInvalidName = errors.New("invalid output name")

// Manager allocates job paths under two directories.
type Manager struct {
	uploadDir    string
	processedDir string
}

// NewManager creates both directories if needed.
func NewManager(uploadDir, processedDir string) (*Manager, error) {
	for _, dir := range []string{uploadDir, processedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return &Manager{uploadDir: uploadDir, processedDir: processedDir}, nil
}

// UploadDir returns the transient uploads directory.
func (m *Manager) UploadDir() string { return m.uploadDir }

// ProcessedDir returns the processed outputs directory.
func (m *Manager) ProcessedDir() string { return m.processedDir }

// Stage writes an upload to a fresh job-scoped path and derives the output
// path for kind. The returned job owns both paths.
func (m *Manager) Stage(kind models.JobKind, filename string, upload io.Reader) (models.Job, error) {
	id := uuid.New().String()

	ext := filepath.Ext(filepath.Base(filename))
	if ext == "" || ext == "." {
		ext = DefaultExtension
	}

	job := models.Job{
		ID:           id,
		Kind:         kind,
		InputPath:    filepath.Join(m.uploadDir, id+ext),
		OriginalName: filename,
		CreatedAt:    time.Now(),
	}
	job.OutputPath = filepath.Join(m.processedDir, job.OutputName())

	f, err := os.OpenFile(job.InputPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return models.Job{}, fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(f, upload); err != nil {
		f.Close()
		os.Remove(job.InputPath)
		return models.Job{}, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(job.InputPath)
		return models.Job{}, fmt.Errorf("failed to store upload: %w", err)
	}

	logger.Debugf("Staged %s job %s: %s -> %s", kind, id, filename, job.InputPath)
	return job, nil
}

// Finalize removes the job's transient input. A file that is already gone
// is not an error.
func (m *Manager) Finalize(job models.Job) error {
	if err := os.Remove(job.InputPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload %s: %w", job.InputPath, err)
	}
	return nil
}

// Discard removes a failed job's output so nothing partial is left behind.
func (m *Manager) Discard(job models.Job) error {
	if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove output %s: %w", job.OutputPath, err)
	}
	return nil
}

// OutputPath resolves a processed filename handed out to a client.
func (m *Manager) OutputPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(m.processedDir, name), nil
}

// Remove deletes a processed output by name.
func (m *Manager) Remove(name string) error {
	path, err := m.OutputPath(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Sweep deletes processed outputs last modified more than maxAge ago and
// returns how many were removed. Individual failures are logged and skipped.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.processedDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read processed directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.processedDir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Errorf("Failed to remove expired output %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
