package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vidstego/logger"
)

// UploadToDirectServe copies content into a local directory served by a
// web server. opts: baseDir (required), folder (optional subdirectory).
func UploadToDirectServe(ctx context.Context, opts map[string]string, name string, reader io.Reader) error {
	baseDir := opts["baseDir"]
	if baseDir == "" {
		return fmt.Errorf("missing required option: baseDir")
	}
	fullDir := filepath.Join(baseDir, opts["folder"])
	fullPath := filepath.Join(fullDir, filepath.Base(name))

	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// write under a temporary name so readers never see a partial file
	tmp, err := os.CreateTemp(fullDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", fullDir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to move file into place %s: %w", fullPath, err)
	}

	logger.Infof("Successfully saved file '%s' to '%s'", name, fullPath)
	return nil
}
