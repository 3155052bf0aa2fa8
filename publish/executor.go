// Package publish mirrors processed outputs to the destinations listed in
// the config file. The local processed area stays the source of truth.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vidstego/config"
	"vidstego/logger"
)

// Publish sends one object named name to a single target.
func Publish(ctx context.Context, target config.PublishTarget, name string, reader io.Reader) error {
	opts := target.Options
	if opts == nil {
		opts = map[string]string{}
	}
	switch target.Type {
	case "directServe":
		if err := UploadToDirectServe(ctx, opts, name, reader); err != nil {
			return fmt.Errorf("failed to upload to direct serve: %w", err)
		}
	case "s3":
		if err := UploadToS3WithCreds(ctx, opts, name, reader); err != nil {
			return fmt.Errorf("failed to upload to S3: %w", err)
		}
	case "gcs":
		if err := UploadToGCSWithJSON(ctx, opts, name, reader); err != nil {
			return fmt.Errorf("failed to upload to GCS: %w", err)
		}
	case "sftp":
		if err := UploadToSFTPWithCreds(ctx, opts, name, reader); err != nil {
			return fmt.Errorf("failed to upload to SFTP: %w", err)
		}
	default:
		return fmt.Errorf("unknown backend type: %s", target.Type)
	}
	return nil
}

// File publishes the file at path to every target. All targets are tried;
// the returned error joins every failure.
func File(ctx context.Context, targets []config.PublishTarget, path string) error {
	name := filepath.Base(path)
	var errs []error
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := publishOne(ctx, target, name, path); err != nil {
			logger.Errorf("Failed to publish %s to %s: %v", name, target.Type, err)
			errs = append(errs, err)
			continue
		}
		logger.Debugf("Published %s to %s", name, target.Type)
	}
	return errors.Join(errs...)
}

func publishOne(ctx context.Context, target config.PublishTarget, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Publish(ctx, target, name, f)
}

// objectKey joins an optional prefix option with the object name.
func objectKey(opts map[string]string, name string) string {
	if prefix := opts["prefix"]; prefix != "" {
		return filepath.ToSlash(filepath.Join(prefix, name))
	}
	return name
}
