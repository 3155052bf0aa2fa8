package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultFallbackFPS is used when a source video reports no usable frame rate.
const DefaultFallbackFPS = 25.0

// GetDataDir returns the directory holding the pebble databases.
// Priority: VIDSTEGO_DATA_DIR environment variable > config file > "./data"
func GetDataDir() string {
	return pick("VIDSTEGO_DATA_DIR", current().DataDir, "./data")
}

// GetStorageDir returns the root of the uploads and processed areas.
// Priority: VIDSTEGO_STORAGE_DIR environment variable > config file > "./storage"
func GetStorageDir() string {
	return pick("VIDSTEGO_STORAGE_DIR", current().StorageDir, "./storage")
}

// GetUploadDir returns the directory for transient uploads.
// Path: {STORAGE_DIR}/uploads
func GetUploadDir() string {
	return filepath.Join(GetStorageDir(), "uploads")
}

// GetProcessedDir returns the directory for processed outputs.
// Path: {STORAGE_DIR}/processed
func GetProcessedDir() string {
	return filepath.Join(GetStorageDir(), "processed")
}

// GetPayloadDBPath returns the full path to the hidden payload database.
// Path: {DATA_DIR}/payloads.db
func GetPayloadDBPath() string {
	return filepath.Join(GetDataDir(), "payloads.db")
}

// GetFailuresDBPath returns the full path to the failures database.
// Path: {DATA_DIR}/failures.db
func GetFailuresDBPath() string {
	return filepath.Join(GetDataDir(), "failures.db")
}

// GetSuccessDBPath returns the full path to the success database.
// Path: {DATA_DIR}/success.db
func GetSuccessDBPath() string {
	return filepath.Join(GetDataDir(), "success.db")
}

// GetListenAddr returns the HTTP listen address, ":8000" by default.
func GetListenAddr() string {
	return pick("VIDSTEGO_LISTEN_ADDR", current().ListenAddr, ":8000")
}

// GetWorkers returns the number of pipeline workers.
func GetWorkers() int {
	return pickInt("VIDSTEGO_WORKERS", current().Workers, 2)
}

// GetFallbackFPS returns the output frame rate used when the source reports none.
func GetFallbackFPS() float64 {
	if v := os.Getenv("VIDSTEGO_FALLBACK_FPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	if f := current().FallbackFPS; f > 0 {
		return f
	}
	return DefaultFallbackFPS
}

// GetMaxUploadBytes returns the in-memory limit for multipart parsing.
// Larger parts spill to temporary files.
func GetMaxUploadBytes() int64 {
	return int64(pickInt("VIDSTEGO_MAX_UPLOAD_MB", current().MaxUploadMB, 32)) << 20
}

// GetQueueTimeout bounds how long a request waits for a free worker.
func GetQueueTimeout() time.Duration {
	return pickDuration("VIDSTEGO_QUEUE_TIMEOUT", current().QueueTimeout, 5*time.Minute)
}

// GetRetentionMaxAge returns how long processed outputs are kept.
func GetRetentionMaxAge() time.Duration {
	return pickDuration("VIDSTEGO_RETENTION_MAX_AGE", current().Retention.MaxAge, 7*24*time.Hour)
}

// GetRetentionInterval returns how often the retention sweep runs.
func GetRetentionInterval() time.Duration {
	return pickDuration("VIDSTEGO_RETENTION_INTERVAL", current().Retention.Interval, time.Hour)
}

// GetLogLevel returns the configured minimum log level name.
func GetLogLevel() string {
	return pick("VIDSTEGO_LOG_LEVEL", current().Log.Level, "info")
}

// GetLogFile returns the log file path, empty for console only.
func GetLogFile() string {
	return pick("VIDSTEGO_LOG_FILE", current().Log.File, "")
}

// GetAuthSecret returns the HS256 secret. Empty disables authentication.
// Only settable by server administrators, never by clients.
func GetAuthSecret() string {
	return pick("VIDSTEGO_AUTH_SECRET", current().Auth.Secret, "")
}

// GetAuthIssuer returns the expected token issuer, empty to skip the check.
func GetAuthIssuer() string {
	return pick("VIDSTEGO_AUTH_ISSUER", current().Auth.Issuer, "")
}

// GetFFmpegPath returns the ffmpeg binary name or path.
func GetFFmpegPath() string {
	return pick("VIDSTEGO_FFMPEG", current().FFmpeg, "ffmpeg")
}

// GetFFprobePath returns the ffprobe binary name or path.
func GetFFprobePath() string {
	return pick("VIDSTEGO_FFPROBE", current().FFprobe, "ffprobe")
}

// GetPublishTargets returns the output mirroring targets from the config file.
func GetPublishTargets() []PublishTarget {
	targets := current().Publish
	out := make([]PublishTarget, len(targets))
	copy(out, targets)
	return out
}

func pick(env, fromFile, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if fromFile != "" {
		return fromFile
	}
	return def
}

func pickInt(env string, fromFile, def int) int {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if fromFile > 0 {
		return fromFile
	}
	return def
}

func pickDuration(env string, fromFile Duration, def time.Duration) time.Duration {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	if fromFile > 0 {
		return time.Duration(fromFile)
	}
	return def
}
