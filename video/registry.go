package video

import (
	"fmt"
	"os/exec"
	"sync"

	"vidstego/config"
	"vidstego/logger"
)

// Tools holds the resolved ffmpeg and ffprobe binaries.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

var (
	toolsMu sync.RWMutex
	tools   = Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}
)

// Register resolves the configured binaries on PATH and logs the result.
// It returns an error when either one is missing; the server still starts
// so health checks can report the problem.
func Register() error {
	ff, ffErr := exec.LookPath(config.GetFFmpegPath())
	fp, fpErr := exec.LookPath(config.GetFFprobePath())

	toolsMu.Lock()
	defer toolsMu.Unlock()
	if ffErr == nil {
		tools.FFmpeg = ff
		logger.Debugf("video tool [ffmpeg] registered (command: %s)", ff)
	} else {
		logger.Warnf("video tool [ffmpeg] not found: %v", ffErr)
	}
	if fpErr == nil {
		tools.FFprobe = fp
		logger.Debugf("video tool [ffprobe] registered (command: %s)", fp)
	} else {
		logger.Warnf("video tool [ffprobe] not found: %v", fpErr)
	}

	switch {
	case ffErr != nil:
		return fmt.Errorf("ffmpeg unavailable: %w", ffErr)
	case fpErr != nil:
		return fmt.Errorf("ffprobe unavailable: %w", fpErr)
	}
	return nil
}

// Available reports whether both binaries can currently be found.
func Available() bool {
	t := currentTools()
	_, ffErr := exec.LookPath(t.FFmpeg)
	_, fpErr := exec.LookPath(t.FFprobe)
	return ffErr == nil && fpErr == nil
}

func currentTools() Tools {
	toolsMu.RLock()
	defer toolsMu.RUnlock()
	return tools
}
