package video

import (
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFPS(t *testing.T) {
	assert.Equal(t, 30.0, outputFPS(StreamInfo{FPS: 30}, 12))
	assert.Equal(t, 12.0, outputFPS(StreamInfo{}, 12))
	assert.Equal(t, 25.0, outputFPS(StreamInfo{}, 0))
	assert.Equal(t, DefaultFPS, outputFPS(StreamInfo{FPS: -1}, -5))
}

// startFakeEncoder runs script in place of ffmpeg, wired like CreateSink does.
func startFakeEncoder(t *testing.T, script string, cfg SinkConfig) *Sink {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found in PATH")
	}
	path := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s := &Sink{path: path, cfg: cfg}
	s.cmd = exec.Command(sh, "-c", script)
	s.cmd.Stderr = &s.stderr
	stdin, err := s.cmd.StdinPipe()
	require.NoError(t, err)
	s.stdin = stdin
	require.NoError(t, s.cmd.Start())
	return s
}

func TestWriteReportsEncoderStderr(t *testing.T) {
	cfg := SinkConfig{Width: 320, Height: 240, FPS: 25}
	s := startFakeEncoder(t, "echo 'Unknown encoder mpeg4' >&2; exit 1", cfg)

	frame := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	var err error
	for i := 0; i < 20 && err == nil; i++ {
		err = s.Write(frame)
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorContains(t, err, "Unknown encoder mpeg4")

	// the failure sticks and Abort still cleans up
	assert.ErrorContains(t, s.Close(), "Unknown encoder mpeg4")
	s.Abort()
	_, statErr := os.Stat(s.path)
	assert.True(t, os.IsNotExist(statErr))
}
