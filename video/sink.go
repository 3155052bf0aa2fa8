package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"sync"
)

// Output container contract. Callers and clients rely on these values.
const (
	Codec     = "mpeg4"
	CodecTag  = "mp4v"
	Container = "mp4"
)

// SinkConfig fixes the geometry and timing of an output video.
type SinkConfig struct {
	Width    int
	Height   int
	FPS      float64
	Metadata map[string]string // container tags, e.g. comment
}

// Sink re-encodes raw frames into an MP4 file through an ffmpeg child process.
type Sink struct {
	path   string
	cfg    SinkConfig
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames int

	closeOnce sync.Once
	closeErr  error
}

// CreateSink opens the encoder for path. The destination is created up front
// so an unwritable location fails here rather than after decoding.
func CreateSink(ctx context.Context, path string, cfg SinkConfig) (*Sink, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &WriteError{Op: "create", Path: path, Err: fmt.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)}
	}
	if cfg.FPS <= 0 {
		return nil, &WriteError{Op: "create", Path: path, Err: fmt.Errorf("invalid frame rate %v", cfg.FPS)}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}
	f.Close()

	args := []string{
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", strconv.FormatFloat(cfg.FPS, 'f', -1, 64),
		"-i", "pipe:0",
		"-c:v", Codec,
		"-tag:v", CodecTag,
		"-q:v", "2",
		"-pix_fmt", "yuv420p",
	}
	keys := make([]string, 0, len(cfg.Metadata))
	for k := range cfg.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-metadata", k+"="+cfg.Metadata[k])
	}
	args = append(args, "-f", Container, path)

	s := &Sink{path: path, cfg: cfg}
	s.cmd = exec.CommandContext(ctx, currentTools().FFmpeg, args...)
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		os.Remove(path)
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}
	s.stdin = stdin
	if err := s.cmd.Start(); err != nil {
		os.Remove(path)
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}
	return s, nil
}

// Write appends one frame. Its bounds must match the configured geometry.
func (s *Sink) Write(frame *image.RGBA) error {
	b := frame.Bounds()
	if b.Dx() != s.cfg.Width || b.Dy() != s.cfg.Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameGeometry, b.Dx(), b.Dy(), s.cfg.Width, s.cfg.Height)
	}

	rowLen := s.cfg.Width * 4
	if frame.Stride == rowLen && b.Min == (image.Point{}) {
		if _, err := s.stdin.Write(frame.Pix[:rowLen*s.cfg.Height]); err != nil {
			return s.writeFailed(err)
		}
	} else {
		// sub-image: write row by row
		for y := 0; y < s.cfg.Height; y++ {
			off := frame.PixOffset(b.Min.X, b.Min.Y+y)
			if _, err := s.stdin.Write(frame.Pix[off : off+rowLen]); err != nil {
				return s.writeFailed(err)
			}
		}
	}
	s.frames++
	return nil
}

// writeFailed reaps the encoder after a failed write so the error carries
// whatever ffmpeg reported on stderr. A later Abort still removes the file.
func (s *Sink) writeFailed(err error) error {
	s.closeOnce.Do(func() {
		s.stdin.Close()
		_ = s.cmd.Wait()
		s.closeErr = &WriteError{Op: "encode", Path: s.path, Err: toolError(err, &s.stderr)}
	})
	return s.closeErr
}

// Frames returns the number of frames written so far.
func (s *Sink) Frames() int { return s.frames }

// Close flushes the encoder and finalizes the container. Only the first
// call does any work.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		if err := s.stdin.Close(); err != nil {
			s.closeErr = &WriteError{Op: "finalize", Path: s.path, Err: err}
		}
		if err := s.cmd.Wait(); err != nil && s.closeErr == nil {
			s.closeErr = &WriteError{Op: "finalize", Path: s.path, Err: toolError(err, &s.stderr)}
		}
	})
	return s.closeErr
}

// Abort stops the encoder and deletes whatever it wrote.
func (s *Sink) Abort() {
	s.closeOnce.Do(func() {
		s.stdin.Close()
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		s.closeErr = &WriteError{Op: "finalize", Path: s.path, Err: fmt.Errorf("aborted")}
	})
	os.Remove(s.path)
}
