package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
)

// Source yields the decoded frames of one video in arrival order. Frames
// come from an ffmpeg child process writing raw RGBA to a pipe, so the
// sequence is lazy and cannot be restarted once exhausted.
type Source struct {
	path   string
	info   StreamInfo
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	frame  *image.RGBA
	done   bool // Next returns io.EOF from now on
	eof    bool // decoder output fully drained

	closeOnce sync.Once
	closeErr  error
}

// OpenSource starts decoding path. info must come from Probe on the same file.
func OpenSource(ctx context.Context, path string, info StreamInfo) (*Source, error) {
	args := []string{
		"-v", "error",
		"-noautorotate",
		"-i", path,
		"-map", "0:v:0",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	}
	s := &Source{
		path:  path,
		info:  info,
		frame: image.NewRGBA(image.Rect(0, 0, info.Width, info.Height)),
	}
	s.cmd = exec.CommandContext(ctx, currentTools().FFmpeg, args...)
	s.cmd.Stderr = &s.stderr

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return nil, &OpenError{Op: "decode", Path: path, Err: err}
	}
	s.stdout = stdout
	if err := s.cmd.Start(); err != nil {
		return nil, &OpenError{Op: "decode", Path: path, Err: err}
	}
	return s, nil
}

// Info returns the probed stream attributes.
func (s *Source) Info() StreamInfo { return s.info }

// Next returns the next frame, or io.EOF once the source is exhausted. The
// returned image is reused by the following call; callers must not keep it.
func (s *Source) Next() (*image.RGBA, error) {
	if s.done {
		return nil, io.EOF
	}
	_, err := io.ReadFull(s.stdout, s.frame.Pix)
	switch {
	case err == nil:
		return s.frame, nil
	case errors.Is(err, io.EOF):
		s.done = true
		s.eof = true
		if werr := s.Close(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		s.eof = true
		return nil, &OpenError{Op: "decode", Path: s.path, Err: fmt.Errorf("truncated frame: %w", err)}
	default:
		s.done = true
		return nil, &OpenError{Op: "decode", Path: s.path, Err: err}
	}
}

// Close stops the decoder and releases the pipe. Safe to call more than
// once; only the first call does any work.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		if !s.eof {
			// stopped early: nobody will drain the pipe
			_ = s.cmd.Process.Kill()
			_ = s.cmd.Wait()
			return
		}
		if err := s.cmd.Wait(); err != nil {
			s.closeErr = &OpenError{Op: "decode", Path: s.path, Err: toolError(err, &s.stderr)}
		}
	})
	return s.closeErr
}
