package video

import (
	"errors"
	"fmt"
)

var (
	// ErrOpen matches any failure to open or read a source video.
	ErrOpen = errors.New("cannot open video")

	// ErrWrite matches any failure to create or finish an output video.
	ErrWrite = errors.New("cannot write video")

	// ErrNoFrames indicates the source decoded to zero frames.
	ErrNoFrames = errors.New("no frames decoded")

	// ErrFrameGeometry indicates a transform returned a frame of the wrong size.
	ErrFrameGeometry = errors.New("frame geometry changed")
)

// OpenError reports a source video that could not be opened or decoded.
type OpenError struct {
	Op   string // probe, decode
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, ErrOpen, e.Err)
}

func (e *OpenError) Unwrap() []error { return []error{ErrOpen, e.Err} }

// WriteError reports an output video that could not be created or finalized.
type WriteError struct {
	Op   string // create, encode, finalize
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, ErrWrite, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }
