package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"vidstego/logger"
)

// Transform maps one decoded frame to the frame that gets encoded. It may
// modify and return its argument but must keep the frame's bounds.
type Transform func(frame *image.RGBA) *image.RGBA

// Options tune a pipeline run.
type Options struct {
	FallbackFPS float64           // used when the source reports no frame rate; DefaultFPS if zero
	Metadata    map[string]string // written into the output container
}

// Result summarizes a completed run.
type Result struct {
	OutputPath string
	Source     StreamInfo
	FPS        float64
	Frames     int
}

// Run decodes inputPath, applies transform to every frame in order and
// encodes the result to outputPath with the same geometry. It is
// synchronous and single-threaded. On failure no output file is left behind.
func Run(ctx context.Context, inputPath, outputPath string, transform Transform, opts Options) (Result, error) {
	info, err := Probe(ctx, inputPath)
	if err != nil {
		return Result{}, err
	}

	fps := outputFPS(info, opts.FallbackFPS)
	if info.FPS <= 0 {
		logger.Debugf("source %s reports no frame rate, using %v", inputPath, fps)
	}

	src, err := OpenSource(ctx, inputPath, info)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	geom := src.Info()
	sink, err := CreateSink(ctx, outputPath, SinkConfig{
		Width:    geom.Width,
		Height:   geom.Height,
		FPS:      fps,
		Metadata: opts.Metadata,
	})
	if err != nil {
		return Result{}, err
	}

	if err := pump(src, sink, transform); err != nil {
		sink.Abort()
		return Result{}, err
	}
	if sink.Frames() == 0 {
		sink.Abort()
		return Result{}, &OpenError{Op: "decode", Path: inputPath, Err: ErrNoFrames}
	}
	if err := sink.Close(); err != nil {
		os.Remove(outputPath)
		return Result{}, err
	}

	logger.Debugf("pipeline %s -> %s: %d frames %dx%d @ %v fps",
		inputPath, outputPath, sink.Frames(), info.Width, info.Height, fps)

	return Result{
		OutputPath: outputPath,
		Source:     info,
		FPS:        fps,
		Frames:     sink.Frames(),
	}, nil
}

// DefaultFPS is the output rate when neither the source nor the caller
// supplies one.
const DefaultFPS = 25.0

// outputFPS picks the output frame rate: the source's own rate, else
// fallback, else DefaultFPS.
func outputFPS(info StreamInfo, fallback float64) float64 {
	if info.FPS > 0 {
		return info.FPS
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultFPS
}

// pump moves frames from src to sink until the source is exhausted.
func pump(src *Source, sink *Sink, transform Transform) error {
	for {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		out := transform(frame)
		if out == nil {
			return fmt.Errorf("transform returned no frame at index %d", sink.Frames())
		}
		if err := sink.Write(out); err != nil {
			return err
		}
	}
}
