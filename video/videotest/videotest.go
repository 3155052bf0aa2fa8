// Package videotest builds small sample videos for tests that need ffmpeg.
package videotest

import (
	"context"
	"image"
	"image/color"
	"io"
	"os/exec"
	"testing"

	"vidstego/video"
)

// RequireTools skips the test when ffmpeg or ffprobe is not installed.
func RequireTools(t testing.TB) {
	t.Helper()
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH", tool)
		}
	}
	if err := video.Register(); err != nil {
		t.Skipf("video tools unavailable: %v", err)
	}
}

// WriteSample encodes solid-colored frames of w×h at fps to path.
// Each frame gets a distinct gray level so ordering problems are visible.
func WriteSample(t testing.TB, path string, w, h int, fps float64, frames int) {
	t.Helper()
	sink, err := video.CreateSink(context.Background(), path, video.SinkConfig{Width: w, Height: h, FPS: fps})
	if err != nil {
		t.Fatalf("create sample sink: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < frames; i++ {
		level := uint8(40 + (i*60)%200)
		fill(img, color.RGBA{R: level, G: level, B: level, A: 255})
		if err := sink.Write(img); err != nil {
			sink.Abort()
			t.Fatalf("write sample frame %d: %v", i, err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("finalize sample: %v", err)
	}
}

// CountFrames decodes path fully and returns its frame count and geometry.
func CountFrames(t testing.TB, path string) (frames, width, height int) {
	t.Helper()
	ForEachFrame(t, path, func(int, *image.RGBA) { frames++ })
	info, err := video.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("probe %s: %v", path, err)
	}
	return frames, info.Width, info.Height
}

// ForEachFrame decodes path and calls fn with every frame in order. The
// frame is only valid during the call.
func ForEachFrame(t testing.TB, path string, fn func(index int, frame *image.RGBA)) {
	t.Helper()
	ctx := context.Background()
	info, err := video.Probe(ctx, path)
	if err != nil {
		t.Fatalf("probe %s: %v", path, err)
	}
	src, err := video.OpenSource(ctx, path, info)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer src.Close()
	for i := 0; ; i++ {
		frame, err := src.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		fn(i, frame)
	}
}

// CountPixels counts the pixels of img inside r for which match is true.
func CountPixels(img *image.RGBA, r image.Rectangle, match func(color.RGBA) bool) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if match(img.RGBAAt(x, y)) {
				n++
			}
		}
	}
	return n
}

func fill(img *image.RGBA, c color.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}
