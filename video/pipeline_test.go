package video_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstego/video"
	"vidstego/video/videotest"
)

func identity(f *image.RGBA) *image.RGBA { return f }

func TestRunIdentityPreservesGeometryAndCount(t *testing.T) {
	videotest.RequireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mp4")
	out := filepath.Join(dir, "out.mp4")
	videotest.WriteSample(t, in, 320, 240, 25, 3)

	res, err := video.Run(context.Background(), in, out, identity, video.Options{})
	require.NoError(t, err)
	assert.Equal(t, out, res.OutputPath)
	assert.Equal(t, 3, res.Frames)
	assert.InDelta(t, 25.0, res.FPS, 0.01)

	frames, w, h := videotest.CountFrames(t, out)
	assert.Equal(t, 3, frames)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)

	// input untouched
	_, err = os.Stat(in)
	assert.NoError(t, err)
}

func TestRunAppliesTransformToEveryFrameInOrder(t *testing.T) {
	videotest.RequireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mp4")
	out := filepath.Join(dir, "out.mp4")
	videotest.WriteSample(t, in, 64, 48, 10, 4)

	var seen []uint8
	mark := func(f *image.RGBA) *image.RGBA {
		seen = append(seen, f.RGBAAt(32, 24).R)
		f.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
		return f
	}
	res, err := video.Run(context.Background(), in, out, mark, video.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Frames)
	require.Len(t, seen, 4)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1], "frames out of order at %d", i)
	}
}

func TestRunWritesMetadata(t *testing.T) {
	videotest.RequireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mp4")
	out := filepath.Join(dir, "out.mp4")
	videotest.WriteSample(t, in, 32, 32, 25, 2)

	_, err := video.Run(context.Background(), in, out, identity, video.Options{
		Metadata: map[string]string{"comment": "vidstego:job-1"},
	})
	require.NoError(t, err)

	info, err := video.Probe(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, "vidstego:job-1", info.Tags["comment"])
}

func TestRunRejectsNonVideo(t *testing.T) {
	videotest.RequireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "notes.mp4")
	out := filepath.Join(dir, "out.mp4")
	require.NoError(t, os.WriteFile(in, []byte("just some text, not a video"), 0644))

	_, err := video.Run(context.Background(), in, out, identity, video.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrOpen))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output expected for a failed run")
}

func TestRunUnwritableDestination(t *testing.T) {
	videotest.RequireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mp4")
	videotest.WriteSample(t, in, 32, 32, 25, 2)

	out := filepath.Join(dir, "no-such-dir", "out.mp4")
	_, err := video.Run(context.Background(), in, out, identity, video.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrWrite))
}

func TestRunRejectsResizingTransform(t *testing.T) {
	videotest.RequireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mp4")
	out := filepath.Join(dir, "out.mp4")
	videotest.WriteSample(t, in, 32, 32, 25, 2)

	shrink := func(*image.RGBA) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, 16, 16)) }
	_, err := video.Run(context.Background(), in, out, shrink, video.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrFrameGeometry))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSourceIsNotRestartable(t *testing.T) {
	videotest.RequireTools(t)
	in := filepath.Join(t.TempDir(), "in.mp4")
	videotest.WriteSample(t, in, 16, 16, 25, 2)

	ctx := context.Background()
	info, err := video.Probe(ctx, in)
	require.NoError(t, err)
	src, err := video.OpenSource(ctx, in, info)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := src.Next()
		require.NoError(t, err)
	}
	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}
