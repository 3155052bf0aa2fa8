package video

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	assert.Equal(t, 25.0, parseRate("25/1"))
	assert.InDelta(t, 29.97, parseRate("30000/1001"), 0.001)
	assert.Equal(t, 30.0, parseRate("30"))
	assert.Zero(t, parseRate("0/0"))
	assert.Zero(t, parseRate("25/0"))
	assert.Zero(t, parseRate(""))
	assert.Zero(t, parseRate("N/A"))
}

func TestParseProbe(t *testing.T) {
	raw := `{
		"programs": [],
		"streams": [{"width": 320, "height": 240, "avg_frame_rate": "0/0", "r_frame_rate": "25/1", "nb_frames": "3"}],
		"format": {"tags": {"COMMENT": "vidstego:abc", "encoder": "Lavf60"}}
	}`
	info, err := parseProbe([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 320, info.Width)
	assert.Equal(t, 240, info.Height)
	assert.Equal(t, 25.0, info.FPS)
	assert.Equal(t, 3, info.FrameCount)
	assert.Equal(t, "vidstego:abc", info.Tags["comment"])
}

func TestParseProbeUnknownFrameCount(t *testing.T) {
	raw := `{"streams": [{"width": 64, "height": 48, "avg_frame_rate": "0/0", "r_frame_rate": "0/0", "nb_frames": "N/A"}], "format": {}}`
	info, err := parseProbe([]byte(raw))
	require.NoError(t, err)
	assert.Zero(t, info.FPS)
	assert.Zero(t, info.FrameCount)
	assert.Empty(t, info.Tags)
}

func TestParseProbeRejectsMissingStream(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams": [], "format": {}}`))
	assert.Error(t, err)

	_, err = parseProbe([]byte(`{"streams": [{"width": 0, "height": 0}]}`))
	assert.Error(t, err)

	_, err = parseProbe([]byte(`not json`))
	assert.Error(t, err)
}

func TestProbeMissingFile(t *testing.T) {
	_, err := Probe(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOpen))

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "probe", openErr.Op)
}

func TestWriteErrorMatchesSentinel(t *testing.T) {
	err := &WriteError{Op: "create", Path: "/x.mp4", Err: errors.New("read-only file system")}
	assert.True(t, errors.Is(err, ErrWrite))
	assert.False(t, errors.Is(err, ErrOpen))
	assert.Contains(t, err.Error(), "read-only file system")
}
