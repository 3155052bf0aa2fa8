package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// StreamInfo describes the first video stream of a container.
type StreamInfo struct {
	Width      int
	Height     int
	FPS        float64 // 0 when the container does not report a usable rate
	FrameCount int     // 0 when unknown
	Tags       map[string]string
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
}

// Probe reads the geometry, timing and container tags of path without
// decoding any frames. Every failure is an *OpenError.
func Probe(ctx context.Context, path string) (StreamInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return StreamInfo{}, &OpenError{Op: "probe", Path: path, Err: err}
	}

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames:format_tags",
		"-of", "json",
		path,
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, currentTools().FFprobe, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return StreamInfo{}, &OpenError{Op: "probe", Path: path, Err: toolError(err, &stderr)}
	}

	info, err := parseProbe(stdout.Bytes())
	if err != nil {
		return StreamInfo{}, &OpenError{Op: "probe", Path: path, Err: err}
	}
	return info, nil
}

func parseProbe(data []byte) (StreamInfo, error) {
	var out probeOutput
	if err := sonic.Unmarshal(data, &out); err != nil {
		return StreamInfo{}, fmt.Errorf("invalid ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return StreamInfo{}, fmt.Errorf("no video stream")
	}

	s := out.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return StreamInfo{}, fmt.Errorf("invalid frame size %dx%d", s.Width, s.Height)
	}

	fps := parseRate(s.AvgFrameRate)
	if fps == 0 {
		fps = parseRate(s.RFrameRate)
	}
	frames, _ := strconv.Atoi(s.NbFrames)

	tags := make(map[string]string, len(out.Format.Tags))
	for k, v := range out.Format.Tags {
		tags[strings.ToLower(k)] = v
	}

	return StreamInfo{
		Width:      s.Width,
		Height:     s.Height,
		FPS:        fps,
		FrameCount: frames,
		Tags:       tags,
	}, nil
}

// parseRate turns "30000/1001" or "25" into frames per second, 0 if unusable.
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n <= 0 {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d <= 0 {
		return 0
	}
	return n / d
}

// toolError folds the tool's stderr into its exit error.
func toolError(err error, stderr *bytes.Buffer) error {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return err
	}
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return fmt.Errorf("%w: %s", err, msg)
}
