package ai

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/constants"
)

// FrameSource reads individual frames of a local video file.
type FrameSource interface {
	// FrameCount returns the number of video frames in the file.
	FrameCount(ctx context.Context, path string) (int, error)
	// Frame returns frame index (0-based) encoded as JPEG.
	Frame(ctx context.Context, path string, index int) ([]byte, error)
}

// SampleIndices returns n frame indices evenly spaced over [0, frameCount-1],
// truncated to integers. Short videos yield repeated indices.
func SampleIndices(frameCount, n int) []int {
	if frameCount <= 0 || n <= 0 {
		return nil
	}
	if n == 1 {
		return []int{0}
	}
	last := frameCount - 1
	step := float64(last) / float64(n-1)
	indices := make([]int, n)
	for i := range n - 1 {
		indices[i] = int(float64(i) * step)
	}
	indices[n-1] = last
	return indices
}

// FFmpegFrames extracts frames with the ffprobe and ffmpeg binaries.
type FFmpegFrames struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpegFrames(ffmpegPath, ffprobePath string) *FFmpegFrames {
	return &FFmpegFrames{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

func (f *FFmpegFrames) run(ctx context.Context, binaryPath string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.FFmpegTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", binaryPath, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (f *FFmpegFrames) FrameCount(ctx context.Context, path string) (int, error) {
	out, err := f.run(ctx, f.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, fmt.Errorf("no video stream in %s", path)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, ","))
	if err != nil {
		return 0, fmt.Errorf("parse frame count %q: %w", s, err)
	}
	return n, nil
}

func (f *FFmpegFrames) Frame(ctx context.Context, path string, index int) ([]byte, error) {
	out, err := f.run(ctx, f.ffmpegPath,
		"-v", "error",
		"-i", path,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, index),
		"-vsync", "vfr",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("frame %d not found in %s", index, path)
	}
	return out, nil
}
