// Package framesampler turns one recorded answer video into a small set of
// representative still frames using ffmpeg/ffprobe.
package framesampler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrDurationUnavailable is returned when ffprobe cannot determine a usable
// (non-zero) duration for the source video. This aborts sampling for the
// recording; individual frame export failures do not.
var ErrDurationUnavailable = errors.New("video duration unavailable")

const (
	// DefaultFrameWidth bounds exported still width, capping the payload
	// size sent to the vision service. Aspect ratio is preserved.
	DefaultFrameWidth = 640

	// FrameJPEGQuality is the qscale:v value for exported stills.
	// 2 is high quality (~95% JPEG), preserving facial detail for inference.
	FrameJPEGQuality = 2

	// windowMargin excludes the first and last 10% of the clip, where
	// candidates are typically settling in or reaching for the camera.
	windowMargin = 0.1
)

// Frame is one still image sampled from a recording.
type Frame struct {
	// Data holds the encoded JPEG bytes.
	Data []byte

	// Timestamp is the sample position in seconds into the source clip.
	Timestamp float64
}

// Sampler exports still frames from video files. The zero value is not
// usable; construct with New.
type Sampler struct {
	ffmpegPath  string
	ffprobePath string
	maxWidth    int
}

// New resolves the ffmpeg and ffprobe binaries from PATH.
func New() (*Sampler, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: frame sampling requires ffmpeg: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: duration probing requires ffprobe: %w", err)
	}
	return &Sampler{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		maxWidth:    DefaultFrameWidth,
	}, nil
}

// CheckBackendAvailable reports whether ffmpeg and ffprobe are both on PATH.
// Call at startup to validate frame sampling capability.
func CheckBackendAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe not found in PATH: install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)")
	}
	return nil
}

// SampleTimestamps computes count evenly spaced sample positions inside the
// interior window [0.1*duration, 0.9*duration]. For count == 1 the single
// position is the window midpoint. Returns nil for non-positive duration or
// count.
func SampleTimestamps(duration float64, count int) []float64 {
	if duration <= 0 || count < 1 {
		return nil
	}

	start := windowMargin * duration
	end := (1 - windowMargin) * duration

	if count == 1 {
		return []float64{(start + end) / 2}
	}

	step := (end - start) / float64(count-1)
	timestamps := make([]float64, count)
	for i := range timestamps {
		timestamps[i] = start + step*float64(i)
	}
	return timestamps
}

// Sample extracts frameCount representative stills from the video at
// videoPath, writing temporary files under workDir and deleting each one
// immediately after its bytes are read.
//
// A duration probe failure aborts the call with ErrDurationUnavailable.
// Individual export or read failures only drop that frame, so the result may
// hold fewer than frameCount entries. Frames are returned in timestamp order.
func (s *Sampler) Sample(ctx context.Context, videoPath string, frameCount int, workDir string) ([]Frame, error) {
	if frameCount < 1 {
		return nil, fmt.Errorf("frame count must be at least 1, got %d", frameCount)
	}

	duration, err := s.ProbeDuration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	timestamps := SampleTimestamps(duration, frameCount)

	log.Debug().
		Str("video", filepath.Base(videoPath)).
		Float64("duration_s", duration).
		Int("frame_count", frameCount).
		Msg("Sampling frames from recording")

	frames := make([]Frame, 0, len(timestamps))
	for _, ts := range timestamps {
		data, err := s.exportStill(ctx, videoPath, ts, workDir)
		if err != nil {
			log.Warn().
				Err(err).
				Str("video", filepath.Base(videoPath)).
				Float64("timestamp_s", ts).
				Msg("Dropping frame after export failure")
			continue
		}
		frames = append(frames, Frame{Data: data, Timestamp: ts})
	}

	log.Debug().
		Str("video", filepath.Base(videoPath)).
		Int("requested", frameCount).
		Int("exported", len(frames)).
		Msg("Frame sampling complete")

	return frames, nil
}

// exportStill writes one still at the given timestamp to a uniquely named
// scratch file, reads it back, and removes the file. The removal runs on
// every path, including read failures.
func (s *Sampler) exportStill(ctx context.Context, videoPath string, timestamp float64, workDir string) ([]byte, error) {
	outPath := filepath.Join(workDir, fmt.Sprintf("frame-%s.jpg", uuid.NewString()))
	defer func() {
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", outPath).Msg("Failed to remove temporary frame file")
		}
	}()

	args := []string{
		"-ss", fmt.Sprintf("%.3f", timestamp),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':-2", s.maxWidth),
		"-qscale:v", fmt.Sprintf("%d", FrameJPEGQuality),
		"-y", outPath,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("still export failed at %.2fs: %w\nOutput: %s", timestamp, err, string(output))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read exported frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("exported frame is empty at %.2fs", timestamp)
	}
	return data, nil
}
