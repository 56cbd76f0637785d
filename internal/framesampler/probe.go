package framesampler

// probe.go contains the ffprobe-based duration probing logic. ffprobe is used
// because it handles every container format uploaded from browsers and phones
// (MP4, MOV, WebM, MKV) and returns clean JSON output.

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// probeTimeout bounds a single ffprobe invocation.
const probeTimeout = 15 * time.Second

// ffprobeOutput represents the JSON structure from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// ProbeDuration returns the duration of the video in seconds.
// Returns ErrDurationUnavailable when ffprobe fails, its output cannot be
// parsed, or the reported duration is zero.
func (s *Sampler) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe failed: %v", ErrDurationUnavailable, err)
	}

	duration, err := parseProbeDuration(output)
	if err != nil {
		return 0, err
	}

	log.Debug().Str("video", videoPath).Float64("duration_s", duration).Msg("Probed video duration")
	return duration, nil
}

// parseProbeDuration extracts a positive duration from ffprobe JSON output,
// preferring the container-level value and falling back to video stream
// durations (WebM recordings often omit the format-level field).
func parseProbeDuration(output []byte) (float64, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("%w: cannot parse ffprobe output: %v", ErrDurationUnavailable, err)
	}

	if probe.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && dur > 0 {
			return dur, nil
		}
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" || stream.Duration == "" {
			continue
		}
		if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil && dur > 0 {
			return dur, nil
		}
	}

	return 0, ErrDurationUnavailable
}
