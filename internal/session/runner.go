// Package session orchestrates the full per-session evaluation pipeline:
// sampling each question's recording, running non-verbal analysis, assembling
// ordered payloads, and requesting the final interview report.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/admitcoach/interview-ai/internal/framesampler"
	"github.com/admitcoach/interview-ai/internal/metrics"
	"github.com/admitcoach/interview-ai/internal/nonverbal"
	"github.com/admitcoach/interview-ai/internal/report"
)

var (
	// ErrInvalidMetadata indicates the session's question metadata was
	// missing or malformed. Fatal: no report is produced.
	ErrInvalidMetadata = errors.New("invalid session metadata")

	// ErrReportGeneration indicates the text-generation call failed after
	// the per-question pipeline completed. Fatal: no report is produced.
	ErrReportGeneration = errors.New("report generation failed")
)

const (
	// DefaultFrameCount is the number of stills sampled per recording.
	DefaultFrameCount = 5

	// DefaultWorkerLimit bounds concurrent per-question pipelines. Each
	// question touches only its own scratch files, so a small pool is safe.
	DefaultWorkerLimit = 3
)

// Metadata describes one question in the session, in presentation order.
type Metadata struct {
	Index        int    `json:"index"`
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText"`
	Transcript   string `json:"transcript"`
}

// Recording is one question's uploaded answer video. The Runner owns the
// underlying file for the duration of Run and deletes it before returning.
type Recording struct {
	Index int
	Path  string
}

// FrameSampler extracts still frames from a recording.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath string, frameCount int, workDir string) ([]framesampler.Frame, error)
}

// Aggregator analyzes a batch of frames into a non-verbal summary.
type Aggregator interface {
	Aggregate(ctx context.Context, frames []framesampler.Frame) nonverbal.Summary
}

// ReportGenerator produces the final interview report from ordered payloads.
type ReportGenerator interface {
	Generate(ctx context.Context, payloads []report.QuestionPayload) (*report.InterviewReport, error)
}

// Runner drives one session through the pipeline. Collaborators are injected
// so tests can fake the sampler, the vision-backed aggregator, and Gemini.
type Runner struct {
	sampler     FrameSampler
	aggregator  Aggregator
	reporter    ReportGenerator
	frameCount  int
	workerLimit int
	workDir     string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithFrameCount sets how many stills are sampled per recording.
func WithFrameCount(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.frameCount = n
		}
	}
}

// WithWorkerLimit sets the concurrent per-question pipeline bound.
func WithWorkerLimit(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.workerLimit = n
		}
	}
}

// WithWorkDir sets the scratch directory for temporary frame files.
func WithWorkDir(dir string) Option {
	return func(r *Runner) {
		if dir != "" {
			r.workDir = dir
		}
	}
}

// NewRunner creates a Runner with the given collaborators.
func NewRunner(sampler FrameSampler, aggregator Aggregator, reporter ReportGenerator, opts ...Option) *Runner {
	r := &Runner{
		sampler:     sampler,
		aggregator:  aggregator,
		reporter:    reporter,
		frameCount:  DefaultFrameCount,
		workerLimit: DefaultWorkerLimit,
		workDir:     os.TempDir(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates one session. Per-question failures (missing video, duration
// probe failure, inference failures) degrade that question to the zero-value
// summary and never affect the other questions. Only metadata validation and
// the final report call can fail the session.
//
// Every recording file is deleted exactly once before Run returns, on every
// exit path.
func (r *Runner) Run(ctx context.Context, metadata []Metadata, videos map[int]Recording) (*report.InterviewReport, error) {
	defer r.cleanup(videos)

	if err := validateMetadata(metadata); err != nil {
		return nil, err
	}

	log.Info().
		Int("questions", len(metadata)).
		Int("recordings", len(videos)).
		Msg("Starting session evaluation")

	start := time.Now()
	payloads := make([]report.QuestionPayload, len(metadata))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workerLimit)

	// Results land in index-addressed slots so payload order always matches
	// metadata order, whatever the completion order.
	for i, meta := range metadata {
		g.Go(func() error {
			payloads[i] = report.QuestionPayload{
				Index:        meta.Index,
				QuestionID:   meta.QuestionID,
				QuestionText: meta.QuestionText,
				Transcript:   meta.Transcript,
				NonVerbal:    r.evaluateQuestion(gctx, meta, videos),
			}
			return nil
		})
	}
	// Workers never return errors; per-question failures degrade in place.
	_ = g.Wait()

	degraded := 0
	for _, p := range payloads {
		if p.NonVerbal.FramesAnalyzed == 0 {
			degraded++
		}
	}

	metrics.New(metrics.Namespace).
		Dimension("Operation", "evaluate").
		Metric("SessionQuestions", float64(len(metadata)), metrics.UnitCount).
		Metric("DegradedQuestions", float64(degraded), metrics.UnitCount).
		Metric("PipelineLatencyMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds).
		Flush()

	result, err := r.reporter.Generate(ctx, payloads)
	if err != nil {
		log.Error().Err(err).Msg("Report generation failed")
		return nil, fmt.Errorf("%w: %v", ErrReportGeneration, err)
	}

	log.Info().
		Int("questions", len(metadata)).
		Int("degraded", degraded).
		Dur("duration", time.Since(start)).
		Msg("Session evaluation complete")

	return result, nil
}

// evaluateQuestion runs sampling + aggregation for one question, degrading to
// the zero-value summary on any failure.
func (r *Runner) evaluateQuestion(ctx context.Context, meta Metadata, videos map[int]Recording) nonverbal.Summary {
	recording, ok := videos[meta.Index]
	if !ok {
		log.Warn().Int("question", meta.Index).Msg("No recording for question, using zero-value summary")
		return nonverbal.ZeroSummary()
	}

	frames, err := r.sampler.Sample(ctx, recording.Path, r.frameCount, r.workDir)
	if err != nil {
		log.Warn().
			Err(err).
			Int("question", meta.Index).
			Str("video", filepath.Base(recording.Path)).
			Msg("Frame sampling failed, using zero-value summary")
		return nonverbal.ZeroSummary()
	}

	return r.aggregator.Aggregate(ctx, frames)
}

// cleanup deletes every recording file, best-effort. Deletion errors are
// logged and swallowed; one failure never skips the remaining files.
func (r *Runner) cleanup(videos map[int]Recording) {
	for index, recording := range videos {
		if err := os.Remove(recording.Path); err != nil && !os.IsNotExist(err) {
			log.Warn().
				Err(err).
				Int("question", index).
				Str("path", recording.Path).
				Msg("Failed to remove recording file")
			continue
		}
		log.Debug().Int("question", index).Str("path", recording.Path).Msg("Recording file removed")
	}
}

// validateMetadata checks the session's question list: it must be non-empty,
// hold question text for every entry, and use unique indices.
func validateMetadata(metadata []Metadata) error {
	if len(metadata) == 0 {
		return fmt.Errorf("%w: empty question list", ErrInvalidMetadata)
	}
	seen := make(map[int]bool, len(metadata))
	for i, meta := range metadata {
		if meta.QuestionText == "" {
			return fmt.Errorf("%w: entry %d has no question text", ErrInvalidMetadata, i)
		}
		if seen[meta.Index] {
			return fmt.Errorf("%w: duplicate question index %d", ErrInvalidMetadata, meta.Index)
		}
		seen[meta.Index] = true
	}
	return nil
}
