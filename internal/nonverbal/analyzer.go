package nonverbal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/admitcoach/interview-ai/internal/framesampler"
)

// FaceAnnotation is the normalized result of one face-detection call: the
// detection confidence and the raw affect-likelihood label reported by the
// vision service.
type FaceAnnotation struct {
	Confidence float64
	JoyLabel   string
}

// FaceAnnotator is the vision inference collaborator. Implementations return
// (nil, nil) when no face is detected, and an error only for call failures
// (network, quota, timeout).
type FaceAnnotator interface {
	AnnotateFace(ctx context.Context, image []byte) (*FaceAnnotation, error)
}

// FrameAffectRecord is the per-frame analysis result for a frame with a
// detected face.
type FrameAffectRecord struct {
	FaceDetected        bool
	DetectionConfidence float64
	Affect              Likelihood
}

// Summary holds the aggregated non-verbal metrics for one question's
// recording. Averages cover only frames where a face was detected; a frame
// without a face carries no usable affect signal.
type Summary struct {
	FramesAnalyzed             int        `json:"framesAnalyzed"`
	FramesWithFace             int        `json:"framesWithFace"`
	AverageDetectionConfidence float64    `json:"averageDetectionConfidence"`
	AffectScoreAverage         float64    `json:"affectScoreAverage"`
	AffectLikelihoodMode       Likelihood `json:"affectLikelihoodMode"`
}

// ZeroSummary is the canonical "no usable data" summary, used when a
// question's video is missing or its analysis failed entirely.
func ZeroSummary() Summary {
	return Summary{AffectLikelihoodMode: Unknown}
}

// Analyzer drives per-frame face/affect inference and per-question aggregation.
type Analyzer struct {
	annotator FaceAnnotator
}

// NewAnalyzer creates an Analyzer backed by the given vision collaborator.
func NewAnalyzer(annotator FaceAnnotator) *Analyzer {
	return &Analyzer{annotator: annotator}
}

// AnalyzeFrame classifies a single frame. Returns nil when no face was
// detected or the inference call failed; call failures are logged and
// absorbed here so one bad frame never aborts a question's batch.
func (a *Analyzer) AnalyzeFrame(ctx context.Context, image []byte) *FrameAffectRecord {
	annotation, err := a.annotator.AnnotateFace(ctx, image)
	if err != nil {
		log.Warn().Err(err).Msg("Face inference failed, treating frame as no detection")
		return nil
	}
	if annotation == nil {
		return nil
	}
	return &FrameAffectRecord{
		FaceDetected:        true,
		DetectionConfidence: annotation.Confidence,
		Affect:              LikelihoodFromLabel(annotation.JoyLabel),
	}
}

// Aggregate analyzes every frame in the batch and folds the results into a
// Summary. FramesAnalyzed always reflects the attempted count; all averages
// and the mode cover only frames where a face was found. Mode ties resolve to
// the category encountered first in frame order.
func (a *Analyzer) Aggregate(ctx context.Context, frames []framesampler.Frame) Summary {
	summary := ZeroSummary()
	summary.FramesAnalyzed = len(frames)
	if len(frames) == 0 {
		return summary
	}

	var (
		confidenceSum float64
		scoreSum      float64
		counts        = make(map[Likelihood]int)
		firstSeen     []Likelihood
	)

	for i, frame := range frames {
		record := a.AnalyzeFrame(ctx, frame.Data)
		if record == nil {
			log.Debug().Int("frame", i).Float64("timestamp_s", frame.Timestamp).Msg("No face in frame")
			continue
		}

		summary.FramesWithFace++
		confidenceSum += record.DetectionConfidence
		scoreSum += record.Affect.Score()
		if counts[record.Affect] == 0 {
			firstSeen = append(firstSeen, record.Affect)
		}
		counts[record.Affect]++
	}

	if summary.FramesWithFace == 0 {
		return summary
	}

	n := float64(summary.FramesWithFace)
	summary.AverageDetectionConfidence = confidenceSum / n
	summary.AffectScoreAverage = scoreSum / n

	best := 0
	for _, likelihood := range firstSeen {
		if counts[likelihood] > best {
			best = counts[likelihood]
			summary.AffectLikelihoodMode = likelihood
		}
	}

	log.Debug().
		Int("frames_analyzed", summary.FramesAnalyzed).
		Int("frames_with_face", summary.FramesWithFace).
		Float64("avg_confidence", summary.AverageDetectionConfidence).
		Float64("affect_score_avg", summary.AffectScoreAverage).
		Str("affect_mode", string(summary.AffectLikelihoodMode)).
		Msg("Question aggregation complete")

	return summary
}
