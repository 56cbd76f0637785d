// Package nonverbal classifies sampled interview frames for face presence and
// apparent affect, and aggregates per-frame results into per-question metrics.
package nonverbal

// Likelihood is a categorical affect estimate using the vision service's
// five-value vocabulary plus Unknown.
type Likelihood string

const (
	VeryUnlikely Likelihood = "VERY_UNLIKELY"
	Unlikely     Likelihood = "UNLIKELY"
	Possible     Likelihood = "POSSIBLE"
	Likely       Likelihood = "LIKELY"
	VeryLikely   Likelihood = "VERY_LIKELY"
	Unknown      Likelihood = "UNKNOWN"
)

// Score maps a likelihood to its ordinal value for averaging. Unknown scores
// as the midpoint (2), the same as Possible, so a frame with a face but an
// unreadable expression neither raises nor lowers the average.
func (l Likelihood) Score() float64 {
	switch l {
	case VeryUnlikely:
		return 0
	case Unlikely:
		return 1
	case Possible:
		return 2
	case Likely:
		return 3
	case VeryLikely:
		return 4
	default:
		return 2
	}
}

// LikelihoodFromLabel normalizes a vision-service label into the fixed
// category set. Unrecognized labels become Unknown.
func LikelihoodFromLabel(label string) Likelihood {
	switch Likelihood(label) {
	case VeryUnlikely, Unlikely, Possible, Likely, VeryLikely:
		return Likelihood(label)
	default:
		return Unknown
	}
}
