package scoring

import (
	"math"

	"prism-scoring/internal/domain"
)

// StrengthInput is what the strength estimator consumes for one subject.
// ForcedChoice holds 0-5 scores; a nil or empty map means no forced-choice
// data and the estimator falls back to ratings alone. Once the map has any
// entry, a function missing from it counts as 0.
type StrengthInput struct {
	Ratings      [domain.NumFunctions][]float64
	ForcedChoice map[domain.Function]float64
	Stress       float64
}

// RatingWeight is the share given to rating items; it shrinks toward the
// floor as self-reported stress rises, leaving more weight on forced choice.
func RatingWeight(p StrengthParams, stress float64) float64 {
	return math.Max(p.RatingWeightFloor, p.RatingWeightBase-stress*p.StressSlope)
}

// BlendStrengths returns the raw blended value of every function before normalisation.
func BlendStrengths(p StrengthParams, in StrengthInput) [domain.NumFunctions]float64 {
	var raw [domain.NumFunctions]float64
	wRating := RatingWeight(p, in.Stress)
	hasFC := len(in.ForcedChoice) > 0
	for i, f := range domain.Functions {
		rating := meanOr(in.Ratings[i], p.RatingDefault)
		if !hasFC {
			raw[i] = rating
			continue
		}
		fc := in.ForcedChoice[f]
		if math.IsNaN(fc) {
			fc = 0
		}
		raw[i] = wRating*rating + (1-wRating)*fc
	}
	return raw
}

// EstimateStrengths blends and z-scores the 8 function values within the subject.
func EstimateStrengths(p StrengthParams, in StrengthInput) domain.StrengthVector {
	return ZScore(BlendStrengths(p, in))
}

// ZScore normalises with the population standard deviation; a zero spread
// divides by 1 so a flat profile maps to all zeros.
func ZScore(raw [domain.NumFunctions]float64) domain.StrengthVector {
	n := float64(len(raw))
	sum := 0.0
	for _, v := range raw {
		sum += v
	}
	mu := sum / n
	variance := 0.0
	for _, v := range raw {
		variance += (v - mu) * (v - mu)
	}
	sd := math.Sqrt(variance / n)
	if sd == 0 {
		sd = 1
	}
	var out domain.StrengthVector
	for i, v := range raw {
		out[i] = (v - mu) / sd
	}
	return out
}
