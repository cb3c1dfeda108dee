package scoring

import (
	"math"

	"prism-scoring/internal/domain"
)

// Confidence summarises how decisive a classification is.
type Confidence struct {
	Raw        float64
	Calibrated float64
	Band       string
	Entropy    float64
}

// ShareEntropy is the Shannon entropy in bits of the shares read as probabilities.
func ShareEntropy(ranked []TypeFit) float64 {
	h := 0.0
	for _, tf := range ranked {
		p := tf.Share / 100
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

// ComputeConfidence maps the fit gap, the share gap (percentage points) and the
// share entropy through a logistic curve. Calibrated equals Raw until a
// calibration table exists.
func ComputeConfidence(p ConfidenceParams, c Classification) Confidence {
	fitGap := c.Top().Fit - c.Second().Fit
	h := ShareEntropy(c.Ranked)
	raw := 1 / (1 + math.Exp(-(p.A*fitGap + p.B*c.Gap - p.C*h)))

	band := domain.ConfidenceLow
	switch {
	case raw >= p.HighCut:
		band = domain.ConfidenceHigh
	case raw >= p.ModerateCut:
		band = domain.ConfidenceModerate
	}
	return Confidence{Raw: raw, Calibrated: raw, Band: band, Entropy: h}
}

// FitBand buckets the winning fit.
func FitBand(p ConfidenceParams, fit float64) string {
	switch {
	case fit >= p.HighFit:
		return domain.FitBandHigh
	case fit >= p.ModerateFit:
		return domain.FitBandModerate
	default:
		return domain.FitBandLow
	}
}
