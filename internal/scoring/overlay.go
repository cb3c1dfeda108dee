package scoring

import "prism-scoring/internal/domain"

const (
	OverlayBandUp      = "+"
	OverlayBandNeutral = "0"
	OverlayBandDown    = "–"
)

var overlayLabels = map[string]string{
	OverlayBandUp:      "Heightened Reactivity (+)",
	OverlayBandDown:    "Steady Regulation (–)",
	OverlayBandNeutral: "Balanced Regulation (0)",
}

// ComputeOverlay scores neuroticism-style items (1-5) against the calibration
// norms and folds in the external state index. No items yields the neutral z.
// stateIndex is supplied by the caller; there is no aggregate source for it yet,
// so the service passes 0.
func ComputeOverlay(p OverlayParams, items []float64, stateIndex float64) domain.Overlay {
	neuroZ := (meanOr(items, p.NeuroMean) - p.NeuroMean) / p.NeuroSD
	z := neuroZ + stateIndex*p.StateWeight

	band := OverlayBandNeutral
	switch {
	case z > p.Cut:
		band = OverlayBandUp
	case z < -p.Cut:
		band = OverlayBandDown
	}
	return domain.Overlay{Band: band, Z: z, Label: overlayLabels[band]}
}
