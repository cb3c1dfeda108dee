package scoring

import (
	"math"

	"prism-scoring/internal/domain"
)

// Coherence describes how well the winning archetype's structure matches
// the subject's dimensionality pattern. It does not affect classification.
type Coherence struct {
	SeatCoherence float64
	CoherentDims  int
	UniqueDims    int
	Highlights    domain.DimsHighlights
}

// AnalyzeCoherence walks the archetype's 8-seat map. Base and Creative
// functions at level 3 or above count toward CoherentDims, others toward
// UniqueDims; level 4 counts double. SeatCoherence is the seat-weighted mean
// of max(0, strength + DimWeight*level), weights taken from the folded bucket.
func AnalyzeCoherence(m *Model, code domain.TypeCode, s domain.StrengthVector, d domain.DimensionVector) Coherence {
	p := m.Coherence
	out := Coherence{Highlights: domain.DimsHighlights{Coherent: []domain.Function{}, Unique: []domain.Function{}}}

	weighted, weights := 0.0, 0.0
	for i, f := range domain.Functions {
		seat := m.SeatOf(code, f)
		bucket := seat.Fold()
		valued := seat == domain.SeatBase || seat == domain.SeatCreative

		if d[i] >= 3 {
			n := 1
			if d[i] == 4 {
				n = 2
			}
			if valued {
				out.CoherentDims += n
				out.Highlights.Coherent = append(out.Highlights.Coherent, f)
			} else {
				out.UniqueDims += n
				out.Highlights.Unique = append(out.Highlights.Unique, f)
			}
		}

		w := p.SeatWeights[bucket]
		weighted += w * math.Max(0, s[i]+p.DimWeight*float64(d[i]))
		weights += w
	}
	if weights > 0 {
		out.SeatCoherence = weighted / weights
	}
	return out
}
