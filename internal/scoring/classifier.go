package scoring

import (
	"math"
	"sort"

	"prism-scoring/internal/domain"
)

// shareEpsilon absorbs float noise when ranking; shares closer than this are ties.
const shareEpsilon = 1e-9

// TypeFit is the classifier's view of one archetype.
type TypeFit struct {
	Code       domain.TypeCode
	Fit        float64
	Share      float64
	Distance   float64
	Adjustment float64
	Parts      domain.FitParts
}

// Classification holds all 16 archetypes ranked by share, best first.
type Classification struct {
	Ranked    []TypeFit
	Gap       float64
	CloseCall bool
}

// Top returns the winning archetype.
func (c Classification) Top() TypeFit {
	if len(c.Ranked) == 0 {
		return TypeFit{}
	}
	return c.Ranked[0]
}

// Second returns the runner-up.
func (c Classification) Second() TypeFit {
	if len(c.Ranked) < 2 {
		return TypeFit{}
	}
	return c.Ranked[1]
}

// TopN returns the first n ranked entries in output form.
func (c Classification) TopN(n int) []domain.RankedType {
	if n > len(c.Ranked) {
		n = len(c.Ranked)
	}
	out := make([]domain.RankedType, 0, n)
	for _, tf := range c.Ranked[:n] {
		out = append(out, domain.RankedType{Code: tf.Code, Fit: tf.Fit, Share: tf.Share})
	}
	return out
}

// IsCloseCall reports whether a share gap is too narrow to call. The
// comparison is strict: a gap equal to CloseCallGap is not a close call.
func (p ClassifierParams) IsCloseCall(gap float64) bool {
	return gap < p.CloseCallGap
}

// FitAgainst scores one archetype: Euclidean distance from the subject's
// strengths to the archetype's expected profile, plus a dimensional
// adjustment over its Base and Creative functions.
func FitAgainst(m *Model, code domain.TypeCode, s domain.StrengthVector, d domain.DimensionVector) TypeFit {
	p := m.Classifier
	buckets := m.Buckets(code)

	sq, absDiff, adj := 0.0, 0.0, 0.0
	for i := range s {
		diff := s[i] - m.ExpectedStrength[buckets[i]]
		sq += diff * diff
		absDiff += math.Abs(diff)

		if buckets[i] == domain.BucketBase || buckets[i] == domain.BucketCreative {
			if d[i] >= p.DimCutoff {
				adj += p.DimBonus
			} else {
				adj -= p.DimPenalty
			}
		}
	}
	dist := math.Sqrt(sq)
	fit := clamp(100-dist*p.DistanceScale+adj*p.AdjustmentScale, 0, 100)

	return TypeFit{
		Code:       code,
		Fit:        fit,
		Distance:   dist,
		Adjustment: adj,
		Parts: domain.FitParts{
			StrengthAlign:       math.Max(0, 25-3*absDiff),
			DimAlign:            math.Max(0, 5*adj+20),
			ForcedChoiceSupport: p.ForcedChoiceSupportStub,
			OppositePenalty:     p.OppositePenaltyStub,
			Stubbed:             true,
		},
	}
}

// Softmax turns fits into percentage shares summing to 100. The maximum fit
// is subtracted before exponentiating.
func Softmax(fits []float64, temperature float64) []float64 {
	if len(fits) == 0 {
		return nil
	}
	if temperature <= 0 {
		temperature = 1
	}
	maxFit := fits[0]
	for _, f := range fits[1:] {
		if f > maxFit {
			maxFit = f
		}
	}
	out := make([]float64, len(fits))
	total := 0.0
	for i, f := range fits {
		out[i] = math.Exp((f - maxFit) / temperature)
		total += out[i]
	}
	for i := range out {
		out[i] = out[i] / total * 100
	}
	return out
}

// Classify fits all 16 archetypes and ranks them. Ties keep canonical
// enumeration order, so the earlier archetype wins.
func Classify(m *Model, s domain.StrengthVector, d domain.DimensionVector) Classification {
	ranked := make([]TypeFit, 0, domain.NumTypes)
	fits := make([]float64, 0, domain.NumTypes)
	for _, code := range domain.TypeCodes {
		tf := FitAgainst(m, code, s, d)
		ranked = append(ranked, tf)
		fits = append(fits, tf.Fit)
	}
	for i, share := range Softmax(fits, m.Classifier.Temperature) {
		ranked[i].Share = share
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Share > ranked[j].Share+shareEpsilon
	})

	c := Classification{Ranked: ranked}
	c.Gap = c.Top().Share - c.Second().Share
	c.CloseCall = m.Classifier.IsCloseCall(c.Gap)
	return c
}
