package scoring

import (
	"math"
	"testing"

	"prism-scoring/internal/domain"
)

func TestEstimateStrengths_NormalisesToMeanZeroStdOne(t *testing.T) {
	p := DefaultModel().Strength
	var in StrengthInput
	values := []float64{5, 4, 2, 3, 1, 4, 2, 5}
	for i, v := range values {
		in.Ratings[i] = []float64{v}
	}

	s := EstimateStrengths(p, in)

	sum, sq := 0.0, 0.0
	for _, v := range s {
		sum += v
	}
	mu := sum / 8
	for _, v := range s {
		sq += (v - mu) * (v - mu)
	}
	sd := math.Sqrt(sq / 8)
	if math.Abs(mu) > 1e-9 {
		t.Fatalf("expected mean 0, got %v", mu)
	}
	if math.Abs(sd-1) > 1e-9 {
		t.Fatalf("expected std 1, got %v", sd)
	}
}

func TestEstimateStrengths_FlatProfileIsAllZero(t *testing.T) {
	s := EstimateStrengths(DefaultModel().Strength, StrengthInput{})
	for i, v := range s {
		if v != 0 {
			t.Fatalf("expected 0 at %d, got %v", i, v)
		}
	}
}

func TestRatingWeight_ShiftsTowardForcedChoiceUnderStress(t *testing.T) {
	p := DefaultModel().Strength
	if got := RatingWeight(p, 0); math.Abs(got-0.7) > 1e-12 {
		t.Fatalf("expected 0.7 at no stress, got %v", got)
	}
	if got := RatingWeight(p, 0.5); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected 0.5 at half stress, got %v", got)
	}
	if got := RatingWeight(p, 1); math.Abs(got-0.3) > 1e-12 {
		t.Fatalf("expected floor 0.3 at full stress, got %v", got)
	}
}

func TestBlendStrengths_NoForcedChoiceUsesRatingsOnly(t *testing.T) {
	p := DefaultModel().Strength
	var in StrengthInput
	in.Ratings[0] = []float64{4, 4}
	in.Ratings[1] = []float64{2}

	raw := BlendStrengths(p, in)

	if raw[0] != 4 || raw[1] != 2 {
		t.Fatalf("expected rating-only 4 and 2, got %v and %v", raw[0], raw[1])
	}
	if raw[2] != p.RatingDefault {
		t.Fatalf("expected Fi default %v, got %v", p.RatingDefault, raw[2])
	}
}

func TestBlendStrengths_UnvotedFunctionCountsAsZero(t *testing.T) {
	p := DefaultModel().Strength
	var in StrengthInput
	for i := range in.Ratings {
		in.Ratings[i] = []float64{3}
	}
	in.ForcedChoice = map[domain.Function]float64{domain.Ti: 5, domain.Te: 0.5}

	raw := BlendStrengths(p, in)

	if want := 0.7*3 + 0.3*5; math.Abs(raw[0]-want) > 1e-12 {
		t.Fatalf("expected Ti blended %v, got %v", want, raw[0])
	}
	if want := 0.7 * 3; math.Abs(raw[2]-want) > 1e-12 {
		t.Fatalf("expected Fi blended with 0, got %v", raw[2])
	}
	// orden: Ti > Te > sin votos
	if !(raw[0] > raw[1] && raw[1] > raw[2]) {
		t.Fatalf("expected order to follow forced-choice support, got Ti=%v Te=%v Fi=%v", raw[0], raw[1], raw[2])
	}
	for i := 2; i < domain.NumFunctions; i++ {
		if raw[i] != raw[2] {
			t.Fatalf("expected unvoted functions equal, got %v at %d", raw[i], i)
		}
	}
}
