package scoring

import (
	"math"
	"testing"

	"prism-scoring/internal/domain"
)

func sumShares(c Classification) float64 {
	total := 0.0
	for _, tf := range c.Ranked {
		total += tf.Share
	}
	return total
}

func TestClassify_SharesSumTo100(t *testing.T) {
	m := DefaultModel()
	s := domain.StrengthVector{1.2, -0.4, 0.3, -1.1, 2.0, -0.6, -0.9, -0.5}
	d := domain.DimensionVector{3, 1, 2, 1, 4, 2, 1, 1}

	c := Classify(m, s, d)

	if len(c.Ranked) != domain.NumTypes {
		t.Fatalf("expected %d ranked types, got %d", domain.NumTypes, len(c.Ranked))
	}
	if math.Abs(sumShares(c)-100) > 1e-9 {
		t.Fatalf("expected shares to sum 100, got %v", sumShares(c))
	}
	for i := 1; i < len(c.Ranked); i++ {
		if c.Ranked[i].Share > c.Ranked[i-1].Share+shareEpsilon {
			t.Fatalf("ranking not descending at %d", i)
		}
	}
	if !almost(c.Gap, c.Ranked[0].Share-c.Ranked[1].Share) {
		t.Fatalf("expected gap top1-top2, got %v", c.Gap)
	}
}

func TestClassify_DegenerateInputTieBreaksToFirstCanonicalType(t *testing.T) {
	m := DefaultModel()
	var s domain.StrengthVector
	d := domain.DimensionVector{1, 1, 1, 1, 1, 1, 1, 1}

	c := Classify(m, s, d)

	if c.Top().Code != domain.LIE {
		t.Fatalf("expected LIE to win the tie, got %s", c.Top().Code)
	}
	for i, tf := range c.Ranked {
		if tf.Code != domain.TypeCodes[i] {
			t.Fatalf("expected canonical order at %d, got %s", i, tf.Code)
		}
		if !almost(tf.Fit, 67) {
			t.Fatalf("expected fit 67 for %s, got %v", tf.Code, tf.Fit)
		}
		if !almost(tf.Share, 6.25) {
			t.Fatalf("expected share 6.25 for %s, got %v", tf.Code, tf.Share)
		}
	}
	if c.Gap != 0 || !c.CloseCall {
		t.Fatalf("expected zero gap close call, got gap=%v close=%v", c.Gap, c.CloseCall)
	}
}

func TestIsCloseCall_StrictBoundary(t *testing.T) {
	p := DefaultModel().Classifier
	if p.IsCloseCall(5.0) {
		t.Fatalf("expected gap 5.0 not to be a close call")
	}
	if !p.IsCloseCall(4.999) {
		t.Fatalf("expected gap 4.999 to be a close call")
	}
	if p.IsCloseCall(12) {
		t.Fatalf("expected gap 12 not to be a close call")
	}
}

func TestSoftmax_StableForLargeFits(t *testing.T) {
	shares := Softmax([]float64{1000, 999, 998}, 1)
	total := 0.0
	for _, s := range shares {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("expected finite shares, got %v", shares)
		}
		total += s
	}
	if math.Abs(total-100) > 1e-9 {
		t.Fatalf("expected sum 100, got %v", total)
	}
	if !(shares[0] > shares[1] && shares[1] > shares[2]) {
		t.Fatalf("expected order preserved, got %v", shares)
	}
}

func TestSoftmax_TemperatureFlattens(t *testing.T) {
	sharp := Softmax([]float64{70, 60}, 1)
	flat := Softmax([]float64{70, 60}, 10)
	if flat[0] >= sharp[0] {
		t.Fatalf("expected higher temperature to flatten, got %v vs %v", flat[0], sharp[0])
	}
}

func TestFitAgainst_ExpectedProfileScoresPerfect(t *testing.T) {
	m := DefaultModel()
	var s domain.StrengthVector
	buckets := m.Buckets(domain.ILE)
	for i := range s {
		s[i] = m.ExpectedStrength[buckets[i]]
	}
	d := domain.DimensionVector{3, 3, 3, 3, 3, 3, 3, 3}

	tf := FitAgainst(m, domain.ILE, s, d)

	if tf.Distance != 0 {
		t.Fatalf("expected zero distance, got %v", tf.Distance)
	}
	if tf.Fit != 100 {
		t.Fatalf("expected fit clamped to 100, got %v", tf.Fit)
	}
	if tf.Parts.StrengthAlign != 25 || !tf.Parts.Stubbed {
		t.Fatalf("unexpected parts %+v", tf.Parts)
	}
	if tf.Parts.ForcedChoiceSupport != m.Classifier.ForcedChoiceSupportStub {
		t.Fatalf("expected stub forced choice support, got %v", tf.Parts.ForcedChoiceSupport)
	}
}
