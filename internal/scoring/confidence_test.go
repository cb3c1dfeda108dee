package scoring

import (
	"math"
	"testing"

	"prism-scoring/internal/domain"
)

func TestComputeConfidence_UniformSharesAreLow(t *testing.T) {
	m := DefaultModel()
	c := Classify(m, domain.StrengthVector{}, domain.DimensionVector{1, 1, 1, 1, 1, 1, 1, 1})

	conf := ComputeConfidence(m.Confidence, c)

	if !almost(conf.Entropy, 4) {
		t.Fatalf("expected 4 bits for 16 equal shares, got %v", conf.Entropy)
	}
	want := 1 / (1 + math.Exp(1))
	if !almost(conf.Raw, want) {
		t.Fatalf("expected raw %v, got %v", want, conf.Raw)
	}
	if conf.Band != domain.ConfidenceLow {
		t.Fatalf("expected Low, got %s", conf.Band)
	}
	if conf.Calibrated != conf.Raw {
		t.Fatalf("expected calibrated to equal raw")
	}
}

func TestComputeConfidence_DecisiveWinIsHigh(t *testing.T) {
	p := DefaultModel().Confidence
	c := Classification{
		Ranked: []TypeFit{
			{Code: domain.LIE, Fit: 80, Share: 99},
			{Code: domain.ILI, Fit: 60, Share: 1},
		},
		Gap: 98,
	}
	if got := ComputeConfidence(p, c).Band; got != domain.ConfidenceHigh {
		t.Fatalf("expected High, got %s", got)
	}
}

func TestFitBand_Boundaries(t *testing.T) {
	p := DefaultModel().Confidence
	cases := []struct {
		fit  float64
		want string
	}{
		{75, domain.FitBandHigh},
		{74.99, domain.FitBandModerate},
		{55, domain.FitBandModerate},
		{54.99, domain.FitBandLow},
	}
	for _, tc := range cases {
		if got := FitBand(p, tc.fit); got != tc.want {
			t.Fatalf("fit %v: expected %s, got %s", tc.fit, tc.want, got)
		}
	}
}
