package scoring

import (
	"testing"

	"prism-scoring/internal/domain"
)

func TestScoreForcedChoice_MaxNormalises(t *testing.T) {
	options := []domain.ForcedChoiceOption{
		{ID: "o1", BlockID: "b1", Weights: map[domain.Function]float64{domain.Ti: 2, domain.Ne: 1}},
		{ID: "o2", BlockID: "b2", Weights: map[domain.Function]float64{domain.Ti: 2}},
		{ID: "o3", BlockID: "b3", Weights: map[domain.Function]float64{domain.Fe: 3}},
	}
	answers := []domain.ForcedChoiceAnswer{
		{BlockID: "b1", OptionID: "o1"},
		{BlockID: "b2", OptionID: "o2"},
		{BlockID: "b3", OptionID: "missing"},
	}

	got := ScoreForcedChoice(options, answers)

	if got.BlocksAnswered != 2 {
		t.Fatalf("expected 2 answered blocks, got %d", got.BlocksAnswered)
	}
	if !almost(got.Scores[domain.Ti], 5) {
		t.Fatalf("expected Ti 5, got %v", got.Scores[domain.Ti])
	}
	if !almost(got.Scores[domain.Ne], 1.25) {
		t.Fatalf("expected Ne 1.25, got %v", got.Scores[domain.Ne])
	}
	if len(got.Scores) != domain.NumFunctions {
		t.Fatalf("expected all %d functions scored, got %d", domain.NumFunctions, len(got.Scores))
	}
	if fe, ok := got.Scores[domain.Fe]; !ok || fe != 0 {
		t.Fatalf("expected Fe present at 0, got %v (present=%v)", fe, ok)
	}
}

func TestScoreForcedChoice_NoAnswersIsAbsent(t *testing.T) {
	got := ScoreForcedChoice(nil, nil)
	if got.Scores != nil || got.BlocksAnswered != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
