package scoring

import (
	"math"

	"prism-scoring/internal/domain"
)

// ForcedChoiceScores is the per-function forced-choice result on 0-5.
// When any answer counted, Scores carries all 8 functions; untouched ones are 0.
type ForcedChoiceScores struct {
	Scores         map[domain.Function]float64
	BlocksAnswered int
}

// ScoreForcedChoice tallies the weights of every chosen option, scales the
// tallies by the largest one to 0-100 and converts to 0-5. Answers pointing
// at unknown options are skipped. Nil Scores means no usable answer.
func ScoreForcedChoice(options []domain.ForcedChoiceOption, answers []domain.ForcedChoiceAnswer) ForcedChoiceScores {
	byID := make(map[string]domain.ForcedChoiceOption, len(options))
	for _, o := range options {
		byID[o.ID] = o
	}

	tally := make(map[domain.Function]float64)
	answered := 0
	for _, a := range answers {
		opt, ok := byID[a.OptionID]
		if !ok {
			continue
		}
		answered++
		for f, w := range opt.Weights {
			if !f.Valid() || math.IsNaN(w) {
				continue
			}
			tally[f] += w
		}
	}
	if answered == 0 || len(tally) == 0 {
		return ForcedChoiceScores{BlocksAnswered: answered}
	}

	maxVal := 1e-9
	for _, v := range tally {
		if v > maxVal {
			maxVal = v
		}
	}
	scores := make(map[domain.Function]float64, domain.NumFunctions)
	for _, f := range domain.Functions {
		scores[f] = clamp(tally[f]/maxVal*100, 0, 100) / 100 * 5
	}
	return ForcedChoiceScores{Scores: scores, BlocksAnswered: answered}
}
