package scoring

import "prism-scoring/internal/domain"

func (s BlockShift) get(b domain.Block) float64 {
	switch b {
	case domain.BlockCore:
		return s.Core
	case domain.BlockCritic:
		return s.Critic
	case domain.BlockHidden:
		return s.Hidden
	default:
		return s.Instinct
	}
}

// ComposeBlocks applies the context shift to the baseline split, then nudges
// each block by ScenarioStep per scenario selection made for that context.
// Weights are clamped at zero and renormalised so they sum to 1.
func ComposeBlocks(p BlockParams, ctx domain.Context, scenarios map[domain.Context][]domain.Block) domain.BlockWeights {
	var w [4]float64
	for i, b := range domain.Blocks {
		w[i] = p.Baseline.get(b)
		switch ctx {
		case domain.ContextStress:
			w[i] += p.Stress.get(b)
		case domain.ContextFlow:
			w[i] += p.Flow.get(b)
		}
	}

	for _, picked := range scenarios[ctx] {
		for i, b := range domain.Blocks {
			if b == picked {
				w[i] += p.ScenarioStep
			}
		}
	}

	total := 0.0
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
		total += w[i]
	}
	if total > 0 {
		for i := range w {
			w[i] /= total
		}
	} else {
		w = [4]float64{0.25, 0.25, 0.25, 0.25}
	}

	if ctx == "" {
		ctx = domain.ContextCalm
	}
	return domain.BlockWeights{
		Core:     w[0],
		Critic:   w[1],
		Hidden:   w[2],
		Instinct: w[3],
		Context:  ctx,
	}
}
