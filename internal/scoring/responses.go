package scoring

import (
	"strings"

	"prism-scoring/internal/domain"
)

// Facet tags of the dimensionality gate, appended to the function prefix ("Ti_EXP").
const (
	facetExperiential = "_EXP"
	facetNormative    = "_NORM"
	facetSituational  = "_SIT"
	facetTemporal     = "_TIME"
)

const (
	tagNeuro       = "neuro"
	tagOverlay     = "overlay"
	tagStateStress = "state_stress"
	tagScenario    = "scenario_"
)

// FacetResponses holds the four gating facets of one function, each on 1-5.
type FacetResponses struct {
	Experiential []float64
	Normative    []float64
	Situational  []float64
	Temporal     []float64
}

// Grouped is the per-component view of one session's answers.
type Grouped struct {
	Ratings   [domain.NumFunctions][]float64
	Facets    [domain.NumFunctions]FacetResponses
	Overlay   []float64
	Stress    []float64
	Scenarios map[domain.Context][]domain.Block
}

// GroupResponses routes every tagged answer to the component that consumes it.
// Unknown tags are ignored; values are converted to the common 1-5 scale.
func GroupResponses(responses []domain.Response) Grouped {
	g := Grouped{Scenarios: make(map[domain.Context][]domain.Block)}
	for _, r := range responses {
		tag := strings.TrimSpace(r.Tag)
		lower := strings.ToLower(tag)
		v := r.Common5()

		switch {
		case lower == tagNeuro || lower == tagOverlay:
			g.Overlay = append(g.Overlay, v)
			continue
		case lower == tagStateStress:
			g.Stress = append(g.Stress, v)
			continue
		case strings.HasPrefix(lower, tagScenario):
			if ctx, block, ok := parseScenarioTag(lower); ok && r.Value > 0 {
				g.Scenarios[ctx] = append(g.Scenarios[ctx], block)
			}
			continue
		}

		f, ok := domain.ParseFunction(tag)
		if !ok {
			continue
		}
		i := f.Index()
		upper := strings.ToUpper(tag)
		switch {
		case strings.HasSuffix(upper, facetExperiential):
			g.Facets[i].Experiential = append(g.Facets[i].Experiential, v)
		case strings.HasSuffix(upper, facetNormative):
			g.Facets[i].Normative = append(g.Facets[i].Normative, v)
		case strings.HasSuffix(upper, facetSituational):
			g.Facets[i].Situational = append(g.Facets[i].Situational, v)
		case strings.HasSuffix(upper, facetTemporal):
			g.Facets[i].Temporal = append(g.Facets[i].Temporal, v)
		case r.IsRating():
			g.Ratings[i] = append(g.Ratings[i], v)
		}
	}
	return g
}

// parseScenarioTag reads "scenario_<context>_<block>".
func parseScenarioTag(tag string) (domain.Context, domain.Block, bool) {
	parts := strings.Split(strings.TrimPrefix(tag, tagScenario), "_")
	if len(parts) != 2 {
		return "", "", false
	}
	block, ok := domain.ParseBlock(parts[1])
	if !ok {
		return "", "", false
	}
	switch domain.Context(parts[0]) {
	case domain.ContextCalm, domain.ContextStress, domain.ContextFlow:
		return domain.Context(parts[0]), block, true
	}
	return "", "", false
}

// StressLevel maps the mean stress self-report (1-5) onto [0,1]; no items means 0.
func StressLevel(items []float64) float64 {
	if len(items) == 0 {
		return 0
	}
	return clamp((mean(items)-1)/4, 0, 1)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func meanOr(xs []float64, def float64) float64 {
	if len(xs) == 0 {
		return def
	}
	return mean(xs)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
