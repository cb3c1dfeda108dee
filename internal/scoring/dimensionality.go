package scoring

import "prism-scoring/internal/domain"

// DimensionLevel buckets one function's facets into a level 1-4.
// Empty facets count as the model's facet default.
func DimensionLevel(p DimensionalityParams, fr FacetResponses) int {
	sum := meanOr(fr.Experiential, p.FacetDefault) +
		meanOr(fr.Normative, p.FacetDefault) +
		meanOr(fr.Situational, p.FacetDefault) +
		meanOr(fr.Temporal, p.FacetDefault)
	combined := clamp(sum/(4*p.ScaleMax), 0, 1)

	switch {
	case combined >= p.FourD:
		return 4
	case combined >= p.ThreeD:
		return 3
	case combined >= p.TwoD:
		return 2
	default:
		return 1
	}
}

// ClassifyDimensionality returns the level of every function in canonical order.
func ClassifyDimensionality(p DimensionalityParams, facets [domain.NumFunctions]FacetResponses) domain.DimensionVector {
	var out domain.DimensionVector
	for i := range facets {
		out[i] = DimensionLevel(p, facets[i])
	}
	return out
}
