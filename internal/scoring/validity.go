package scoring

import "prism-scoring/internal/domain"

// AssessValidity is a pass-through. Attention, inconsistency and
// social-desirability indices are not computed yet; the result is marked
// Stubbed so readers can tell it apart from a measured pass.
func AssessValidity(_ []domain.Response) domain.Validity {
	return domain.Validity{Status: domain.ValidityPass, Stubbed: true}
}
