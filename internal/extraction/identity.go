package extraction

import (
	"cliniscribe/internal/confidence"
	"cliniscribe/internal/domain"
)

// Identity field weights. A policy choice, not a derived quantity: tune here.
const (
	identityNameWeight = 0.40
	identityDOBWeight  = 0.35
	identityIDWeight   = 0.25
)

// IdentityResult is the outcome of the fast identity-only extraction.
type IdentityResult struct {
	Fields  IdentityExtraction `json:"fields"`
	Overall confidence.Score   `json:"overall"`
}

// ParseIdentity extracts just name, date of birth and patient identifier from
// a raw model response. It runs as a best-effort side pipeline: the caller
// absorbs its errors rather than failing the main extraction.
func ParseIdentity(raw string) (*IdentityResult, error) {
	obj, err := scanObject(raw)
	if err != nil {
		return nil, err
	}

	b := newBuilder(obj)
	res := &IdentityResult{
		Fields: IdentityExtraction{
			Name:        b.strField("name", identityNameWeight),
			DateOfBirth: b.dateField("date_of_birth", identityDOBWeight),
			Identifier:  b.strField("identifier", identityIDWeight),
		},
	}
	res.Overall = confidence.Overall(b.weighted)
	return res, nil
}

// Identity converts the extraction into the domain hint handed to patient
// matching.
func (r *IdentityResult) Identity() domain.PatientIdentity {
	return domain.PatientIdentity{
		Name:        r.Fields.Name.Get(),
		DateOfBirth: r.Fields.DateOfBirth.Get(),
		Identifier:  r.Fields.Identifier.Get(),
		Confidence:  r.Overall.Value,
	}
}
