package service

import (
	"strings"

	"cliniscribe/internal/domain"
)

// Match score weights mirror the identity extraction weights: name carries
// the most signal, then date of birth, then identifier.
const (
	matchNameWeight = 0.40
	matchDOBWeight  = 0.35
	matchIDWeight   = 0.25

	// MatchThreshold is the minimum score a candidate needs before it is
	// offered as a match at all.
	MatchThreshold = 0.35
)

// MatchScore scores how well an extracted identity hint fits a candidate
// patient record, in [0,1]. Missing hint fields contribute nothing.
func MatchScore(hint *domain.PatientIdentity, candidate *domain.PatientCandidate) float64 {
	score := 0.0
	if hint.Identifier != "" && strings.EqualFold(hint.Identifier, candidate.Identifier) {
		score += matchIDWeight
	}
	if hint.DateOfBirth != "" && hint.DateOfBirth == candidate.DateOfBirth {
		score += matchDOBWeight
	}
	if hint.Name != "" {
		score += matchNameWeight * nameOverlap(hint.Name, candidate.Name)
	}
	return score
}

// MatchPatient picks the strongest-scoring candidate above the threshold.
// Ties keep the earlier candidate; below-threshold scores return no match
// rather than a weak guess.
func MatchPatient(hint *domain.PatientIdentity, candidates []domain.PatientCandidate) (*domain.PatientCandidate, float64) {
	var best *domain.PatientCandidate
	bestScore := 0.0
	for i := range candidates {
		score := MatchScore(hint, &candidates[i])
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < MatchThreshold {
		return nil, 0
	}
	return best, bestScore
}

// nameOverlap is the fraction of hint name tokens present in the candidate
// name, case-insensitive. Token order does not matter: "SMITH, John" matches
// "John Smith".
func nameOverlap(hint, candidate string) float64 {
	hintTokens := nameTokens(hint)
	if len(hintTokens) == 0 {
		return 0
	}
	candidateTokens := make(map[string]bool)
	for _, t := range nameTokens(candidate) {
		candidateTokens[t] = true
	}
	matched := 0
	for _, t := range hintTokens {
		if candidateTokens[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(hintTokens))
}

func nameTokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '-'
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
