package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliniscribe/internal/domain"
)

func TestMatchScoreFullMatch(t *testing.T) {
	hint := &domain.PatientIdentity{
		Name:        "John Smith",
		DateOfBirth: "1965-03-15",
		Identifier:  "MRN-1234",
	}
	candidate := &domain.PatientCandidate{
		Name:        "John Smith",
		DateOfBirth: "1965-03-15",
		Identifier:  "mrn-1234",
	}
	assert.InDelta(t, 1.0, MatchScore(hint, candidate), 1e-9)
}

func TestMatchScoreNameOrderInsensitive(t *testing.T) {
	hint := &domain.PatientIdentity{Name: "SMITH, John"}
	candidate := &domain.PatientCandidate{Name: "John Smith"}
	assert.InDelta(t, 0.40, MatchScore(hint, candidate), 1e-9)
}

func TestMatchScorePartialName(t *testing.T) {
	hint := &domain.PatientIdentity{Name: "John Smith", DateOfBirth: "1965-03-15"}
	candidate := &domain.PatientCandidate{Name: "John Smythe", DateOfBirth: "1965-03-15"}
	// Half the name tokens match plus the date of birth.
	assert.InDelta(t, 0.35+0.20, MatchScore(hint, candidate), 1e-9)
}

func TestMatchScoreMissingHintFieldsContributeNothing(t *testing.T) {
	hint := &domain.PatientIdentity{DateOfBirth: "1965-03-15"}
	candidate := &domain.PatientCandidate{Name: "John Smith", DateOfBirth: "1965-03-15", Identifier: "MRN-1"}
	assert.InDelta(t, 0.35, MatchScore(hint, candidate), 1e-9)
}

func TestMatchPatientStrongestWins(t *testing.T) {
	hint := &domain.PatientIdentity{
		Name:        "John Smith",
		DateOfBirth: "1965-03-15",
		Identifier:  "MRN-1234",
	}
	weak := domain.PatientCandidate{ID: uuid.New(), Name: "John Smith"}
	strong := domain.PatientCandidate{
		ID: uuid.New(), Name: "John Smith", DateOfBirth: "1965-03-15", Identifier: "MRN-1234",
	}

	best, score := MatchPatient(hint, []domain.PatientCandidate{weak, strong})
	require.NotNil(t, best)
	assert.Equal(t, strong.ID, best.ID)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestMatchPatientBelowThresholdReturnsNoMatch(t *testing.T) {
	hint := &domain.PatientIdentity{Name: "John Smith"}
	candidates := []domain.PatientCandidate{
		{ID: uuid.New(), Name: "Mary Jones", DateOfBirth: "1980-01-01"},
	}
	best, score := MatchPatient(hint, candidates)
	assert.Nil(t, best)
	assert.Zero(t, score)
}

func TestMatchPatientNoCandidates(t *testing.T) {
	hint := &domain.PatientIdentity{Name: "John Smith"}
	best, _ := MatchPatient(hint, nil)
	assert.Nil(t, best)
}
