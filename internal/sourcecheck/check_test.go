package sourcecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliniscribe/internal/domain"
)

func TestCheckPlainProseIsVacuouslyValid(t *testing.T) {
	rep := Check("Thank you for referring this pleasant patient. He is doing well.", nil, 0)
	assert.Empty(t, rep.Statements)
	assert.Equal(t, 100.0, rep.Coverage)
	assert.True(t, rep.Valid)
	assert.Empty(t, rep.Unsourced)
}

func TestCheckUnanchoredStatementFails(t *testing.T) {
	text := "The LVEF was 55%. Otherwise unremarkable."
	rep := Check(text, nil, 0)

	require.Len(t, rep.Statements, 1)
	assert.Equal(t, 0.0, rep.Coverage)
	assert.False(t, rep.Valid)
	require.Len(t, rep.Unsourced, 1)
	assert.Contains(t, rep.Unsourced[0].Text, "LVEF was 55%")
}

func TestCheckAnchoredStatementPasses(t *testing.T) {
	text := "The LVEF was 55%. Otherwise unremarkable."
	anchors := []domain.SourceAnchor{
		{ID: "anchor-1", Start: 0, End: 17, SourceID: "doc-echo"},
	}
	rep := Check(text, anchors, 0)

	require.Len(t, rep.Statements, 1)
	assert.True(t, rep.Statements[0].Anchored)
	assert.Equal(t, 100.0, rep.Coverage)
	assert.True(t, rep.Valid)
	assert.Empty(t, rep.Unsourced)
}

func TestCheckPartialCoverageAgainstThreshold(t *testing.T) {
	text := "Blood pressure was 120/80. Heart rate was 72 bpm."
	anchors := []domain.SourceAnchor{
		{ID: "anchor-1", Start: 0, End: 26, SourceID: "transcript-1"},
	}

	rep := Check(text, anchors, 0)
	require.Len(t, rep.Statements, 2)
	assert.Equal(t, 50.0, rep.Coverage)
	assert.False(t, rep.Valid, "default threshold requires full coverage")
	require.Len(t, rep.Unsourced, 1)
	assert.Contains(t, rep.Unsourced[0].Text, "72 bpm")

	relaxed := Check(text, anchors, 50)
	assert.True(t, relaxed.Valid)
}

func TestCheckOneStatementPerSentence(t *testing.T) {
	// Percentage, dose, and lab unit in the same sentence count once.
	text := "HbA1c was 6.5% on metformin 500 mg with creatinine 90 umol/L."
	rep := Check(text, nil, 0)
	assert.Len(t, rep.Statements, 1)
}

func TestCheckDatesAreNotBloodPressure(t *testing.T) {
	rep := Check("Seen in clinic on 15/03/2024 for routine review.", nil, 0)
	assert.Empty(t, rep.Statements)
	assert.True(t, rep.Valid)
}

func TestCheckDetectsVitalSignPhrases(t *testing.T) {
	text := "BP 135/85 today. Pulse was 68 and regular. Mean gradient 32 mmHg on echo."
	rep := Check(text, nil, 0)
	assert.Len(t, rep.Statements, 3)
	assert.Equal(t, 0.0, rep.Coverage)
}
