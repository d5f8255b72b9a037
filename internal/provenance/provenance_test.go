package provenance

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliniscribe/internal/domain"
)

func fixedRecord() *domain.ProvenanceRecord {
	return &domain.ProvenanceRecord{
		ID:              uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		LetterID:        uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		GenerationModel: "claude-sonnet-4-20250514",
		ExtractionModels: []string{
			"claude-3-5-haiku-20241022",
			"claude-sonnet-4-20250514",
		},
		Sources: []domain.SourceRef{
			{SourceID: "doc-1", SourceType: domain.SourceTypeDocument, Name: "Echo report"},
		},
		Values: []domain.VerifiableValue{
			{ID: "v1", Category: "measurement", Name: "LVEF", Value: "55", Unit: "%", Verified: true, Critical: true},
			{ID: "v2", Category: "measurement", Name: "RVSP", Value: "28", Unit: "mmHg"},
		},
		Flags: []domain.HallucinationFlag{
			{ID: "f1", FlaggedText: "mean gradient 45 mmHg", Severity: domain.FlagSeverityCritical, Dismissed: true, DismissedReason: "checked against echo"},
		},
		Diff:              domain.DiffSummary{CharsAdded: 12, CharsRemoved: 4, PercentChanged: 1.6},
		VerificationRate:  0.5,
		SourceCoverage:    100,
		HallucinationRisk: 0.075,
		InputTokens:       1800,
		OutputTokens:      650,
		GenerationMillis:  4200,
		ReviewMillis:      183000,
		ApprovedBy:        "dr.jones",
		CreatedAt:         time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestContentHashIsStable(t *testing.T) {
	rec := fixedRecord()
	h1, err := ContentHash(rec)
	require.NoError(t, err)
	h2, err := ContentHash(rec)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "hex-encoded sha256")
}

func TestContentHashIgnoresStoredHash(t *testing.T) {
	rec := fixedRecord()
	h1, err := ContentHash(rec)
	require.NoError(t, err)

	rec.ContentHash = h1
	h2, err := ContentHash(rec)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "hash is computed with the hash field blanked")
}

func TestContentHashSensitiveToContent(t *testing.T) {
	rec := fixedRecord()
	h1, err := ContentHash(rec)
	require.NoError(t, err)

	rec.Values[0].Value = "54"
	h2, err := ContentHash(rec)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	b, err := CanonicalJSON(map[string]any{"zeta": 1, "alpha": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"zeta":1}`, string(b))
}

func TestCanonicalJSONPreservesNumericText(t *testing.T) {
	b, err := CanonicalJSON(map[string]any{"rate": 0.5, "tokens": 1800})
	require.NoError(t, err)
	assert.Equal(t, `{"rate":0.5,"tokens":1800}`, string(b))
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name           string
		before, after  string
		added, removed int
		percent        float64
	}{
		{"unchanged", "same text", "same text", 0, 0, 0},
		{"pure insertion", "Dear Dr Smith.", "Dear Dr John Smith.", 5, 0, 100.0 * 5 / 14},
		{"pure deletion", "Dear Dr John Smith.", "Dear Dr Smith.", 0, 5, 100.0 * 5 / 19},
		{"replacement", "LVEF 55%", "LVEF 54%", 1, 1, 25},
		{"from empty", "", "new text", 8, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.before, tt.after)
			assert.Equal(t, tt.added, d.CharsAdded)
			assert.Equal(t, tt.removed, d.CharsRemoved)
			assert.InDelta(t, tt.percent, d.PercentChanged, 0.01)
		})
	}
}

func TestRiskScore(t *testing.T) {
	assert.Equal(t, 0.0, RiskScore(nil, 100))

	// Coverage gap alone.
	assert.InDelta(t, 0.2, RiskScore(nil, 50), 1e-9)

	open := []domain.HallucinationFlag{
		{ID: "f1", Severity: domain.FlagSeverityCritical},
		{ID: "f2", Severity: domain.FlagSeverityWarning},
	}
	assert.InDelta(t, 0.4, RiskScore(open, 100), 1e-9)

	dismissed := []domain.HallucinationFlag{
		{ID: "f1", Severity: domain.FlagSeverityCritical, Dismissed: true},
	}
	assert.InDelta(t, 0.075, RiskScore(dismissed, 100), 1e-9)

	// Many open criticals saturate at 1.
	many := make([]domain.HallucinationFlag, 10)
	for i := range many {
		many[i] = domain.HallucinationFlag{Severity: domain.FlagSeverityCritical}
	}
	assert.Equal(t, 1.0, RiskScore(many, 0))
}

func TestBuildSealsRecord(t *testing.T) {
	letter := &domain.Letter{
		ID:               uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		GenerationModel:  "claude-sonnet-4-20250514",
		OriginalContent:  "The LVEF was 55%.",
		CleanContent:     "The LVEF was 54%.",
		InputTokens:      1800,
		OutputTokens:     650,
		GenerationMillis: 4200,
	}
	rec, err := Build(BuildInput{
		Letter:           letter,
		ExtractionModels: []string{"claude-sonnet-4-20250514", "claude-3-5-haiku-20241022"},
		VerificationRate: 1,
		SourceCoverage:   100,
		ApprovedBy:       "dr.jones",
		Now:              time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, letter.ID, rec.LetterID)
	assert.NotEmpty(t, rec.ContentHash)
	assert.Equal(t, []string{"claude-3-5-haiku-20241022", "claude-sonnet-4-20250514"},
		rec.ExtractionModels, "models are sorted for stable serialization")
	assert.Equal(t, 1, rec.Diff.CharsAdded)
	assert.Equal(t, 1, rec.Diff.CharsRemoved)

	// The stored hash verifies against the record.
	recomputed, err := ContentHash(rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ContentHash, recomputed)
}

func TestBuildNilLetter(t *testing.T) {
	_, err := Build(BuildInput{})
	assert.Error(t, err)
}

func TestRenderIsDeterministic(t *testing.T) {
	rec := fixedRecord()
	r1 := Render(rec)
	r2 := Render(rec)
	assert.Equal(t, r1, r2)
}

func TestRenderSections(t *testing.T) {
	out := Render(fixedRecord())

	for _, section := range []string{
		"LETTER PROVENANCE REPORT",
		"AI MODELS",
		"SOURCE MATERIALS",
		"CLINICAL VALUES",
		"HALLUCINATION CHECK",
		"REVIEW PROCESS",
		"QUALITY METRICS",
	} {
		assert.Contains(t, out, section)
	}

	assert.Contains(t, out, "[x] LVEF: 55 % (critical)")
	assert.Contains(t, out, "[ ] RVSP: 28 mmHg")
	assert.Contains(t, out, "dismissed: checked against echo")
	assert.Contains(t, out, "Verification rate:  50%")
	assert.True(t, strings.Contains(out, "sha256:"))
}
