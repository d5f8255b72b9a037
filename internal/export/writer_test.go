package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliniscribe/internal/domain"
)

func testLetter() *domain.Letter {
	approvedAt := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	return &domain.Letter{
		ID:         uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Title:      "Clinic letter",
		Status:     domain.LetterStatusApproved,
		ApprovedBy: "dr.jones",
		ApprovedAt: &approvedAt,
		Values: []domain.VerifiableValue{
			{ID: "v1", Category: "measurement", Name: "LVEF", Value: "55", Unit: "%", Verified: true, Critical: true},
			{ID: "v2", Category: "measurement", Name: "RVSP", Value: "28", Unit: "mmHg"},
		},
		Flags: []domain.HallucinationFlag{
			{ID: "f1", FlaggedText: "mean gradient 45 mmHg", Severity: domain.FlagSeverityCritical, Dismissed: true, DismissedReason: "checked against echo"},
		},
	}
}

func TestWriteLetterLedger(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteLetter(testLetter()))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header + 2 values + 1 flag")

	assert.Equal(t, "Letter ID", records[0][0])

	verified := records[1]
	assert.Equal(t, "value", verified[2])
	assert.Equal(t, "LVEF", verified[5])
	assert.Equal(t, "critical", verified[8])
	assert.Equal(t, "verified", verified[9])

	unverified := records[2]
	assert.Equal(t, "RVSP", unverified[5])
	assert.Equal(t, "unverified", unverified[9])

	flag := records[3]
	assert.Equal(t, "flag", flag[2])
	assert.Equal(t, "mean gradient 45 mmHg", flag[6])
	assert.Equal(t, "dismissed", flag[9])
	assert.Equal(t, "checked against echo", flag[10])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Clinic_letter_Smith", SanitizeFilename("Clinic letter (Smith)"))
	assert.Equal(t, "a_b", SanitizeFilename("a///b"))
	assert.Equal(t, "x", SanitizeFilename("__x__"))
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename("Clinic letter")
	assert.Contains(t, name, "Clinic_letter_")
	assert.Contains(t, name, ".csv")
}
