package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliniscribe/internal/confidence"
	"cliniscribe/internal/domain"
)

func TestParseEchoReport(t *testing.T) {
	raw := `{
		"data": {
			"study_date": "15/03/2024",
			"lvef": 55,
			"diastolic_function": "Grade I",
			"valves": {
				"aortic": {"stenosis": "moderate", "mean_gradient": 32},
				"mitral": {"stenosis": "bananas"}
			},
			"key_findings": ["moderate aortic stenosis", ""]
		},
		"confidence_scores": {
			"study_date": 0.9,
			"lvef": 0.95,
			"valves": {"aortic": {"stenosis": 0.85, "mean_gradient": 0.8}}
		}
	}`

	res, err := Parse(domain.DocTypeEcho, raw, Meta{Model: "claude-sonnet-4", Duration: 1200 * time.Millisecond})
	require.NoError(t, err)
	require.NotNil(t, res.Echo)

	assert.Equal(t, "2024-03-15", res.Echo.StudyDate.Get())
	assert.Equal(t, 55.0, res.Echo.LVEF.Get())
	assert.Equal(t, 0.95, res.Echo.LVEF.Confidence.Value)
	assert.Equal(t, "grade i", res.Echo.DiastolicFn.Get())

	require.NotNil(t, res.Echo.Valves)
	require.NotNil(t, res.Echo.Valves.Aortic)
	assert.Equal(t, "moderate", res.Echo.Valves.Aortic.Stenosis.Get())
	assert.Equal(t, 32.0, res.Echo.Valves.Aortic.MeanGradient.Get())
	// "bananas" is outside the closed grade set, so the mitral sub-record
	// has no present leaf and collapses to absent.
	assert.Nil(t, res.Echo.Valves.Mitral)
	assert.Nil(t, res.Echo.Valves.Tricuspid)

	assert.Equal(t, []string{"moderate aortic stenosis"}, res.Echo.KeyFindings)
	assert.Equal(t, "claude-sonnet-4", res.Model)
	assert.Equal(t, int64(1200), res.DurationMilli)
	assert.Contains(t, res.FieldsPresent, "lvef")
	assert.NotContains(t, res.FieldsPresent, "valves.mitral.stenosis")
	assert.Greater(t, res.Overall.Value, 0.0)
}

func TestParseEchoAllValvesAbsentCollapses(t *testing.T) {
	res, err := Parse(domain.DocTypeEcho, `{"data": {"lvef": 60}}`, Meta{})
	require.NoError(t, err)
	assert.Nil(t, res.Echo.Valves)
}

func TestParseAngiogramTIMIBounds(t *testing.T) {
	raw := `{
		"data": {
			"access_site": "radial",
			"dominance": "right",
			"vessels": {
				"lad": {"stenosis_percent": 80, "timi_flow": 2.5},
				"rca": {"timi_flow": 5},
				"circumflex": {"timi_flow": -1}
			}
		}
	}`

	res, err := Parse(domain.DocTypeAngiogram, raw, Meta{})
	require.NoError(t, err)
	require.NotNil(t, res.Angiogram)
	require.NotNil(t, res.Angiogram.Vessels)

	require.NotNil(t, res.Angiogram.Vessels.LAD)
	assert.Equal(t, 3, res.Angiogram.Vessels.LAD.TIMIFlow.Get())
	assert.Equal(t, 80.0, res.Angiogram.Vessels.LAD.StenosisPercent.Get())

	// Out-of-bound grades leave those vessels with no present leaf.
	assert.Nil(t, res.Angiogram.Vessels.RCA)
	assert.Nil(t, res.Angiogram.Vessels.Circumflex)

	assert.Equal(t, "radial", res.Angiogram.AccessSite.Get())
}

func TestParseLabResult(t *testing.T) {
	raw := `{
		"data": {
			"panel_name": "Full Blood Count",
			"collection_date": "2024-02-01",
			"tests": [
				{"name": "Haemoglobin", "value": 142, "unit": "g/L", "reference_range": "130-180", "abnormal": false},
				{"name": "Potassium", "value": "not stated"},
				{"name": "Creatinine", "value": 95, "unit": "umol/L"}
			]
		},
		"confidence_scores": {"panel_name": 0.9, "tests": 0.8}
	}`

	res, err := Parse(domain.DocTypeLab, raw, Meta{})
	require.NoError(t, err)
	require.NotNil(t, res.Lab)

	assert.Equal(t, "Full Blood Count", res.Lab.PanelName.Get())
	require.Len(t, res.Lab.Tests, 2) // Potassium has no numeric value and is dropped
	assert.Equal(t, "Haemoglobin", res.Lab.Tests[0].Name.Get())
	assert.Equal(t, 142.0, res.Lab.Tests[0].Value.Get())
	assert.False(t, res.Lab.Tests[0].Abnormal.Get())
	assert.Equal(t, "umol/L", res.Lab.Tests[1].Unit.Get())
	assert.False(t, res.Lab.Tests[1].Abnormal.Present())
}

func TestParseGenericDocument(t *testing.T) {
	raw := `{
		"data": {
			"document_date": "01.06.2020",
			"author": "Dr A Chan",
			"category": "referral",
			"summary": "Referral for chest pain workup.",
			"key_findings": ["exertional chest pain"]
		}
	}`

	res, err := Parse(domain.DocTypeReferral, raw, Meta{})
	require.NoError(t, err)
	require.NotNil(t, res.Generic)
	assert.Equal(t, "2020-06-01", res.Generic.DocumentDate.Get())
	assert.Equal(t, "referral", res.Generic.Category.Get())
	assert.False(t, res.Generic.Facility.Present())
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := Parse(domain.DocumentType("ct_scan"), `{"data": {}}`, Meta{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocumentType)
}

func TestParsePropagatesScanErrors(t *testing.T) {
	_, err := Parse(domain.DocTypeEcho, `[1,2]`, Meta{})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not an object", pe.Reason)
}

func TestCompletenessRatio(t *testing.T) {
	assert.Equal(t, 0.0, completeness(0, 10))
	assert.Equal(t, 0.1, completeness(1, 13)) // floored
	assert.Equal(t, 0.5, completeness(5, 10))
	assert.Equal(t, 1.0, completeness(20, 13)) // capped
}

func TestParseIdentityWeights(t *testing.T) {
	raw := `{
		"data": {"name": "John Citizen", "date_of_birth": "15/03/1965", "identifier": "2950 12345 1"},
		"confidence_scores": {"name": 1.0, "date_of_birth": 0.8, "identifier": 0.6}
	}`

	res, err := ParseIdentity(raw)
	require.NoError(t, err)
	assert.Equal(t, "1965-03-15", res.Fields.DateOfBirth.Get())
	assert.InDelta(t, 0.83, res.Overall.Value, 0.005)

	id := res.Identity()
	assert.Equal(t, "John Citizen", id.Name)
	assert.InDelta(t, 0.83, id.Confidence, 0.005)
}

func TestParseIdentityRenormalizesOverPresent(t *testing.T) {
	raw := `{
		"data": {"name": "John Citizen"},
		"confidence_scores": {"name": 0.8}
	}`

	res, err := ParseIdentity(raw)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Overall.Value, 1e-9)
	assert.Equal(t, confidence.LevelMedium, res.Overall.Level)
}

func TestParseIdentityNotObject(t *testing.T) {
	_, err := ParseIdentity(`["a", "b"]`)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not an object", pe.Reason)
}
