package extraction

import (
	"time"

	"cliniscribe/internal/confidence"
	"cliniscribe/internal/domain"
)

// Severity grades accepted for valve findings.
var valveGrades = []string{"none", "trivial", "mild", "moderate", "severe"}

// ValveAssessment holds one valve's findings. A ValveAssessment with every
// field absent collapses to a nil pointer in EchoValves.
type ValveAssessment struct {
	Stenosis      Field[string]  `json:"stenosis"`
	Regurgitation Field[string]  `json:"regurgitation"`
	MeanGradient  Field[float64] `json:"mean_gradient"`
}

func (v *ValveAssessment) empty() bool {
	return !v.Stenosis.Present() && !v.Regurgitation.Present() && !v.MeanGradient.Present()
}

// EchoValves groups per-valve findings. Absent valves are nil, not empty
// records.
type EchoValves struct {
	Aortic    *ValveAssessment `json:"aortic,omitempty"`
	Mitral    *ValveAssessment `json:"mitral,omitempty"`
	Tricuspid *ValveAssessment `json:"tricuspid,omitempty"`
	Pulmonary *ValveAssessment `json:"pulmonary,omitempty"`
}

// EchoReport is the typed extraction of an echocardiogram report.
type EchoReport struct {
	StudyDate    Field[string]  `json:"study_date"`
	LVEF         Field[float64] `json:"lvef"`
	LVIDd        Field[float64] `json:"lvidd"`
	LADiameter   Field[float64] `json:"la_diameter"`
	RVSP         Field[float64] `json:"rvsp"`
	DiastolicFn  Field[string]  `json:"diastolic_function"`
	Pericardium  Field[string]  `json:"pericardium"`
	Valves       *EchoValves    `json:"valves,omitempty"`
	KeyFindings  []string       `json:"key_findings,omitempty"`
}

// VesselFinding holds one coronary vessel's findings. TIMI flow is a bounded
// 0–3 grade.
type VesselFinding struct {
	StenosisPercent Field[float64] `json:"stenosis_percent"`
	TIMIFlow        Field[int]     `json:"timi_flow"`
}

func (v *VesselFinding) empty() bool {
	return !v.StenosisPercent.Present() && !v.TIMIFlow.Present()
}

// AngiogramVessels groups per-vessel findings.
type AngiogramVessels struct {
	LeftMain   *VesselFinding `json:"left_main,omitempty"`
	LAD        *VesselFinding `json:"lad,omitempty"`
	Circumflex *VesselFinding `json:"circumflex,omitempty"`
	RCA        *VesselFinding `json:"rca,omitempty"`
}

// AngiogramReport is the typed extraction of an angiogram or catheterization
// report.
type AngiogramReport struct {
	StudyDate   Field[string]     `json:"study_date"`
	AccessSite  Field[string]     `json:"access_site"`
	Dominance   Field[string]     `json:"dominance"`
	Vessels     *AngiogramVessels `json:"vessels,omitempty"`
	KeyFindings []string          `json:"key_findings,omitempty"`
}

// LabTest is one analyte result within a laboratory panel.
type LabTest struct {
	Name           Field[string]  `json:"name"`
	Value          Field[float64] `json:"value"`
	Unit           Field[string]  `json:"unit"`
	ReferenceRange Field[string]  `json:"reference_range"`
	Abnormal       Field[bool]    `json:"abnormal"`
}

// LabResult is the typed extraction of a laboratory report.
type LabResult struct {
	PanelName      Field[string] `json:"panel_name"`
	CollectionDate Field[string] `json:"collection_date"`
	Tests          []LabTest     `json:"tests,omitempty"`
}

// GenericDocument is the typed extraction for referral letters and any other
// document without a dedicated parser.
type GenericDocument struct {
	DocumentDate Field[string] `json:"document_date"`
	Author       Field[string] `json:"author"`
	Facility     Field[string] `json:"facility"`
	Category     Field[string] `json:"category"`
	Summary      Field[string] `json:"summary"`
	KeyFindings  []string      `json:"key_findings,omitempty"`
}

// IdentityExtraction is the fast identity-only extraction: just enough to
// match a document against an existing patient record.
type IdentityExtraction struct {
	Name        Field[string] `json:"name"`
	DateOfBirth Field[string] `json:"date_of_birth"`
	Identifier  Field[string] `json:"identifier"`
}

// Result is the tagged outcome of one extraction: exactly one of the record
// pointers is set, matching DocumentType.
type Result struct {
	DocumentType  domain.DocumentType `json:"document_type"`
	Echo          *EchoReport         `json:"echo,omitempty"`
	Angiogram     *AngiogramReport    `json:"angiogram,omitempty"`
	Lab           *LabResult          `json:"lab,omitempty"`
	Generic       *GenericDocument    `json:"generic,omitempty"`
	Overall       confidence.Score    `json:"overall"`
	Completeness  float64             `json:"completeness"`
	FieldsPresent []string            `json:"fields_present"`
	Model         string              `json:"model"`
	ExtractedAt   time.Time           `json:"extracted_at"`
	DurationMilli int64               `json:"duration_ms"`
}

// Meta carries caller context attached to every result.
type Meta struct {
	Model    string
	Duration time.Duration
}
