package extraction

import (
	"fmt"

	"cliniscribe/internal/domain"
)

const promptPreamble = `You are a clinical document data extraction assistant. Analyze the provided document text and extract the requested data.

IMPORTANT INSTRUCTIONS:
- Extract only what the document states. Never infer or invent values.
- Normalize all dates to YYYY-MM-DD.
- For every extracted field, report your confidence between 0.0 and 1.0.
- Omit fields the document does not state; do not emit placeholder values.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation, just the raw JSON object.

Return two top-level keys: "data" and "confidence_scores". The "confidence_scores" object mirrors the paths of "data" with a number per field.
`

var dataSchemas = map[domain.DocumentType]string{
	domain.DocTypeEcho: `{
  "study_date": "",
  "lvef": 0,
  "lvidd": 0,
  "la_diameter": 0,
  "rvsp": 0,
  "diastolic_function": "normal|grade i|grade ii|grade iii|indeterminate",
  "pericardium": "",
  "valves": {
    "aortic":    {"stenosis": "none|trivial|mild|moderate|severe", "regurgitation": "", "mean_gradient": 0},
    "mitral":    {"stenosis": "", "regurgitation": "", "mean_gradient": 0},
    "tricuspid": {"stenosis": "", "regurgitation": "", "mean_gradient": 0},
    "pulmonary": {"stenosis": "", "regurgitation": "", "mean_gradient": 0}
  },
  "key_findings": [""]
}`,
	domain.DocTypeAngiogram: `{
  "study_date": "",
  "access_site": "radial|femoral|brachial",
  "dominance": "right|left|codominant",
  "vessels": {
    "left_main":  {"stenosis_percent": 0, "timi_flow": 0},
    "lad":        {"stenosis_percent": 0, "timi_flow": 0},
    "circumflex": {"stenosis_percent": 0, "timi_flow": 0},
    "rca":        {"stenosis_percent": 0, "timi_flow": 0}
  },
  "key_findings": [""]
}`,
	domain.DocTypeLab: `{
  "panel_name": "",
  "collection_date": "",
  "tests": [
    {"name": "", "value": 0, "unit": "", "reference_range": "", "abnormal": false}
  ]
}`,
	domain.DocTypeReferral: `{
  "document_date": "",
  "author": "",
  "facility": "",
  "category": "referral|discharge_summary|progress_note|correspondence|other",
  "summary": "",
  "key_findings": [""]
}`,
}

// BuildPrompt returns the extraction prompt for a document type with the raw
// document content embedded.
func BuildPrompt(docType domain.DocumentType, content string) string {
	schema, ok := dataSchemas[docType]
	if !ok {
		schema = dataSchemas[domain.DocTypeReferral]
	}
	return fmt.Sprintf("%s\nThe \"data\" object must follow this schema:\n%s\n\nDOCUMENT TEXT:\n%s", promptPreamble, schema, content)
}

// BuildIdentityPrompt returns the fast identity-only extraction prompt.
func BuildIdentityPrompt(content string) string {
	return fmt.Sprintf(`%s
The "data" object must follow this schema:
{
  "name": "",
  "date_of_birth": "",
  "identifier": ""
}

"identifier" is the patient's Medicare number or medical record number, whichever the document states.

DOCUMENT TEXT:
%s`, promptPreamble, content)
}
