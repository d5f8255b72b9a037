package extraction

import (
	"strings"
	"time"

	"cliniscribe/internal/confidence"
	"cliniscribe/internal/domain"
)

// Confidence assumed for a present field when the model reported none.
const defaultFieldConfidence = 0.5

// Expected field counts per document type, used to derive the completeness
// ratio, a second confidence signal independent of the model's own
// self-reported scores.
var expectedFieldCounts = map[domain.DocumentType]int{
	domain.DocTypeEcho:      13,
	domain.DocTypeAngiogram: 11,
	domain.DocTypeLab:       3,
	domain.DocTypeReferral:  6,
}

// Parse turns a raw model response into a typed, confidence-scored record for
// the given document type. Field-level constraint violations become absent
// fields; only an unusable response shape returns a *ParseError.
func Parse(docType domain.DocumentType, raw string, meta Meta) (*Result, error) {
	obj, err := scanObject(raw)
	if err != nil {
		return nil, err
	}

	b := newBuilder(obj)
	res := &Result{
		DocumentType:  docType,
		Model:         meta.Model,
		ExtractedAt:   time.Now().UTC(),
		DurationMilli: meta.Duration.Milliseconds(),
	}

	switch docType {
	case domain.DocTypeEcho:
		res.Echo = parseEcho(b)
	case domain.DocTypeAngiogram:
		res.Angiogram = parseAngiogram(b)
	case domain.DocTypeLab:
		res.Lab = parseLab(b)
	case domain.DocTypeReferral:
		res.Generic = parseGeneric(b)
	default:
		return nil, domain.ErrUnsupportedDocumentType
	}

	res.Overall = confidence.Overall(b.weighted)
	res.FieldsPresent = b.present
	res.Completeness = completeness(len(b.present), expectedFieldCounts[docType])
	return res, nil
}

// completeness is extracted/expected capped at 1.0, floored at 0.1 when
// anything at all was extracted, 0 otherwise.
func completeness(extracted, expected int) float64 {
	if extracted == 0 {
		return 0
	}
	if expected <= 0 {
		return 1
	}
	ratio := float64(extracted) / float64(expected)
	if ratio > 1 {
		return 1
	}
	if ratio < 0.1 {
		return 0.1
	}
	return ratio
}

// builder walks the model envelope, pairing data values with their reported
// confidences and recording presence for the overall score. The envelope is
// {"data": {...}, "confidence_scores": {...}}; a bare object without the
// envelope is treated as data with no reported scores.
type builder struct {
	data     map[string]any
	scores   map[string]any
	present  []string
	weighted []confidence.Weighted
}

func newBuilder(obj map[string]any) *builder {
	b := &builder{data: obj}
	if d, ok := obj["data"].(map[string]any); ok {
		b.data = d
		if s, ok := obj["confidence_scores"].(map[string]any); ok {
			b.scores = s
		}
	}
	return b
}

// lookup resolves a dot-separated path within the data object.
func lookupPath(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[p]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func (b *builder) value(path string) (any, bool) {
	return lookupPath(b.data, path)
}

func (b *builder) conf(path string) float64 {
	if b.scores == nil {
		return defaultFieldConfidence
	}
	v, ok := lookupPath(b.scores, path)
	if !ok {
		return defaultFieldConfidence
	}
	f, ok := asNumber(v)
	if !ok {
		return defaultFieldConfidence
	}
	return confidence.Clamp(f)
}

func (b *builder) record(path string, weight, conf float64, present bool) {
	if present {
		b.present = append(b.present, path)
	}
	b.weighted = append(b.weighted, confidence.Weighted{
		Weight:     weight,
		Confidence: conf,
		Present:    present,
	})
}

func (b *builder) strField(path string, weight float64) Field[string] {
	v, ok := b.value(path)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[string]()
	}
	s, ok := asString(v)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[string]()
	}
	c := b.conf(path)
	b.record(path, weight, c, true)
	return newField(s, c)
}

func (b *builder) numField(path string, weight float64) Field[float64] {
	v, ok := b.value(path)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[float64]()
	}
	f, ok := asNumber(v)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[float64]()
	}
	c := b.conf(path)
	b.record(path, weight, c, true)
	return newField(f, c)
}

func (b *builder) dateField(path string, weight float64) Field[string] {
	v, ok := b.value(path)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[string]()
	}
	s, ok := normalizeDate(v)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[string]()
	}
	c := b.conf(path)
	b.record(path, weight, c, true)
	return newField(s, c)
}

func (b *builder) enumField(path string, weight float64, allowed []string) Field[string] {
	v, ok := b.value(path)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[string]()
	}
	s, ok := enumValue(v, allowed)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[string]()
	}
	c := b.conf(path)
	b.record(path, weight, c, true)
	return newField(s, c)
}

func (b *builder) boundedIntField(path string, weight float64, min, max int) Field[int] {
	v, ok := b.value(path)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[int]()
	}
	n, ok := boundedInt(v, min, max)
	if !ok {
		b.record(path, weight, 0, false)
		return absent[int]()
	}
	c := b.conf(path)
	b.record(path, weight, c, true)
	return newField(n, c)
}

func (b *builder) stringsField(path string, weight float64) []string {
	v, ok := b.value(path)
	if !ok {
		b.record(path, weight, 0, false)
		return nil
	}
	out := stringArray(v)
	if len(out) == 0 {
		b.record(path, weight, 0, false)
		return nil
	}
	c := b.conf(path)
	b.record(path, weight, c, true)
	return out
}
