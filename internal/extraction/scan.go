package extraction

import (
	"encoding/json"
	"strings"
)

// scanObject locates the first well-formed JSON object in a raw model
// response. Code fences are stripped first, then the scan skips leading prose.
// A response containing no object literal yields "no object found"; a response
// whose first JSON value is an array or scalar yields "not an object"; the
// two failures are deliberately distinct.
func scanObject(raw string) (map[string]any, error) {
	text := stripCodeFences(raw)

	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")

	// An array opening before any object means the model returned a
	// top-level list.
	if arrIdx >= 0 && (objIdx < 0 || arrIdx < objIdx) {
		if v, ok := decodeValueAt(text, arrIdx); ok {
			if _, isArr := v.([]any); isArr {
				return nil, NewParseError(reasonNotObject)
			}
		}
	}

	for i := objIdx; i >= 0; i = nextBrace(text, i) {
		if v, ok := decodeValueAt(text, i); ok {
			if m, isMap := v.(map[string]any); isMap {
				return m, nil
			}
		}
	}

	// No structural characters at all: a bare scalar response is still a
	// well-formed JSON value, just not an object.
	if objIdx < 0 && arrIdx < 0 {
		if v, ok := decodeValueAt(strings.TrimSpace(text), 0); ok && v != nil {
			return nil, NewParseError(reasonNotObject)
		}
	}

	return nil, NewParseError(reasonNoObject)
}

// stripCodeFences removes markdown fence lines so a model wrapping its output
// in ```json ... ``` still parses. Non-fence lines are preserved verbatim.
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// decodeValueAt decodes a single JSON value starting at offset i. Numbers are
// kept as json.Number so later normalization controls the conversion.
func decodeValueAt(text string, i int) (any, bool) {
	if i < 0 || i >= len(text) {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(text[i:]))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func nextBrace(text string, after int) int {
	rel := strings.Index(text[after+1:], "{")
	if rel < 0 {
		return -1
	}
	return after + 1 + rel
}
