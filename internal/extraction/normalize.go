package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value normalization for noisy model output. Every helper yields
// (value, false) rather than an error: a field that violates its domain
// constraint becomes absent and never fails the parse.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// asNumber accepts JSON numbers and numeric strings. Non-numeric strings are
// rejected, not coerced to a fallback value.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}

// normalizeDate accepts ISO dates directly and rewrites DD/MM/YYYY,
// DD-MM-YYYY and DD.MM.YYYY to canonical YYYY-MM-DD. Any other shape is
// rejected rather than guessed.
func normalizeDate(v any) (string, bool) {
	s, ok := asString(v)
	if !ok {
		return "", false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), true
	}
	for _, layout := range []string{"02/01/2006", "02-01-2006", "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// boundedInt rounds to the nearest integer and rejects values outside the
// closed bound [min, max].
func boundedInt(v any, min, max int) (int, bool) {
	f, ok := asNumber(v)
	if !ok {
		return 0, false
	}
	n := int(math.Round(f))
	if n < min || n > max {
		return 0, false
	}
	return n, true
}

// enumValue accepts only members of a closed literal set (case-insensitive).
func enumValue(v any, allowed []string) (string, bool) {
	s, ok := asString(v)
	if !ok {
		return "", false
	}
	s = strings.ToLower(s)
	for _, a := range allowed {
		if s == a {
			return a, true
		}
	}
	return "", false
}

// stringArray keeps only non-empty string entries.
func stringArray(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := asString(it); ok {
			out = append(out, s)
		}
	}
	return out
}

// formatNumber renders an extracted number the way it will be shown to a
// reviewer: trailing zeros trimmed, no exponent form.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%g", f)
}
