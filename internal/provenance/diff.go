package provenance

import "cliniscribe/internal/domain"

// Diff summarizes the drift between the generated draft and the approved
// text by trimming the common prefix and suffix and counting what differs in
// between. Percent changed is relative to the draft length, capped at 100.
func Diff(before, after string) domain.DiffSummary {
	b := []rune(before)
	a := []rune(after)

	prefix := 0
	for prefix < len(b) && prefix < len(a) && b[prefix] == a[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(b)-prefix && suffix < len(a)-prefix && b[len(b)-1-suffix] == a[len(a)-1-suffix] {
		suffix++
	}

	removed := len(b) - prefix - suffix
	added := len(a) - prefix - suffix

	var percent float64
	switch {
	case removed == 0 && added == 0:
		percent = 0
	case len(b) == 0:
		percent = 100
	default:
		percent = 100 * float64(added+removed) / float64(len(b))
		if percent > 100 {
			percent = 100
		}
	}

	return domain.DiffSummary{
		CharsAdded:     added,
		CharsRemoved:   removed,
		PercentChanged: percent,
	}
}
