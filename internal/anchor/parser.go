package anchor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

const (
	markerOpen  = "[[src:"
	markerSep   = "|"
	markerClose = "]]"
)

// ParseResult is the outcome of scanning a letter draft for citation markers.
// CleanText is the draft with every marker removed and all other characters
// preserved exactly; with zero markers it equals the input. Unverified holds
// markers whose sourceId matched nothing; they are retained because a
// claimed-but-missing source is itself diagnostic.
type ParseResult struct {
	CleanText  string
	Anchors    []domain.SourceAnchor
	Unverified []domain.SourceAnchor
}

// Parse scans text left to right, strips markers, and resolves each against
// the registry. Anchor ranges are the sentence containing the marker, in rune
// offsets into CleanText, so they share a coordinate space with statement
// detection.
func Parse(text string, registry port.SourceRegistry) *ParseResult {
	res := &ParseResult{}

	type rawMarker struct {
		cleanPos int // rune offset in CleanText where the marker sat
		sourceID string
		excerpt  string
	}
	var markers []rawMarker

	var clean strings.Builder
	cleanRunes := 0
	rest := text
	for {
		open := strings.Index(rest, markerOpen)
		if open < 0 {
			clean.WriteString(rest)
			break
		}
		closeIdx := strings.Index(rest[open:], markerClose)
		if closeIdx < 0 {
			clean.WriteString(rest)
			break
		}
		closeIdx += open

		body := rest[open+len(markerOpen) : closeIdx]
		sep := strings.Index(body, markerSep)

		clean.WriteString(rest[:open])
		cleanRunes += utf8.RuneCountInString(rest[:open])

		if sep >= 0 {
			markers = append(markers, rawMarker{
				cleanPos: cleanRunes,
				sourceID: strings.TrimSpace(body[:sep]),
				excerpt:  strings.TrimSpace(body[sep+len(markerSep):]),
			})
		}
		// A malformed marker (no separator) is still stripped from display.

		rest = rest[closeIdx+len(markerClose):]
	}
	res.CleanText = clean.String()

	cleanRuneSlice := []rune(res.CleanText)
	for i, m := range markers {
		start, end := SentenceBounds(cleanRuneSlice, anchorPos(cleanRuneSlice, m.cleanPos))
		a := domain.SourceAnchor{
			ID:       fmt.Sprintf("anchor-%d", i+1),
			Start:    start,
			End:      end,
			SourceID: m.sourceID,
			Excerpt:  m.excerpt,
		}
		if src, ok := registry.Lookup(m.sourceID); ok {
			a.SourceType = src.Type
			a.Confidence = lexicalOverlap(m.excerpt, src.Text)
			res.Anchors = append(res.Anchors, a)
		} else {
			res.Unverified = append(res.Unverified, a)
		}
	}
	return res
}

// anchorPos maps a marker's position to a position inside the sentence it
// cites. Markers conventionally follow the sentence terminator, so a marker
// sitting just past ". " steps back onto the terminator of the previous
// sentence; a mid-sentence marker stays where it is.
func anchorPos(runes []rune, pos int) int {
	if pos > len(runes) {
		pos = len(runes)
	}
	for pos > 0 && (runes[pos-1] == ' ' || runes[pos-1] == '\t') {
		pos--
	}
	if pos > 0 && isSentenceBreak(runes[pos-1]) {
		pos--
	}
	return pos
}

// SentenceBounds returns the [start, end) rune span of the sentence
// containing pos. End is always greater than start for non-empty text.
func SentenceBounds(runes []rune, pos int) (int, int) {
	n := len(runes)
	if n == 0 {
		return 0, 0
	}
	if pos > n {
		pos = n
	}

	start := pos
	for start > 0 && !isSentenceBreak(runes[start-1]) {
		start--
	}
	for start < n && (runes[start] == ' ' || runes[start] == '\t') {
		start++
	}

	end := pos
	for end < n && !isSentenceBreak(runes[end]) {
		end++
	}
	if end < n {
		end++ // include the terminator
	}

	if end <= start {
		// Marker sat on a boundary; fall back to the single rune before it.
		start = pos - 1
		if start < 0 {
			start = 0
		}
		end = start + 1
	}
	return start, end
}

func isSentenceBreak(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// lexicalOverlap scores how well an excerpt is supported by a source text:
// 1.0 for substring containment, otherwise the fraction of excerpt words
// present in the source. No sub-lexical fuzzy matching.
func lexicalOverlap(excerpt, source string) float64 {
	e := normalizeSpace(strings.ToLower(excerpt))
	s := normalizeSpace(strings.ToLower(source))
	if e == "" {
		return 0
	}
	if strings.Contains(s, e) {
		return 1.0
	}

	sourceWords := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		sourceWords[strings.Trim(w, ".,;:()")] = true
	}
	words := strings.Fields(e)
	matched := 0
	for _, w := range words {
		if sourceWords[strings.Trim(w, ".,;:()")] {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
