// Package sourcecheck detects clinical assertions in letter text and measures
// how many of them are covered by a resolved source anchor.
package sourcecheck

import (
	"regexp"
	"sort"
	"unicode/utf8"

	"cliniscribe/internal/anchor"
	"cliniscribe/internal/domain"
)

// DefaultThreshold requires every detected clinical statement to carry an
// anchor before a letter is considered fully sourced.
const DefaultThreshold = 100.0

// A clinical assertion is a concrete number next to a unit or vital-sign
// token. Prose without numbers is never flagged.
var statementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+(?:\.\d+)?\s?%`),
	regexp.MustCompile(`(?i)\d{2,3}\s*/\s*\d{2,3}\s*mmhg`),
	regexp.MustCompile(`(?i)\b(?:bp|blood pressure)\s*(?:of|was|is|:)?\s*\d{2,3}\s*/\s*\d{2,3}`),
	regexp.MustCompile(`(?i)\b\d{2,3}\s?(?:bpm|beats per minute)\b`),
	regexp.MustCompile(`(?i)\b(?:hr|heart rate|pulse)\s*(?:of|was|is|:)?\s*\d{2,3}\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:mg|mcg|micrograms?|milligrams?|units?)\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:mmol/l|mg/dl|umol/l|g/l|g/dl|meq/l|ng/ml|miu/l)\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?mmhg\b`),
}

// Statement is one detected clinical assertion, expanded to the sentence that
// contains it. Start/End are rune offsets into the letter text, the same
// coordinate space as anchor ranges.
type Statement struct {
	Text     string
	Start    int
	End      int
	Anchored bool
}

// Report is the outcome of a coverage check.
type Report struct {
	Statements []Statement
	Coverage   float64 // 0..100
	Valid      bool
	Unsourced  []Statement
}

// Check scans text for clinical statements and reports what fraction overlap
// a resolved anchor. Coverage is defined as 100 when no statements are
// detected: a plain prose letter is trivially fully sourced. A threshold of
// zero or below selects DefaultThreshold.
func Check(text string, anchors []domain.SourceAnchor, threshold float64) *Report {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	runes := []rune(text)

	// One statement per sentence, however many patterns hit it.
	seen := make(map[int]bool)
	var statements []Statement
	for _, re := range statementPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			pos := utf8.RuneCountInString(text[:loc[0]])
			start, end := anchor.SentenceBounds(runes, pos)
			if seen[start] {
				continue
			}
			seen[start] = true
			statements = append(statements, Statement{
				Text:  string(runes[start:end]),
				Start: start,
				End:   end,
			})
		}
	}
	sort.Slice(statements, func(i, j int) bool { return statements[i].Start < statements[j].Start })

	rep := &Report{}
	anchored := 0
	for i := range statements {
		if overlapsAny(statements[i], anchors) {
			statements[i].Anchored = true
			anchored++
		} else {
			rep.Unsourced = append(rep.Unsourced, statements[i])
		}
	}
	rep.Statements = statements

	if len(statements) == 0 {
		rep.Coverage = 100
	} else {
		rep.Coverage = 100 * float64(anchored) / float64(len(statements))
	}
	rep.Valid = rep.Coverage >= threshold
	return rep
}

func overlapsAny(s Statement, anchors []domain.SourceAnchor) bool {
	for _, a := range anchors {
		if a.Start < s.End && s.Start < a.End {
			return true
		}
	}
	return false
}
