package provenance

import (
	"fmt"
	"strings"
	"time"

	"cliniscribe/internal/domain"
)

const reportRule = "================================================================"

// Render formats a provenance record as a fixed-section plain-text report.
// It is a pure function of the record: the same record always renders to the
// same bytes.
func Render(rec *domain.ProvenanceRecord) string {
	var b strings.Builder

	// Header
	b.WriteString(reportRule + "\n")
	b.WriteString("LETTER PROVENANCE REPORT\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "Record:    %s\n", rec.ID)
	fmt.Fprintf(&b, "Letter:    %s\n", rec.LetterID)
	fmt.Fprintf(&b, "Created:   %s\n", rec.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Hash:      sha256:%s\n", rec.ContentHash)

	// AI models
	b.WriteString("\nAI MODELS\n")
	fmt.Fprintf(&b, "  Generation: %s\n", orNone(rec.GenerationModel))
	if len(rec.ExtractionModels) == 0 {
		b.WriteString("  Extraction: (none)\n")
	} else {
		fmt.Fprintf(&b, "  Extraction: %s\n", strings.Join(rec.ExtractionModels, ", "))
	}

	// Source materials
	b.WriteString("\nSOURCE MATERIALS\n")
	if len(rec.Sources) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, s := range rec.Sources {
		fmt.Fprintf(&b, "  [%s] %s (%s)\n", s.SourceType, s.Name, s.SourceID)
	}

	// Clinical values
	b.WriteString("\nCLINICAL VALUES\n")
	if len(rec.Values) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, v := range rec.Values {
		marker := "[ ]"
		if v.Verified {
			marker = "[x]"
		}
		line := fmt.Sprintf("  %s %s: %s", marker, v.Name, v.Value)
		if v.Unit != "" {
			line += " " + v.Unit
		}
		if v.Critical {
			line += " (critical)"
		}
		b.WriteString(line + "\n")
	}

	// Hallucination check
	b.WriteString("\nHALLUCINATION CHECK\n")
	if len(rec.Flags) == 0 {
		b.WriteString("  No flags raised.\n")
	}
	for _, f := range rec.Flags {
		status := "OPEN"
		if f.Dismissed {
			status = "dismissed: " + f.DismissedReason
		}
		fmt.Fprintf(&b, "  [%s] %q (%s)\n", f.Severity, f.FlaggedText, status)
	}

	// Review process
	b.WriteString("\nREVIEW PROCESS\n")
	fmt.Fprintf(&b, "  Approved by:     %s\n", orNone(rec.ApprovedBy))
	fmt.Fprintf(&b, "  Review time:     %s\n", millisDuration(rec.ReviewMillis))
	fmt.Fprintf(&b, "  Edits:           %d\n", len(rec.Edits))
	fmt.Fprintf(&b, "  Content changed: %.1f%% (+%d/-%d chars)\n",
		rec.Diff.PercentChanged, rec.Diff.CharsAdded, rec.Diff.CharsRemoved)

	// Quality metrics
	b.WriteString("\nQUALITY METRICS\n")
	fmt.Fprintf(&b, "  Verification rate:  %.0f%%\n", rec.VerificationRate*100)
	fmt.Fprintf(&b, "  Source coverage:    %.0f%%\n", rec.SourceCoverage)
	fmt.Fprintf(&b, "  Hallucination risk: %.2f\n", rec.HallucinationRisk)
	fmt.Fprintf(&b, "  Tokens:             %d in / %d out\n", rec.InputTokens, rec.OutputTokens)
	fmt.Fprintf(&b, "  Generation time:    %s\n", millisDuration(rec.GenerationMillis))

	// Footer
	b.WriteString("\n" + reportRule + "\n")
	b.WriteString("This record is immutable. Verify integrity by recomputing the\n")
	b.WriteString("content hash over the canonical record serialization.\n")
	b.WriteString(reportRule + "\n")

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func millisDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
