// Package export renders a letter's verification ledger as CSV for audit
// download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"cliniscribe/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first for Excel compatibility on
// Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var columns = []string{
	"Letter ID",
	"Letter Title",
	"Item Type",
	"Item ID",
	"Category",
	"Name",
	"Value",
	"Unit",
	"Severity",
	"Status",
	"Detail",
	"Letter Status",
	"Approved By",
	"Approved At",
}

// Writer streams verification-ledger rows for one or more letters.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteLetter writes one row per verifiable value and one per hallucination
// flag.
func (w *Writer) WriteLetter(letter *domain.Letter) error {
	for i := range letter.Values {
		if err := w.csv.Write(valueRow(letter, &letter.Values[i])); err != nil {
			return err
		}
	}
	for i := range letter.Flags {
		if err := w.csv.Write(flagRow(letter, &letter.Flags[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func valueRow(letter *domain.Letter, v *domain.VerifiableValue) []string {
	status := "unverified"
	if v.Verified {
		status = "verified"
	}
	severity := ""
	if v.Critical {
		severity = "critical"
	}
	return []string{
		letter.ID.String(),
		letter.Title,
		"value",
		v.ID,
		v.Category,
		v.Name,
		v.Value,
		v.Unit,
		severity,
		status,
		"",
		string(letter.Status),
		letter.ApprovedBy,
		formatTime(letter.ApprovedAt),
	}
}

func flagRow(letter *domain.Letter, f *domain.HallucinationFlag) []string {
	status := "open"
	detail := ""
	if f.Dismissed {
		status = "dismissed"
		detail = f.DismissedReason
	}
	return []string{
		letter.ID.String(),
		letter.Title,
		"flag",
		f.ID,
		"",
		"",
		f.FlaggedText,
		"",
		string(f.Severity),
		status,
		detail,
		string(letter.Status),
		letter.ApprovedBy,
		formatTime(letter.ApprovedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a letter title for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header: {sanitized_title}_{YYYY-MM-DD}.csv.
func BuildFilename(title string) string {
	return fmt.Sprintf("%s_%s.csv", SanitizeFilename(title), time.Now().Format("2006-01-02"))
}
