package extraction

var documentCategories = []string{
	"referral", "discharge_summary", "progress_note", "correspondence", "other",
}

func parseGeneric(b *builder) *GenericDocument {
	return &GenericDocument{
		DocumentDate: b.dateField("document_date", 1),
		Author:       b.strField("author", 1),
		Facility:     b.strField("facility", 1),
		Category:     b.enumField("category", 1, documentCategories),
		Summary:      b.strField("summary", 1),
		KeyFindings:  b.stringsField("key_findings", 1),
	}
}
