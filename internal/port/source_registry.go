package port

import "cliniscribe/internal/domain"

// RegistrySource is one candidate source of letter content: the dictation
// transcript, a source document's extracted text, or free-text user input.
type RegistrySource struct {
	ID   string
	Type domain.SourceType
	Name string
	Text string
}

// SourceRegistry is the read-only lookup used to resolve citation markers.
type SourceRegistry interface {
	Lookup(sourceID string) (*RegistrySource, bool)
	All() []RegistrySource
}
