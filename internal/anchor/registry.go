// Package anchor links spans of generated letter text to the source material
// they cite, via inline markers of the form [[src:<sourceId>|<excerpt>]].
package anchor

import (
	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

// Registry is the in-memory port.SourceRegistry over a letter's candidate
// sources: the dictation transcript, the source documents, and any free-text
// user input.
type Registry struct {
	sources []port.RegistrySource
	byID    map[string]int
}

// NewRegistry indexes the given sources by ID. Nil transcript/userInput are
// simply omitted.
func NewRegistry(transcript *port.RegistrySource, documents []port.RegistrySource, userInput *port.RegistrySource) *Registry {
	r := &Registry{byID: make(map[string]int)}
	add := func(s port.RegistrySource) {
		r.byID[s.ID] = len(r.sources)
		r.sources = append(r.sources, s)
	}
	if transcript != nil {
		s := *transcript
		s.Type = domain.SourceTypeTranscript
		add(s)
	}
	for _, d := range documents {
		d.Type = domain.SourceTypeDocument
		add(d)
	}
	if userInput != nil {
		s := *userInput
		s.Type = domain.SourceTypeUserInput
		add(s)
	}
	return r
}

func (r *Registry) Lookup(sourceID string) (*port.RegistrySource, bool) {
	i, ok := r.byID[sourceID]
	if !ok {
		return nil, false
	}
	return &r.sources[i], true
}

func (r *Registry) All() []port.RegistrySource {
	return r.sources
}
