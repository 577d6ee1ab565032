package domain

import "time"

// Default display names for tree nodes whose source data carried none.
const (
	UnnamedTopic    = "Unnamed Topic"
	UnnamedSubtopic = "Unnamed Subtopic"
	UnnamedConcept  = "Unnamed Concept"
)

// Concept is a leaf of the notes tree: a single named idea with its
// definition and any formulae/examples the extraction picked up.
type Concept struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Definition string   `json:"definition"`
	Formulae   []string `json:"formulae"`
	Examples   []string `json:"examples"`
}

// Subtopic groups concepts under a topic.
type Subtopic struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Concepts []Concept `json:"concepts"`
}

// Topic is a top-level section of structured notes. The renderer contract
// is strictly topic -> subtopic -> concept; topics never hold concepts
// directly (the structurer wraps loose concepts in a synthetic subtopic).
type Topic struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Subtopics []Subtopic `json:"subtopics"`
}

// NotesTree is the canonical structured form of one set of notes.
type NotesTree []Topic

// AnalysisResult is the persisted outcome of an extract+structure round
// trip over one upload. StructuredData may be nil: structuring failed but
// the extraction text is still worth keeping, and callers fall back to
// displaying Markdown / OriginalExtraction. Immutable once stored except
// by re-structuring.
type AnalysisResult struct {
	ID                 string    `json:"id"`
	FileName           string    `json:"fileName"`
	Timestamp          time.Time `json:"timestamp"`
	Markdown           string    `json:"markdown,omitempty"`
	StructuredData     NotesTree `json:"structuredData,omitempty"`
	Description        string    `json:"description,omitempty"`
	OriginalExtraction string    `json:"originalExtraction"`
	Pages              int       `json:"pages"`
}

// Validate validates the analysis result
func (a *AnalysisResult) Validate() error {
	if a.ID == "" {
		return NewInvalidInputError("analysis id is required")
	}
	if a.OriginalExtraction == "" && a.Markdown == "" {
		return NewInvalidInputError("analysis must carry extraction text or markdown")
	}
	return nil
}

// HasTree reports whether structuring succeeded for this result.
func (a *AnalysisResult) HasTree() bool {
	return len(a.StructuredData) > 0
}
