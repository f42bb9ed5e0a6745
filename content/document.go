package content

import (
	"time"
)

type Document struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        string         `json:"date"`
	PublishedAt time.Time      `json:"published_at"`
	Tags        []string       `json:"tags"`
	Author      string         `json:"author,omitempty"`
	Published   bool           `json:"published"`
	RawBody     string         `json:"raw_body"`
	ReadingTime ReadingTime    `json:"reading_time"`
	Extra       map[string]any `json:"extra,omitempty"`
	Checksum    uint64         `json:"-"`
	SourcePath  string         `json:"-"`
}

type ReadingTime struct {
	Text    string `json:"text"`
	Minutes int    `json:"minutes"`
	Time    int64  `json:"time"` // milliseconds
	Words   int    `json:"words"`
}

// Clone returns a copy that shares no mutable state with d.
func (d Document) Clone() Document {
	clone := d
	if d.Tags != nil {
		clone.Tags = append([]string(nil), d.Tags...)
	}
	if d.Extra != nil {
		clone.Extra = cloneMap(d.Extra)
	}
	return clone
}

func (d Document) HasTags() bool {
	return len(d.Tags) > 0
}

// CloneAll deep copies a slice of documents.
func CloneAll(documents []Document) []Document {
	if documents == nil {
		return nil
	}
	clones := make([]Document, len(documents))
	for i, doc := range documents {
		clones[i] = doc.Clone()
	}
	return clones
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return cloneMap(value)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

// SkippedDocument records a file that was left out of a snapshot.
type SkippedDocument struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Snapshot is one complete load of a collection. It is never modified after
// it has been handed to a cache.
type Snapshot struct {
	Documents   []Document
	Skipped     []SkippedDocument
	Fingerprint uint64
	LoadedAt    time.Time
	Generation  uint64

	bySlug map[string]int
}

func NewSnapshot(documents []Document, skipped []SkippedDocument, fingerprint uint64, loadedAt time.Time) *Snapshot {
	bySlug := make(map[string]int, len(documents))
	for i, doc := range documents {
		bySlug[doc.Slug] = i
	}
	return &Snapshot{
		Documents:   documents,
		Skipped:     skipped,
		Fingerprint: fingerprint,
		LoadedAt:    loadedAt,
		bySlug:      bySlug,
	}
}

// Lookup returns the document with the given slug. The returned value shares
// tag and metadata storage with the snapshot.
func (s *Snapshot) Lookup(slug string) (Document, bool) {
	if s == nil {
		return Document{}, false
	}
	i, ok := s.bySlug[slug]
	if !ok {
		return Document{}, false
	}
	return s.Documents[i], true
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Documents)
}
