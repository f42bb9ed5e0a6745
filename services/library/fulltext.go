package library

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/db/searchdb"
)

const minFullTextQueryLength = 2

type FullTextHit struct {
	Document  content.Document    `json:"document"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

type FullTextResults struct {
	Hits       []FullTextHit `json:"hits"`
	Total      uint64        `json:"total"`
	SearchTime string        `json:"search_time"`
}

// FullTextSearch runs query against a stemmed full-text index of the current
// snapshot. The index is rebuilt the first time a new snapshot is searched.
func (c *Collection) FullTextSearch(ctx context.Context, query string, limit int, offset int) (*FullTextResults, error) {
	if c.fulltext == nil {
		return nil, ErrFullTextDisabled
	}
	if utf8.RuneCountInString(strings.TrimSpace(query)) < minFullTextQueryLength {
		return &FullTextResults{Hits: []FullTextHit{}}, nil
	}

	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	c.fulltextMu.Lock()
	defer c.fulltextMu.Unlock()

	if err := c.ensureIndexedLocked(snapshot); err != nil {
		return nil, err
	}

	response, err := c.fulltext.Search(query, limit, offset)
	if err != nil {
		return nil, err
	}

	results := &FullTextResults{
		Hits:       make([]FullTextHit, 0, len(response.Results)),
		Total:      response.Total,
		SearchTime: response.SearchTime,
	}
	for _, result := range response.Results {
		doc, ok := snapshot.Lookup(result.Slug)
		if !ok {
			continue
		}
		results.Hits = append(results.Hits, FullTextHit{
			Document:  doc.Clone(),
			Score:     result.Score,
			Fragments: result.Fragments,
		})
	}

	return results, nil
}

func (c *Collection) ensureIndexedLocked(snapshot *content.Snapshot) error {
	if c.indexedGeneration == snapshot.Generation {
		return nil
	}

	documents := make([]searchdb.Document, 0, snapshot.Len())
	for _, doc := range snapshot.Documents {
		documents = append(documents, searchdb.Document{
			ID:          doc.Slug,
			Slug:        doc.Slug,
			Title:       doc.Title,
			Description: doc.Description,
			Tags:        doc.Tags,
			Content:     doc.RawBody,
		})
	}

	if err := c.fulltext.BuildIndex(documents); err != nil {
		c.logger.Error("could not build full-text index", "collection", c.name, "err", err.Error())
		return fmt.Errorf("failed to index %s: %w", c.name, err)
	}
	c.indexedGeneration = snapshot.Generation
	c.logger.Info("full-text index built", "collection", c.name, "generation", snapshot.Generation, "documents", len(documents))

	return nil
}
