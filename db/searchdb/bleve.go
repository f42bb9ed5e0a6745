package searchdb

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/folio/logger"
)

const indexingBatchSize = 100

const (
	indexFieldSlug        = "slug"
	indexFieldTitle       = "title"
	indexFieldDescription = "description"
	indexFieldTags        = "tags"
	indexFieldContent     = "content"
)

const (
	boostForContent      = 3.0
	boostForTitle        = 4.0
	boostForDescription  = 2.0
	boostForTags         = 2.5
	boostForPhraseMatch  = 5.0
	boostForPartialMatch = 1.5
)

const tagAnalyzerName = "tag"

var quotedPhraseRegex = regexp.MustCompile(`"([^"]*)"`)

var ErrClosed = errors.New("search index is closed")

// BleveDB is an in-memory full-text index. BuildIndex replaces the whole
// index, so readers always see one complete corpus.
type BleveDB struct {
	logger logger.Logger

	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

func NewMemOnly(logger logger.Logger) (*BleveDB, error) {
	index, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		logger.Error("could not create search index", "err", err.Error())
		return nil, err
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func (b *BleveDB) BuildIndex(documents []Document) error {

	index, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		b.logger.Error("could not create search index", "err", err.Error())
		return err
	}

	batch := index.NewBatch()

	for i, doc := range documents {

		err := batch.Index(doc.ID, doc)
		if err != nil {
			b.logger.Error("could not index document", "id", doc.ID, "err", err.Error())
			_ = index.Close()
			return err
		}

		// Execute batch when it reaches the batch size
		if (i+1)%indexingBatchSize == 0 {
			if err := index.Batch(batch); err != nil {
				_ = index.Close()
				return err
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			_ = index.Close()
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		_ = index.Close()
		return ErrClosed
	}
	previous := b.index
	b.index = index
	if previous != nil {
		if err := previous.Close(); err != nil {
			b.logger.Warn("could not close previous search index", "err", err.Error())
		}
	}

	return nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()

	// Tags match whole and case-insensitively: "Machine Learning" is one term.
	if err := indexMapping.AddCustomAnalyzer(tagAnalyzerName, map[string]any{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		panic(fmt.Sprintf("invalid tag analyzer: %v", err))
	}

	docMapping := bleve.NewDocumentMapping()

	slugFieldMapping := bleve.NewTextFieldMapping()
	slugFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldSlug, slugFieldMapping)

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	descriptionFieldMapping := bleve.NewTextFieldMapping()
	descriptionFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldDescription, descriptionFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = tagAnalyzerName
	docMapping.AddFieldMappingsAt(indexFieldTags, tagsFieldMapping)

	// Content is stored so matches can be highlighted.
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = en.AnalyzerName
	contentFieldMapping.Store = true
	contentFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

func (b *BleveDB) Search(queryString string, limit int, offset int) (*Response, error) {
	start := time.Now()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	searchQuery := buildSearchQuery(queryString)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, offset, false)

	searchRequest.Fields = []string{indexFieldSlug, indexFieldTitle}

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField(indexFieldContent)
	searchRequest.Highlight.AddField(indexFieldTitle)

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		result := Result{
			ID:        hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}

		if slug, ok := hit.Fields[indexFieldSlug].(string); ok {
			result.Slug = slug
		}
		if title, ok := hit.Fields[indexFieldTitle].(string); ok {
			result.Title = title
		}

		results[i] = result
	}

	searchTime := time.Since(start)

	response := &Response{
		Results:    results,
		Total:      searchResult.Total,
		MaxScore:   searchResult.MaxScore,
		SearchTime: searchTime.String(),
	}

	return response, nil
}

func buildSearchQuery(queryString string) query.Query {
	queryString = strings.ToLower(strings.TrimSpace(queryString))

	if queryString == "" {
		return bleve.NewMatchAllQuery()
	}

	phrases, remaining := parseQuotedQuery(queryString)

	// Every quoted phrase must appear verbatim in the title or the content.
	if len(phrases) > 0 {
		conjunctQuery := bleve.NewConjunctionQuery()
		for _, phrase := range phrases {
			conjunctQuery.AddQuery(phraseQuery(phrase, boostForPhraseMatch))
		}
		if remaining == "" {
			return conjunctQuery
		}
		conjunctQuery.AddQuery(termsQuery(remaining))
		return conjunctQuery
	}

	if remaining == "" {
		return bleve.NewMatchNoneQuery()
	}

	return termsQuery(remaining)
}

func phraseQuery(phrase string, boost float64) query.Query {
	contentPhrase := bleve.NewMatchPhraseQuery(phrase)
	contentPhrase.SetField(indexFieldContent)
	contentPhrase.SetBoost(boost)

	titlePhrase := bleve.NewMatchPhraseQuery(phrase)
	titlePhrase.SetField(indexFieldTitle)
	titlePhrase.SetBoost(boost)

	return bleve.NewDisjunctionQuery(contentPhrase, titlePhrase)
}

func termsQuery(queryString string) query.Query {
	disjunctQuery := bleve.NewDisjunctionQuery()

	contentQuery := bleve.NewMatchQuery(queryString)
	contentQuery.SetField(indexFieldContent)
	contentQuery.SetBoost(boostForContent)
	disjunctQuery.AddQuery(contentQuery)

	titleQuery := bleve.NewMatchQuery(queryString)
	titleQuery.SetField(indexFieldTitle)
	titleQuery.SetBoost(boostForTitle)
	disjunctQuery.AddQuery(titleQuery)

	descriptionQuery := bleve.NewMatchQuery(queryString)
	descriptionQuery.SetField(indexFieldDescription)
	descriptionQuery.SetBoost(boostForDescription)
	disjunctQuery.AddQuery(descriptionQuery)

	tagQuery := bleve.NewMatchQuery(queryString)
	tagQuery.SetField(indexFieldTags)
	tagQuery.SetBoost(boostForTags)
	disjunctQuery.AddQuery(tagQuery)

	contentPhraseQuery := bleve.NewMatchPhraseQuery(queryString)
	contentPhraseQuery.SetField(indexFieldContent)
	contentPhraseQuery.SetBoost(boostForPhraseMatch)
	disjunctQuery.AddQuery(contentPhraseQuery)

	if len(queryString) > 2 && !strings.ContainsAny(queryString, " \t") {
		prefixQuery := bleve.NewPrefixQuery(queryString)
		prefixQuery.SetField(indexFieldTitle)
		prefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(prefixQuery)

		contentPrefixQuery := bleve.NewPrefixQuery(queryString)
		contentPrefixQuery.SetField(indexFieldContent)
		contentPrefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(contentPrefixQuery)
	}

	return disjunctQuery
}

// parseQuotedQuery splits `"exact phrase" other terms` into its quoted
// phrases and the remaining unquoted terms.
func parseQuotedQuery(input string) ([]string, string) {
	var quoted []string
	for _, match := range quotedPhraseRegex.FindAllStringSubmatch(input, -1) {
		phrase := strings.Join(strings.Fields(match[1]), " ")
		if phrase != "" {
			quoted = append(quoted, phrase)
		}
	}

	remaining := quotedPhraseRegex.ReplaceAllString(input, " ")
	return quoted, strings.Join(strings.Fields(remaining), " ")
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, ErrClosed
	}
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
