package search

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/logger"
)

const DefaultCacheSize = 256

type cacheKey struct {
	generation uint64
	query      string
}

// Service ranks queries against a snapshot and remembers recent rankings.
// Entries are keyed by snapshot generation, so a reload never serves results
// computed from an older corpus.
type Service struct {
	logger  logger.Logger
	results *lru.Cache[cacheKey, []Result]
}

func New(logger logger.Logger, cacheSize int) *Service {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	results, _ := lru.New[cacheKey, []Result](cacheSize)
	return &Service{
		logger:  logger,
		results: results,
	}
}

// Search returns ranked results for query. The returned documents are copies
// and may be modified by the caller.
func (s *Service) Search(snapshot *content.Snapshot, query string) []Result {
	if snapshot == nil {
		return []Result{}
	}

	key := cacheKey{generation: snapshot.Generation, query: normalizeQuery(query)}
	if cached, ok := s.results.Get(key); ok {
		s.logger.Debug("search cache hit", "query", key.query, "generation", key.generation)
		return cloneResults(cached)
	}

	results := Rank(snapshot.Documents, query)
	s.results.Add(key, results)
	s.logger.Debug("search ranked", "query", key.query, "generation", key.generation, "results", len(results))

	return cloneResults(results)
}

// Purge empties the result cache.
func (s *Service) Purge() {
	s.results.Purge()
}

func (s *Service) CachedQueries() int {
	return s.results.Len()
}

func cloneResults(results []Result) []Result {
	clones := make([]Result, len(results))
	for i, result := range results {
		clones[i] = result
		clones[i].Document = result.Document.Clone()
	}
	return clones
}
