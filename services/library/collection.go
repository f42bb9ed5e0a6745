package library

import (
	"context"
	"sync"
	"time"

	"github.com/meghashyamc/folio/cache"
	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/db/searchdb"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/services/search"
	"github.com/meghashyamc/folio/services/tags"
)

const DefaultFeedLimit = 20

// Info describes the snapshot a collection is currently serving.
type Info struct {
	Collection  string    `json:"collection"`
	Documents   int       `json:"documents"`
	Skipped     int       `json:"skipped"`
	Fingerprint uint64    `json:"fingerprint"`
	Generation  uint64    `json:"generation"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Collection is the read API over one directory of documents. Every call reads
// the current cache snapshot and returns copies the caller may modify.
type Collection struct {
	name     string
	logger   logger.Logger
	source   *content.Loader
	cache    *cache.SnapshotCache
	searcher *search.Service

	fulltextMu        sync.Mutex
	fulltext          searchdb.DB
	indexedGeneration uint64
}

func NewCollection(name string, logger logger.Logger, source *content.Loader, snapshots *cache.SnapshotCache, searcher *search.Service, fulltext searchdb.DB) *Collection {
	return &Collection{
		name:     name,
		logger:   logger,
		source:   source,
		cache:    snapshots,
		searcher: searcher,
		fulltext: fulltext,
	}
}

func (c *Collection) Name() string {
	return c.name
}

// Source is the loader reading this collection's directory.
func (c *Collection) Source() *content.Loader {
	return c.source
}

func (c *Collection) List(ctx context.Context) ([]content.Document, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return content.CloneAll(snapshot.Documents), nil
}

// Recent returns the limit newest documents.
func (c *Collection) Recent(ctx context.Context, limit int) ([]content.Document, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	documents := snapshot.Documents
	if limit >= 0 && len(documents) > limit {
		documents = documents[:limit]
	}
	return content.CloneAll(documents), nil
}

// GetBySlug returns a NotFoundError for an unknown slug.
func (c *Collection) GetBySlug(ctx context.Context, slug string) (content.Document, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return content.Document{}, err
	}
	doc, ok := snapshot.Lookup(slug)
	if !ok {
		return content.Document{}, &NotFoundError{Collection: c.name, Slug: slug}
	}
	return doc.Clone(), nil
}

// GetBySlugs returns the documents in request order, leaving out slugs that
// do not resolve.
func (c *Collection) GetBySlugs(ctx context.Context, slugs []string) ([]content.Document, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	documents := make([]content.Document, 0, len(slugs))
	for _, slug := range slugs {
		if doc, ok := snapshot.Lookup(slug); ok {
			documents = append(documents, doc.Clone())
		}
	}
	return documents, nil
}

func (c *Collection) Slugs(ctx context.Context) ([]string, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, snapshot.Len())
	for _, doc := range snapshot.Documents {
		slugs = append(slugs, doc.Slug)
	}
	return slugs, nil
}

func (c *Collection) ByTag(ctx context.Context, tag string) ([]content.Document, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return content.CloneAll(tags.ByTag(snapshot.Documents, tag)), nil
}

func (c *Collection) Tags(ctx context.Context) ([]tags.Tag, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return tags.All(snapshot.Documents), nil
}

func (c *Collection) PopularTags(ctx context.Context, limit int) ([]tags.Tag, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return tags.Popular(snapshot.Documents, limit), nil
}

func (c *Collection) Search(ctx context.Context, query string) ([]search.Result, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return c.searcher.Search(snapshot, query), nil
}

// Related ranks documents against doc by shared tags. doc does not need to
// belong to the collection.
func (c *Collection) Related(ctx context.Context, doc content.Document, limit int) ([]content.Document, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return content.CloneAll(tags.Related(snapshot.Documents, doc, limit)), nil
}

func (c *Collection) RelatedBySlug(ctx context.Context, slug string, limit int) ([]content.Document, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	doc, ok := snapshot.Lookup(slug)
	if !ok {
		return nil, &NotFoundError{Collection: c.name, Slug: slug}
	}
	return content.CloneAll(tags.Related(snapshot.Documents, doc, limit)), nil
}

// Invalidate makes the next read reload the directory.
func (c *Collection) Invalidate() {
	c.cache.Invalidate()
}

// Refresh reloads the directory now.
func (c *Collection) Refresh(ctx context.Context) (Info, error) {
	snapshot, err := c.cache.Reload(ctx)
	if err != nil {
		c.logger.Error("could not refresh collection", "collection", c.name, "err", err.Error())
		return Info{}, err
	}
	c.logger.Info("collection refreshed", "collection", c.name, "generation", snapshot.Generation)
	return c.info(snapshot), nil
}

// ListWithInfo returns the documents and the Info of a single snapshot, so a
// reload between the two cannot mix generations.
func (c *Collection) ListWithInfo(ctx context.Context) ([]content.Document, Info, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return nil, Info{}, err
	}
	return content.CloneAll(snapshot.Documents), c.info(snapshot), nil
}

func (c *Collection) Info(ctx context.Context) (Info, error) {
	snapshot, err := c.cache.Get(ctx)
	if err != nil {
		return Info{}, err
	}
	return c.info(snapshot), nil
}

func (c *Collection) info(snapshot *content.Snapshot) Info {
	return Info{
		Collection:  c.name,
		Documents:   snapshot.Len(),
		Skipped:     len(snapshot.Skipped),
		Fingerprint: snapshot.Fingerprint,
		Generation:  snapshot.Generation,
		LoadedAt:    snapshot.LoadedAt,
	}
}

func (c *Collection) Close() error {
	if c.fulltext == nil {
		return nil
	}
	return c.fulltext.Close()
}
