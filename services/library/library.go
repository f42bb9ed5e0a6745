package library

import (
	"context"
	"errors"

	"github.com/meghashyamc/folio/cache"
	"github.com/meghashyamc/folio/config"
	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/db/searchdb"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/services/search"
	"golang.org/x/sync/errgroup"
)

const (
	BlogCollection     = "blog"
	ProjectsCollection = "projects"
)

// Library groups the collections served by one process.
type Library struct {
	logger      logger.Logger
	collections map[string]*Collection
	names       []string
}

func New(logger logger.Logger, collections ...*Collection) *Library {
	l := &Library{
		logger:      logger,
		collections: make(map[string]*Collection, len(collections)),
	}
	for _, collection := range collections {
		l.collections[collection.Name()] = collection
		l.names = append(l.names, collection.Name())
	}
	return l
}

// Open builds the blog and projects collections described by cfg.
func Open(logger logger.Logger, cfg *config.Config) (*Library, error) {
	blog, err := openCollection(logger, cfg, BlogCollection, cfg.GetBlogPath())
	if err != nil {
		return nil, err
	}
	projects, err := openCollection(logger, cfg, ProjectsCollection, cfg.GetProjectsPath())
	if err != nil {
		_ = blog.Close()
		return nil, err
	}
	return New(logger, blog, projects), nil
}

func openCollection(logger logger.Logger, cfg *config.Config, name string, dir string) (*Collection, error) {
	loader := content.NewLoader(logger, dir)
	snapshots := cache.New(name, loader, logger,
		cache.WithTTL(cfg.GetCacheTTL()),
		cache.WithRetryBackoff(cfg.GetCacheRetryBackoff()),
	)
	fulltext, err := searchdb.NewMemOnly(logger)
	if err != nil {
		return nil, err
	}
	return NewCollection(name, logger, loader, snapshots, search.New(logger, cfg.GetSearchCacheSize()), fulltext), nil
}

// Collection resolves a collection by name.
func (l *Library) Collection(name string) (*Collection, error) {
	collection, ok := l.collections[name]
	if !ok {
		return nil, &UnknownCollectionError{Name: name}
	}
	return collection, nil
}

func (l *Library) Blog() *Collection {
	return l.collections[BlogCollection]
}

func (l *Library) Projects() *Collection {
	return l.collections[ProjectsCollection]
}

func (l *Library) Names() []string {
	return append([]string(nil), l.names...)
}

func (l *Library) Collections() []*Collection {
	collections := make([]*Collection, 0, len(l.names))
	for _, name := range l.names {
		collections = append(collections, l.collections[name])
	}
	return collections
}

// Warm loads every collection concurrently so the first request does not pay
// for the directory scan.
func (l *Library) Warm(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, collection := range l.Collections() {
		collection := collection
		group.Go(func() error {
			info, err := collection.Info(groupCtx)
			if err != nil {
				return err
			}
			l.logger.Info("collection warmed", "collection", info.Collection, "documents", info.Documents, "skipped", info.Skipped)
			return nil
		})
	}
	return group.Wait()
}

func (l *Library) Close() error {
	var errs []error
	for _, collection := range l.Collections() {
		if err := collection.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
