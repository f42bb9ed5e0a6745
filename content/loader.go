package content

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/meghashyamc/folio/logger"
	"golang.org/x/sync/errgroup"
)

const (
	maxFileSize            = 10 * 1024 * 1024 // 10MB limit
	maxGoRoutinesForLoader = 8
)

var defaultExtensions = []string{".md", ".mdx"}

var errFileTooLarge = fmt.Errorf("file is larger than %d bytes", maxFileSize)

// Loader turns a directory of front matter documents into a Snapshot.
type Loader struct {
	dir        string
	logger     logger.Logger
	extensions map[string]struct{}
	now        func() time.Time
}

type fileResult struct {
	document *Document
	skipped  *SkippedDocument
}

func NewLoader(logger logger.Logger, dir string) *Loader {
	extensions := make(map[string]struct{}, len(defaultExtensions))
	for _, ext := range defaultExtensions {
		extensions[ext] = struct{}{}
	}
	return &Loader{
		dir:        dir,
		logger:     logger,
		extensions: extensions,
		now:        time.Now,
	}
}

func (l *Loader) Dir() string {
	return l.dir
}

// IsContentFile reports whether name has one of the loader's extensions.
func (l *Loader) IsContentFile(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	_, ok := l.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Load reads every content file in the directory. A missing directory is an
// empty corpus. Documents with unparsable front matter are skipped and
// reported in Snapshot.Skipped; any other read failure aborts the load.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths, err := l.discoverFiles()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("content directory does not exist, using empty corpus", "dir", l.dir)
			return NewSnapshot(nil, nil, fingerprint(nil), l.now().UTC()), nil
		}
		l.logger.Error("could not read content directory", "dir", l.dir, "err", err.Error())
		return nil, fmt.Errorf("failed to read content directory %s: %w", l.dir, err)
	}

	results := make([]fileResult, len(paths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxGoRoutinesForLoader)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			result, err := l.loadFile(path)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		l.logger.Error("failed to load content", "dir", l.dir, "err", err.Error())
		return nil, err
	}

	snapshot := l.assemble(results)
	l.logger.Info("loaded content", "dir", l.dir, "documents", len(snapshot.Documents), "skipped", len(snapshot.Skipped))

	return snapshot, nil
}

func (l *Loader) discoverFiles() ([]string, error) {
	// os.ReadDir returns entries sorted by filename, which is the corpus tie-break order.
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !l.IsContentFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, entry.Name()))
	}

	return paths, nil
}

func (l *Loader) loadFile(path string) (fileResult, error) {
	raw, err := readTextFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("content file disappeared before it could be read", "path", path)
			return fileResult{skipped: &SkippedDocument{Path: path, Reason: "file no longer exists"}}, nil
		}
		if errors.Is(err, errFileTooLarge) {
			l.logger.Warn("skipping oversized document", "path", path)
			return fileResult{skipped: &SkippedDocument{Path: path, Reason: err.Error()}}, nil
		}
		return fileResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := buildDocument(path, raw)
	if err != nil {
		l.logger.Warn("skipping malformed document", "path", path, "err", err.Error())
		return fileResult{skipped: &SkippedDocument{Path: path, Reason: err.Error()}}, nil
	}

	return fileResult{document: doc}, nil
}

func buildDocument(path string, raw []byte) (*Document, error) {
	matter, body, err := ParseFrontMatter(path, raw)
	if err != nil {
		return nil, err
	}

	slug := SlugFromFilename(filepath.Base(path))
	doc := &Document{
		ID:          slug,
		Slug:        slug,
		Title:       matter.Title,
		Description: matter.Description,
		Date:        matter.Date,
		Tags:        []string(matter.Tags),
		Author:      matter.Author,
		Published:   true,
		RawBody:     body,
		ReadingTime: CalculateReadingTime(body),
		Extra:       matter.Extra,
		Checksum:    xxhash.Sum64(raw),
		SourcePath:  path,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if matter.Published != nil {
		doc.Published = *matter.Published
	}
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = TitleFromSlug(slug)
	}
	doc.PublishedAt, _ = ParseDate(doc.Date)

	return doc, nil
}

func (l *Loader) assemble(results []fileResult) *Snapshot {
	documents := make([]Document, 0, len(results))
	var skipped []SkippedDocument
	seen := make(map[string]string, len(results))

	for _, result := range results {
		if result.skipped != nil {
			skipped = append(skipped, *result.skipped)
			continue
		}
		doc := result.document
		if firstPath, ok := seen[doc.Slug]; ok {
			l.logger.Warn("skipping document with duplicate slug", "path", doc.SourcePath, "slug", doc.Slug, "first_path", firstPath)
			skipped = append(skipped, SkippedDocument{Path: doc.SourcePath, Reason: fmt.Sprintf("duplicate slug %q, already defined by %s", doc.Slug, firstPath)})
			continue
		}
		seen[doc.Slug] = doc.SourcePath
		if !doc.Published {
			l.logger.Debug("excluding unpublished document", "slug", doc.Slug)
			continue
		}
		documents = append(documents, *doc)
	}

	SortByDate(documents)

	return NewSnapshot(documents, skipped, fingerprint(documents), l.now().UTC())
}

// SortByDate orders documents newest first. Undated documents go last and
// ties keep their existing order.
func SortByDate(documents []Document) {
	slices.SortStableFunc(documents, func(a, b Document) int {
		switch {
		case a.PublishedAt.IsZero() && b.PublishedAt.IsZero():
			return 0
		case a.PublishedAt.IsZero():
			return 1
		case b.PublishedAt.IsZero():
			return -1
		}
		return b.PublishedAt.Compare(a.PublishedAt)
	})
}

func fingerprint(documents []Document) uint64 {
	digest := xxhash.New()
	buf := make([]byte, 8)
	for _, doc := range documents {
		binary.LittleEndian.PutUint64(buf, doc.Checksum)
		_, _ = digest.Write(buf)
		_, _ = digest.WriteString(doc.Slug)
	}
	return digest.Sum64()
}

func readTextFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() > maxFileSize {
		return nil, errFileTooLarge
	}

	return io.ReadAll(file)
}
