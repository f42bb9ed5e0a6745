package tags

import (
	"slices"
	"strings"

	"github.com/meghashyamc/folio/content"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultRelatedLimit = 3
	DefaultPopularLimit = 10
)

type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Slug  string `json:"slug"`
}

// All counts tags across published documents, most used first. Tags with the
// same count keep the order in which they first appear in the corpus.
// Names are compared exactly, so "Go" and "go" are counted separately.
func All(documents []content.Document) []Tag {
	counts := make(map[string]int)
	var order []string
	for _, doc := range documents {
		if !doc.Published {
			continue
		}
		for _, name := range doc.Tags {
			if _, ok := counts[name]; !ok {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	tags := make([]Tag, 0, len(order))
	for _, name := range order {
		tags = append(tags, Tag{Name: name, Count: counts[name], Slug: content.TagSlug(name)})
	}
	slices.SortStableFunc(tags, func(a, b Tag) int {
		return b.Count - a.Count
	})

	return tags
}

// Popular returns the limit most used tags.
func Popular(documents []content.Document, limit int) []Tag {
	if limit <= 0 {
		return []Tag{}
	}
	tags := All(documents)
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

// ByTag returns published documents carrying tag. tag may be a tag name in any
// case or a tag slug such as "machine-learning".
func ByTag(documents []content.Document, tag string) []content.Document {
	tag = strings.TrimSpace(tag)
	matches := []content.Document{}
	if tag == "" {
		return matches
	}
	for _, doc := range documents {
		if !doc.Published {
			continue
		}
		if slices.ContainsFunc(doc.Tags, func(name string) bool {
			return strings.EqualFold(name, tag) || content.TagSlug(name) == strings.ToLower(tag)
		}) {
			matches = append(matches, doc)
		}
	}
	return matches
}

// Related ranks the other documents by how many tags they share with source
// and tops the list up with the most recent remaining documents, so it
// returns limit documents whenever the corpus has that many others.
func Related(documents []content.Document, source content.Document, limit int) []content.Document {
	related := []content.Document{}
	if limit <= 0 {
		return related
	}

	others := make([]content.Document, 0, len(documents))
	for _, doc := range documents {
		if doc.Published && doc.Slug != source.Slug {
			others = append(others, doc)
		}
	}

	included := make(map[string]struct{}, limit)
	if source.HasTags() {
		type candidate struct {
			doc    content.Document
			shared int
		}
		var candidates []candidate
		for _, doc := range others {
			if shared := sharedTagCount(source.Tags, doc.Tags); shared > 0 {
				candidates = append(candidates, candidate{doc: doc, shared: shared})
			}
		}
		slices.SortStableFunc(candidates, func(a, b candidate) int {
			return b.shared - a.shared
		})
		for _, c := range candidates {
			if len(related) == limit {
				break
			}
			related = append(related, c.doc)
			included[c.doc.Slug] = struct{}{}
		}
	}

	for _, doc := range others {
		if len(related) == limit {
			break
		}
		if _, ok := included[doc.Slug]; ok {
			continue
		}
		related = append(related, doc)
	}

	return related
}

func sharedTagCount(source, candidate []string) int {
	shared := 0
	for _, tag := range candidate {
		if slices.Contains(source, tag) {
			shared++
		}
	}
	return shared
}

// DisplayName turns a tag slug back into a heading: "machine-learning" becomes
// "Machine Learning".
func DisplayName(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}
