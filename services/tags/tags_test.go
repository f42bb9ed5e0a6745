package tags

import (
	"fmt"
	"testing"

	"github.com/meghashyamc/folio/content"
	"github.com/stretchr/testify/require"
)

func newDoc(slug string, tags ...string) content.Document {
	if tags == nil {
		tags = []string{}
	}
	return content.Document{ID: slug, Slug: slug, Title: slug, Tags: tags, Published: true}
}

func slugsOf(documents []content.Document) []string {
	slugs := make([]string, 0, len(documents))
	for _, doc := range documents {
		slugs = append(slugs, doc.Slug)
	}
	return slugs
}

// Newest first, as the loader orders them.
func sampleCorpus() []content.Document {
	return []content.Document{
		newDoc("c"),
		newDoc("b", "y"),
		newDoc("a", "x", "y"),
	}
}

func TestAllCountsAndOrdersTags(t *testing.T) {
	assert := require.New(t)
	draft := newDoc("draft", "Draft Only", "go")
	draft.Published = false
	corpus := []content.Document{
		newDoc("one", "web", "Machine Learning"),
		newDoc("two", "go", "Machine Learning"),
		newDoc("three", "go", "Go"),
		draft,
	}

	tags := All(corpus)
	assert.Equal([]Tag{
		{Name: "Machine Learning", Count: 2, Slug: "machine-learning"},
		{Name: "go", Count: 2, Slug: "go"},
		{Name: "web", Count: 1, Slug: "web"},
		{Name: "Go", Count: 1, Slug: "go"},
	}, tags)
}

func TestPopularLimitsAllTags(t *testing.T) {
	assert := require.New(t)
	var corpus []content.Document
	for i := 0; i < 12; i++ {
		corpus = append(corpus, newDoc(fmt.Sprintf("doc-%d", i), fmt.Sprintf("tag-%d", i)))
	}

	assert.Len(Popular(corpus, DefaultPopularLimit), 10)
	assert.Len(Popular(corpus, 50), 12)
	assert.Empty(Popular(corpus, 0))
}

var byTagTestCases = []struct {
	name          string
	tag           string
	expectedSlugs []string
}{
	{name: "Exact name", tag: "Machine Learning", expectedSlugs: []string{"one", "two"}},
	{name: "Different case", tag: "machine learning", expectedSlugs: []string{"one", "two"}},
	{name: "Tag slug", tag: "machine-learning", expectedSlugs: []string{"one", "two"}},
	{name: "Substring is not a match", tag: "machine", expectedSlugs: []string{}},
	{name: "Unknown tag", tag: "cooking", expectedSlugs: []string{}},
	{name: "Blank tag", tag: "  ", expectedSlugs: []string{}},
}

func TestByTag(t *testing.T) {
	draft := newDoc("draft", "Machine Learning")
	draft.Published = false
	corpus := []content.Document{
		newDoc("one", "Machine Learning"),
		newDoc("two", "machine learning", "go"),
		newDoc("three", "go"),
		draft,
	}

	for _, testCase := range byTagTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(testCase.expectedSlugs, slugsOf(ByTag(corpus, testCase.tag)))
		})
	}
}

func TestRelatedBackfillsWithRecentDocuments(t *testing.T) {
	assert := require.New(t)
	corpus := sampleCorpus()
	source := corpus[2]

	assert.Equal([]string{"b", "c"}, slugsOf(Related(corpus, source, 2)))
}

func TestRelatedRanksBySharedTags(t *testing.T) {
	assert := require.New(t)
	corpus := []content.Document{
		newDoc("newest", "go"),
		newDoc("two-shared", "go", "web"),
		newDoc("source", "go", "web", "db"),
		newDoc("three-shared", "db", "web", "go"),
		newDoc("untagged"),
	}

	related := Related(corpus, corpus[2], 3)
	assert.Equal([]string{"three-shared", "two-shared", "newest"}, slugsOf(related))
}

func TestRelatedWithoutTagsUsesCorpusOrder(t *testing.T) {
	assert := require.New(t)
	corpus := []content.Document{newDoc("a", "x"), newDoc("self"), newDoc("b"), newDoc("c", "y")}

	assert.Equal([]string{"a", "b"}, slugsOf(Related(corpus, corpus[1], 2)))
}

func TestRelatedAlwaysFillsToLimit(t *testing.T) {
	var corpus []content.Document
	for i := 0; i < 6; i++ {
		var docTags []string
		switch i % 3 {
		case 0:
			docTags = []string{"go"}
		case 1:
			docTags = []string{"go", "web"}
		}
		corpus = append(corpus, newDoc(fmt.Sprintf("doc-%d", i), docTags...))
	}

	for _, source := range corpus {
		for limit := 0; limit <= 7; limit++ {
			t.Run(fmt.Sprintf("%s/%d", source.Slug, limit), func(t *testing.T) {
				assert := require.New(t)
				related := Related(corpus, source, limit)
				assert.Len(related, min(limit, len(corpus)-1))
				seen := make(map[string]bool)
				for _, doc := range related {
					assert.NotEqual(source.Slug, doc.Slug, "a document is never related to itself")
					assert.False(seen[doc.Slug], "no duplicates")
					seen[doc.Slug] = true
				}
			})
		}
	}
}

func TestRelatedExcludesUnpublished(t *testing.T) {
	assert := require.New(t)
	draft := newDoc("draft", "x")
	draft.Published = false
	corpus := []content.Document{draft, newDoc("a", "x"), newDoc("b")}

	assert.Equal([]string{"b"}, slugsOf(Related(corpus, corpus[1], 3)))
}

func TestDisplayName(t *testing.T) {
	assert := require.New(t)
	assert.Equal("Machine Learning", DisplayName("machine-learning"))
	assert.Equal("Go", DisplayName("go"))
}
