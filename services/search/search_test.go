package search

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func newDoc(slug, title, description, body string, tags ...string) content.Document {
	if tags == nil {
		tags = []string{}
	}
	return content.Document{
		ID:          slug,
		Slug:        slug,
		Title:       title,
		Description: description,
		RawBody:     body,
		Tags:        tags,
		Published:   true,
	}
}

func slugsOf(results []Result) []string {
	slugs := make([]string, 0, len(results))
	for _, result := range results {
		slugs = append(slugs, result.Document.Slug)
	}
	return slugs
}

var matchTypeTestCases = []struct {
	name              string
	doc               content.Document
	expectedMatchType MatchType
	expectedScore     int
}{
	{
		name:              "Title wins over every other field",
		doc:               newDoc("all", "Rust in production", "why rust", "rust everywhere", "rust"),
		expectedMatchType: MatchTitle,
		expectedScore:     10 + 7 + 5 + 3 + 2 + 1 + 1,
	},
	{
		name:              "Description wins over tags and content",
		doc:               newDoc("desc", "Systems notes", "learning rust", "rust body", "rust"),
		expectedMatchType: MatchDescription,
		expectedScore:     7 + 5 + 3 + 1 + 1,
	},
	{
		name:              "Tags win over content",
		doc:               newDoc("tags", "Systems notes", "memory safety", "rust body", "Rust"),
		expectedMatchType: MatchTags,
		expectedScore:     5 + 3 + 1,
	},
	{
		name:              "Tag substring match",
		doc:               newDoc("tag-substring", "Systems notes", "", "", "rustlang"),
		expectedMatchType: MatchTags,
		expectedScore:     5,
	},
	{
		name:              "Body only",
		doc:               newDoc("body", "Systems notes", "memory safety", "written in rust"),
		expectedMatchType: MatchContent,
		expectedScore:     3 + 1,
	},
}

func TestRankMatchTypePrecedence(t *testing.T) {
	for _, testCase := range matchTypeTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			results := Rank([]content.Document{testCase.doc}, "rust")
			assert.Len(results, 1)
			assert.Equal(testCase.expectedMatchType, results[0].MatchType)
			assert.Equal(testCase.expectedScore, results[0].RelevanceScore)
		})
	}
}

var shortQueryTestCases = []string{"", "a", "  a  ", "\t"}

func TestRankRejectsShortQueries(t *testing.T) {
	corpus := []content.Document{newDoc("a", "a", "a", "a", "a")}
	for _, query := range shortQueryTestCases {
		t.Run(query, func(t *testing.T) {
			assert := require.New(t)
			results := Rank(corpus, query)
			assert.NotNil(results)
			assert.Empty(results)
		})
	}
}

func TestRankTwoCharacterQueryHasNoTokenBonus(t *testing.T) {
	assert := require.New(t)
	results := Rank([]content.Document{newDoc("go", "Go tips", "", "")}, "go")
	assert.Len(results, 1)
	assert.Equal(10, results[0].RelevanceScore)
}

func TestRankTitleMatchOutranksBodyMatch(t *testing.T) {
	assert := require.New(t)
	corpus := []content.Document{
		newDoc("body-hit", "Other things", "", "some notes on generics"),
		newDoc("title-hit", "Learning Generics", "", "nothing to see"),
	}

	results := Rank(corpus, "generics")
	assert.Equal([]string{"title-hit", "body-hit"}, slugsOf(results))
	assert.Equal(12, results[0].RelevanceScore, "whole-query and token bonuses are summed")
	assert.Equal(4, results[1].RelevanceScore)
}

func TestRankMultiWordQueryScoresTokensIndependently(t *testing.T) {
	assert := require.New(t)
	corpus := []content.Document{
		newDoc("scattered", "Concurrency in Golang", "", "golang channels"),
		newDoc("unrelated", "Cooking", "", "pasta"),
	}

	results := Rank(corpus, "golang concurrency")
	assert.Len(results, 1)
	assert.Equal("scattered", results[0].Document.Slug)
	assert.Equal(MatchContent, results[0].MatchType, "token bonuses never change the match type")
	assert.Equal(2+2+1, results[0].RelevanceScore)
}

func TestRankIsCaseInsensitive(t *testing.T) {
	assert := require.New(t)
	results := Rank([]content.Document{newDoc("tips", "golang tips", "", "")}, "  GoLang ")
	assert.Len(results, 1)
	assert.Equal(MatchTitle, results[0].MatchType)
}

func TestRankKeepsCorpusOrderForTies(t *testing.T) {
	assert := require.New(t)
	corpus := []content.Document{
		newDoc("first", "x", "", "kubernetes"),
		newDoc("top", "kubernetes", "", ""),
		newDoc("second", "y", "", "kubernetes"),
		newDoc("third", "z", "", "kubernetes"),
	}

	results := Rank(corpus, "kubernetes")
	assert.Equal([]string{"top", "first", "second", "third"}, slugsOf(results))
}

func TestRankSkipsUnpublishedAndZeroScores(t *testing.T) {
	assert := require.New(t)
	draft := newDoc("draft", "kubernetes draft", "", "")
	draft.Published = false
	corpus := []content.Document{draft, newDoc("miss", "nothing", "", "")}

	assert.Empty(Rank(corpus, "kubernetes"))
}

func TestServiceCachesPerGeneration(t *testing.T) {
	assert := require.New(t)
	service := New(newTestLogger(), 8)

	first := content.NewSnapshot([]content.Document{newDoc("a", "Kafka basics", "", "", "streams")}, nil, 1, time.Now())
	first.Generation = 1

	results := service.Search(first, "kafka")
	assert.Len(results, 1)
	assert.Equal(1, service.CachedQueries())

	results[0].Document.Tags[0] = "mutated"
	again := service.Search(first, " KAFKA ")
	assert.Equal(1, service.CachedQueries(), "normalized queries share an entry")
	assert.Equal("streams", again[0].Document.Tags[0], "cached results are handed out as copies")

	second := content.NewSnapshot([]content.Document{
		newDoc("b", "Kafka at scale", "", ""),
		newDoc("a", "Kafka basics", "", "", "streams"),
	}, nil, 2, time.Now())
	second.Generation = 2

	results = service.Search(second, "kafka")
	assert.Equal([]string{"b", "a"}, slugsOf(results))
	assert.Equal(2, service.CachedQueries())

	service.Purge()
	assert.Zero(service.CachedQueries())
}

func TestServiceHandlesMissingSnapshot(t *testing.T) {
	assert := require.New(t)
	assert.Empty(New(newTestLogger(), 0).Search(nil, "kafka"))
}
