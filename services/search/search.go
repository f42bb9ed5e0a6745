package search

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/meghashyamc/folio/content"
)

type MatchType string

const (
	MatchTitle       MatchType = "title"
	MatchDescription MatchType = "description"
	MatchTags        MatchType = "tags"
	MatchContent     MatchType = "content"
)

const minQueryLength = 2

const (
	scoreTitle       = 10
	scoreDescription = 7
	scoreTags        = 5
	scoreContent     = 3

	tokenScoreTitle       = 2
	tokenScoreDescription = 1
	tokenScoreContent     = 1
)

type Result struct {
	Document       content.Document `json:"document"`
	RelevanceScore int              `json:"relevance_score"`
	MatchType      MatchType        `json:"match_type"`
}

// Rank scores every document against query and returns the ones that match,
// best first. Documents with equal scores keep their corpus order.
//
// The whole query and each of its longer tokens are scored independently and
// summed, so a one-word query that appears in a title earns both bonuses.
func Rank(documents []content.Document, query string) []Result {
	term := normalizeQuery(query)
	if utf8.RuneCountInString(term) < minQueryLength {
		return []Result{}
	}
	tokens := tokenize(term)

	results := []Result{}
	for _, doc := range documents {
		if !doc.Published {
			continue
		}
		if result, ok := score(doc, term, tokens); ok {
			results = append(results, result)
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return b.RelevanceScore - a.RelevanceScore
	})

	return results
}

func score(doc content.Document, term string, tokens []string) (Result, bool) {
	title := strings.ToLower(doc.Title)
	description := strings.ToLower(doc.Description)
	body := strings.ToLower(doc.RawBody)

	relevance := 0
	matchType := MatchContent

	if strings.Contains(title, term) {
		relevance += scoreTitle
		matchType = MatchTitle
	}
	if strings.Contains(description, term) {
		relevance += scoreDescription
		if matchType == MatchContent {
			matchType = MatchDescription
		}
	}
	if tagsContain(doc.Tags, term) {
		relevance += scoreTags
		if matchType == MatchContent {
			matchType = MatchTags
		}
	}
	if strings.Contains(body, term) {
		relevance += scoreContent
	}

	for _, token := range tokens {
		if strings.Contains(title, token) {
			relevance += tokenScoreTitle
		}
		if strings.Contains(description, token) {
			relevance += tokenScoreDescription
		}
		if strings.Contains(body, token) {
			relevance += tokenScoreContent
		}
	}

	if relevance == 0 {
		return Result{}, false
	}
	return Result{Document: doc, RelevanceScore: relevance, MatchType: matchType}, true
}

func tagsContain(tags []string, term string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
