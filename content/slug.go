package content

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// SlugFromFilename strips the extension: "hello-world.mdx" -> "hello-world".
func SlugFromFilename(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// TagSlug lowercases a tag name and replaces whitespace runs with hyphens.
func TagSlug(name string) string {
	return whitespaceRegex.ReplaceAllString(strings.ToLower(name), "-")
}

// TitleFromSlug turns "my-first_post" into "My First Post".
func TitleFromSlug(slug string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(strings.Join(strings.Fields(words), " "))
}
