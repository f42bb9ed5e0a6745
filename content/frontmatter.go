package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

var dateFormats = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// FrontMatter is the metadata block at the top of a document. Keys outside
// the named fields are kept in Extra.
type FrontMatter struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Date        string         `yaml:"date"`
	Tags        Tags           `yaml:"tags"`
	Author      string         `yaml:"author"`
	Published   *bool          `yaml:"published"`
	Extra       map[string]any `yaml:",inline"`
}

// Tags accepts either a YAML list or a single comma separated string.
type Tags []string

func (t *Tags) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*t = normalizeTags(strings.Split(raw, ","))
	case yaml.SequenceNode:
		var raw []string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*t = normalizeTags(raw)
	default:
		return fmt.Errorf("line %d: tags must be a list or a comma separated string", value.Line)
	}
	return nil
}

func normalizeTags(raw []string) Tags {
	seen := make(map[string]struct{}, len(raw))
	tags := make(Tags, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

type MalformedFrontMatterError struct {
	Path string
	Err  error
}

func (e *MalformedFrontMatterError) Error() string {
	return fmt.Sprintf("malformed front matter in %s: %s", e.Path, e.Err)
}

func (e *MalformedFrontMatterError) Unwrap() error {
	return e.Err
}

// ParseFrontMatter splits raw into its front matter and body. A document
// without a front matter block yields a zero FrontMatter and the full input.
func ParseFrontMatter(path string, raw []byte) (FrontMatter, string, error) {
	var matter FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &matter, yamlFormat)
	if err != nil {
		return FrontMatter{}, "", &MalformedFrontMatterError{Path: path, Err: err}
	}
	return matter, string(body), nil
}

// ParseDate returns the zero time when value matches none of the accepted layouts.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
