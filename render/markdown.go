package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

type Page struct {
	HTML     string    `json:"html"`
	Headings []Heading `json:"headings"`
}

// Renderer converts document bodies to HTML. Raw HTML in the source is
// omitted from the output.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Render converts body to HTML and collects its headings for a table of
// contents. Links leaving the site open in a new tab.
func (r *Renderer) Render(body string) (*Page, error) {
	source := []byte(body)
	doc := r.md.Parser().Parse(text.NewReader(source))

	page := &Page{Headings: []Heading{}}
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			page.Headings = append(page.Headings, newHeading(n, source))
		case *ast.Link:
			if isExternal(string(n.Destination)) {
				n.SetAttributeString("target", []byte("_blank"))
				n.SetAttributeString("rel", []byte("noopener noreferrer"))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown: %w", err)
	}

	var html bytes.Buffer
	if err := r.md.Renderer().Render(&html, source, doc); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	page.HTML = html.String()

	return page, nil
}

func newHeading(n *ast.Heading, source []byte) Heading {
	heading := Heading{Level: n.Level, Text: headingText(n, source)}
	if id, ok := n.AttributeString("id"); ok {
		if value, ok := id.([]byte); ok {
			heading.ID = string(value)
		}
	}
	return heading
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := child.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
			if c.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func isExternal(destination string) bool {
	return !strings.HasPrefix(destination, "/") && !strings.HasPrefix(destination, "#")
}
