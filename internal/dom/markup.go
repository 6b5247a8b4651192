package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseMarkup parses markup as the content of context and returns the
// resulting detached top-level nodes.
func ParseMarkup(context *html.Node, markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return nodes, nil
}

// DecodeText interprets content as markup and returns only its text, so
// entities are decoded and tags are dropped.
func DecodeText(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return content
	}
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return content
	}
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(TextContent(n))
	}
	return sb.String()
}
