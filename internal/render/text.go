package render

import (
	"strings"

	"golang.org/x/net/html"
)

// extractText concatenates the text content of a subtree. Block-level
// boundaries become newlines so the result stays readable for search
// indexing and snippets.
func extractText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			return
		}
		if c.Type == html.ElementNode && blockLevel(c.Data) && b.Len() > 0 {
			b.WriteString("\n")
		}
	})
	return strings.TrimSpace(b.String())
}

func blockLevel(tag string) bool {
	switch tag {
	case "p", "li", "pre", "blockquote", "figure", "aside", "div", "hr", "details":
		return true
	}
	return headingLevel(tag) > 0
}
