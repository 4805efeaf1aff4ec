package render

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/starford/ansuz/internal/models"
)

// tocAttr marks the navigation list the TOC builder emits.
const tocAttr = "data-toc"

// ErrMalformedTOC means the navigation-list structure was missing or did not
// have the expected nav>ol>li shape. This is a broken chain assumption and
// escalates to a per-document render failure rather than being swallowed.
var ErrMalformedTOC = errors.New("render: malformed table of contents")

// buildTOC emits a <nav data-toc> nested list mirroring the document's
// heading structure. It runs after headingSlugs so every entry can anchor.
func buildTOC(doc *html.Node) error {
	type heading struct {
		level int
		text  string
		slug  string
	}
	var hs []heading
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		lvl := headingLevel(n.Data)
		if lvl == 0 {
			return
		}
		slug, _ := getAttr(n, "id")
		hs = append(hs, heading{level: lvl, text: extractText(n), slug: slug})
	})

	top := elem("ol")
	minLevel := 7
	for _, h := range hs {
		if h.level < minLevel {
			minLevel = h.level
		}
	}

	stack := []*html.Node{top}
	for _, h := range hs {
		depth := h.level - minLevel
		for len(stack)-1 > depth {
			stack = stack[:len(stack)-1]
		}
		for len(stack)-1 < depth {
			cur := stack[len(stack)-1]
			li := cur.LastChild
			if li == nil {
				li = elem("li")
				cur.AppendChild(li)
			}
			nested := elem("ol")
			li.AppendChild(nested)
			stack = append(stack, nested)
		}
		li := elem("li")
		a := elem("a", "href", "#"+h.slug)
		a.AppendChild(textNode(h.text))
		li.AppendChild(a)
		stack[len(stack)-1].AppendChild(li)
	}

	nav := elem("nav", tocAttr, "")
	nav.AppendChild(top)
	doc.InsertBefore(nav, doc.FirstChild)
	return nil
}

// extractOutline flattens the navigation list into a depth-ordered outline
// and removes the nav from the tree so it is not emitted in final output.
func extractOutline(doc *html.Node) ([]models.OutlineEntry, error) {
	var nav *html.Node
	walk(doc, func(n *html.Node) {
		if nav == nil && n.Type == html.ElementNode && n.Data == "nav" {
			if _, ok := getAttr(n, tocAttr); ok {
				nav = n
			}
		}
	})
	if nav == nil {
		return nil, fmt.Errorf("%w: navigation list not found", ErrMalformedTOC)
	}

	var outline []models.OutlineEntry
	for c := nav.FirstChild; c != nil; c = c.NextSibling {
		if !isElem(c, "ol") {
			return nil, fmt.Errorf("%w: expected list under nav, got %q", ErrMalformedTOC, c.Data)
		}
		if err := flattenList(c, 0, &outline); err != nil {
			return nil, err
		}
	}

	nav.Parent.RemoveChild(nav)
	return outline, nil
}

// flattenList walks one <ol>, appending its items at the given depth and
// descending into nested lists.
func flattenList(ol *html.Node, depth int, out *[]models.OutlineEntry) error {
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if !isElem(li, "li") {
			return fmt.Errorf("%w: expected list item, got %q", ErrMalformedTOC, li.Data)
		}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case isElem(c, "a"):
				href, _ := getAttr(c, "href")
				*out = append(*out, models.OutlineEntry{
					Depth: depth,
					Text:  extractText(c),
					Slug:  strings.TrimPrefix(href, "#"),
				})
			case isElem(c, "ol"):
				if err := flattenList(c, depth+1, out); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: unexpected node in list item", ErrMalformedTOC)
			}
		}
	}
	return nil
}

func isElem(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}
