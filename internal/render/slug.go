package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var slugSepRe = regexp.MustCompile(`[^\pL\pN]+`)

// slugify lowercases text and collapses every non-letter/digit run into a
// single dash. Empty results fall back to "section".
func slugify(text string) string {
	s := slugSepRe.ReplaceAllString(strings.ToLower(text), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "section"
	}
	return s
}

// slugger hands out unique slugs within one document by suffixing repeats.
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: make(map[string]int)}
}

func (s *slugger) slug(text string) string {
	base := slugify(text)
	n := s.seen[base]
	s.seen[base] = n + 1
	if n > 0 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

// headingSlugs assigns a stable id to every heading that lacks one.
// Mandatory stage; the TOC builder and outline extraction rely on the ids.
func headingSlugs(doc *html.Node) error {
	s := newSlugger()
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || headingLevel(n.Data) == 0 {
			return
		}
		if _, ok := getAttr(n, "id"); ok {
			return
		}
		setAttr(n, "id", s.slug(extractText(n)))
	})
	return nil
}

// headingLevel returns 1..6 for h1..h6 tags, 0 otherwise.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}
