package render

import (
	"errors"
	"testing"

	"golang.org/x/net/html"
)

func heading(level int, text string) *html.Node {
	h := elem([]string{"", "h1", "h2", "h3", "h4", "h5", "h6"}[level])
	h.AppendChild(textNode(text))
	return h
}

func docWithHeadings(hs ...*html.Node) *html.Node {
	root := elem("article")
	for _, h := range hs {
		root.AppendChild(h)
	}
	return root
}

func TestTOCRoundTrip(t *testing.T) {
	root := docWithHeadings(
		heading(1, "Intro"),
		heading(2, "Setup"),
		heading(3, "Details"),
		heading(2, "Usage"),
		heading(1, "Appendix"),
	)
	if err := headingSlugs(root); err != nil {
		t.Fatal(err)
	}
	if err := buildTOC(root); err != nil {
		t.Fatalf("buildTOC: %v", err)
	}

	outline, err := extractOutline(root)
	if err != nil {
		t.Fatalf("extractOutline: %v", err)
	}

	want := []struct {
		depth int
		text  string
		slug  string
	}{
		{0, "Intro", "intro"},
		{1, "Setup", "setup"},
		{2, "Details", "details"},
		{1, "Usage", "usage"},
		{0, "Appendix", "appendix"},
	}
	if len(outline) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(outline), len(want), outline)
	}
	for i, w := range want {
		e := outline[i]
		if e.Depth != w.depth || e.Text != w.text || e.Slug != w.slug {
			t.Errorf("entry %d = %+v, want %+v", i, e, w)
		}
	}
}

func TestTOCNavIsRemoved(t *testing.T) {
	root := docWithHeadings(heading(1, "Only"))
	if err := headingSlugs(root); err != nil {
		t.Fatal(err)
	}
	if err := buildTOC(root); err != nil {
		t.Fatal(err)
	}
	if _, err := extractOutline(root); err != nil {
		t.Fatal(err)
	}

	walk(root, func(n *html.Node) {
		if isElem(n, "nav") {
			t.Error("nav still present after outline extraction")
		}
	})
}

func TestTOCDepthNormalizedToShallowestHeading(t *testing.T) {
	// Document starting at h2: its headings still begin at depth 0.
	root := docWithHeadings(heading(2, "First"), heading(3, "Nested"))
	if err := headingSlugs(root); err != nil {
		t.Fatal(err)
	}
	if err := buildTOC(root); err != nil {
		t.Fatal(err)
	}
	outline, err := extractOutline(root)
	if err != nil {
		t.Fatal(err)
	}
	if outline[0].Depth != 0 || outline[1].Depth != 1 {
		t.Errorf("depths = %d, %d", outline[0].Depth, outline[1].Depth)
	}
}

func TestTOCEmptyDocument(t *testing.T) {
	root := docWithHeadings()
	if err := buildTOC(root); err != nil {
		t.Fatal(err)
	}
	outline, err := extractOutline(root)
	if err != nil {
		t.Fatalf("extractOutline: %v", err)
	}
	if len(outline) != 0 {
		t.Errorf("outline = %+v, want empty", outline)
	}
}

func TestExtractOutlineMissingNav(t *testing.T) {
	root := docWithHeadings(heading(1, "No TOC Ran"))
	if _, err := extractOutline(root); !errors.Is(err, ErrMalformedTOC) {
		t.Errorf("err = %v, want ErrMalformedTOC", err)
	}
}

func TestExtractOutlineMalformedShape(t *testing.T) {
	root := elem("article")
	nav := elem("nav", tocAttr, "")
	ol := elem("ol")
	// A paragraph where a list item belongs breaks the expected shape.
	ol.AppendChild(elem("p"))
	nav.AppendChild(ol)
	root.AppendChild(nav)

	if _, err := extractOutline(root); !errors.Is(err, ErrMalformedTOC) {
		t.Errorf("err = %v, want ErrMalformedTOC", err)
	}
}
