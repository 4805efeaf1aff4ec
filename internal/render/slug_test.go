package render

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Trimmed  ", "trimmed"},
		{"Mixed CASE & Symbols!", "mixed-case-symbols"},
		{"多言語 Heading", "多言語-heading"},
		{"---", "section"},
		{"", "section"},
		{"already-slugged", "already-slugged"},
	}
	for _, c := range cases {
		if got := slugify(c.in); got != c.want {
			t.Errorf("slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSluggerDeduplicates(t *testing.T) {
	s := newSlugger()
	if got := s.slug("Notes"); got != "notes" {
		t.Errorf("first = %q", got)
	}
	if got := s.slug("Notes"); got != "notes-1" {
		t.Errorf("second = %q", got)
	}
	if got := s.slug("Notes"); got != "notes-2" {
		t.Errorf("third = %q", got)
	}
}

func TestHeadingSlugs(t *testing.T) {
	root := elem("article")
	h1 := elem("h1")
	h1.AppendChild(textNode("Intro"))
	h2 := elem("h2")
	h2.AppendChild(textNode("Intro"))
	fixed := elem("h2", "id", "custom")
	fixed.AppendChild(textNode("Already Tagged"))
	root.AppendChild(h1)
	root.AppendChild(h2)
	root.AppendChild(fixed)

	if err := headingSlugs(root); err != nil {
		t.Fatalf("headingSlugs: %v", err)
	}

	if id, _ := getAttr(h1, "id"); id != "intro" {
		t.Errorf("h1 id = %q", id)
	}
	if id, _ := getAttr(h2, "id"); id != "intro-1" {
		t.Errorf("h2 id = %q", id)
	}
	if id, _ := getAttr(fixed, "id"); id != "custom" {
		t.Errorf("existing id overwritten: %q", id)
	}
}

func TestHeadingLevel(t *testing.T) {
	if lvl := headingLevel("h3"); lvl != 3 {
		t.Errorf("h3 = %d", lvl)
	}
	for _, tag := range []string{"p", "h0", "h7", "header", "h"} {
		if lvl := headingLevel(tag); lvl != 0 {
			t.Errorf("%s = %d, want 0", tag, lvl)
		}
	}
}
