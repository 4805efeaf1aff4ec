// Package render turns a fetched block tree into final markup through an
// ordered chain of tree transforms, extracting a heading outline as a side
// channel and rewriting asset references to locally cached copies.
package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/ansuz/internal/models"
)

// equationTag is the placeholder element emitted for equation blocks; the
// math stage replaces it with renderable notation.
const equationTag = "x-equation"

// buildTree converts the realized block tree into a generic markup tree
// rooted at an <article> element.
func buildTree(blocks []*models.Block) *html.Node {
	root := elem("article")
	appendBlocks(root, blocks)
	return root
}

// appendBlocks renders blocks under parent, grouping consecutive list items
// into a shared <ul>/<ol>.
func appendBlocks(parent *html.Node, blocks []*models.Block) {
	var list *html.Node // open ul/ol being filled
	var listTag string

	flush := func() {
		list = nil
		listTag = ""
	}
	group := func(tag string) *html.Node {
		if list == nil || listTag != tag {
			list = elem(tag)
			listTag = tag
			parent.AppendChild(list)
		}
		return list
	}

	for _, b := range blocks {
		switch b.Type {
		case models.BlockBulletedItem, models.BlockToDo:
			li := elem("li")
			if b.Type == models.BlockToDo {
				box := elem("input", "type", "checkbox", "disabled", "")
				if b.Checked {
					setAttr(box, "checked", "")
				}
				li.AppendChild(box)
			}
			appendSpans(li, b.Text)
			appendBlocks(li, b.Children)
			group("ul").AppendChild(li)
		case models.BlockNumberedItem:
			li := elem("li")
			appendSpans(li, b.Text)
			appendBlocks(li, b.Children)
			group("ol").AppendChild(li)
		default:
			flush()
			if n := buildBlock(b); n != nil {
				parent.AppendChild(n)
			}
		}
	}
}

// buildBlock renders a single non-list block. Unknown kinds are dropped.
func buildBlock(b *models.Block) *html.Node {
	switch b.Type {
	case models.BlockParagraph:
		p := elem("p")
		appendSpans(p, b.Text)
		return withChildren(p, b)
	case models.BlockHeading1, models.BlockHeading2, models.BlockHeading3:
		tag := map[models.BlockType]string{
			models.BlockHeading1: "h1",
			models.BlockHeading2: "h2",
			models.BlockHeading3: "h3",
		}[b.Type]
		h := elem(tag)
		appendSpans(h, b.Text)
		return h
	case models.BlockToggle:
		d := elem("details")
		s := elem("summary")
		appendSpans(s, b.Text)
		d.AppendChild(s)
		appendBlocks(d, b.Children)
		return d
	case models.BlockQuote:
		q := elem("blockquote")
		appendSpans(q, b.Text)
		return withChildren(q, b)
	case models.BlockCallout:
		aside := elem("aside", "class", "callout")
		if icon := calloutIcon(b.Icon); icon != nil {
			aside.AppendChild(icon)
		}
		p := elem("p")
		appendSpans(p, b.Text)
		aside.AppendChild(p)
		appendBlocks(aside, b.Children)
		return aside
	case models.BlockCode:
		pre := elem("pre")
		code := elem("code")
		if b.Language != "" {
			setAttr(code, "class", "language-"+b.Language)
		}
		code.AppendChild(textNode(models.PlainText(b.Text)))
		pre.AppendChild(code)
		return pre
	case models.BlockEquation:
		eq := elem(equationTag)
		eq.AppendChild(textNode(b.Expression))
		return eq
	case models.BlockDivider:
		return elem("hr")
	case models.BlockBookmark:
		p := elem("p", "class", "bookmark")
		a := elem("a", "href", b.URL)
		label := models.PlainText(b.Caption)
		if label == "" {
			label = b.URL
		}
		a.AppendChild(textNode(label))
		p.AppendChild(a)
		return p
	case models.BlockImage:
		fig := elem("figure")
		fig.AppendChild(elem("img", "src", assetSrc(b.Asset), "alt", models.PlainText(b.Caption)))
		if caption := models.PlainText(b.Caption); caption != "" {
			fc := elem("figcaption")
			fc.AppendChild(textNode(caption))
			fig.AppendChild(fc)
		}
		return fig
	case models.BlockVideo:
		return elem("video", "src", assetSrc(b.Asset), "controls", "")
	case models.BlockAudio:
		return elem("audio", "src", assetSrc(b.Asset), "controls", "")
	case models.BlockFile:
		p := elem("p", "class", "file")
		a := elem("a", "href", assetSrc(b.Asset), "download", "")
		name := b.Name
		if name == "" {
			name = models.PlainText(b.Caption)
		}
		a.AppendChild(textNode(name))
		p.AppendChild(a)
		return p
	}
	return nil
}

// withChildren appends nested children after the block's own content.
func withChildren(n *html.Node, b *models.Block) *html.Node {
	appendBlocks(n, b.Children)
	return n
}

// calloutIcon renders a callout icon: cached/remote files become an <img>,
// custom references (emoji) become a text span.
func calloutIcon(ref *models.AssetRef) *html.Node {
	if ref == nil {
		return nil
	}
	if ref.Kind == models.AssetCustom {
		span := elem("span", "class", "icon")
		span.AppendChild(textNode(ref.URL))
		return span
	}
	return elem("img", "class", "icon", "src", assetSrc(ref), "alt", "")
}

// assetSrc prefers the locally cached path, falling back to the remote URL
// when resolution was skipped or failed.
func assetSrc(ref *models.AssetRef) string {
	if ref == nil {
		return ""
	}
	if ref.Resolved() {
		return ref.Local
	}
	return ref.URL
}

// appendSpans renders rich text runs, innermost style last.
func appendSpans(parent *html.Node, spans []models.RichSpan) {
	for _, s := range spans {
		var n *html.Node = textNode(s.Text)
		if s.Code {
			n = wrap("code", n)
		}
		if s.Bold {
			n = wrap("strong", n)
		}
		if s.Italic {
			n = wrap("em", n)
		}
		if s.Strikethrough {
			n = wrap("del", n)
		}
		if s.Underline {
			n = wrap("u", n)
		}
		if s.Href != "" {
			a := elem("a", "href", s.Href)
			a.AppendChild(n)
			n = a
		}
		parent.AppendChild(n)
	}
}

func wrap(tag string, child *html.Node) *html.Node {
	n := elem(tag)
	n.AppendChild(child)
	return n
}

func elem(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// walk visits every node of the tree in document order. The visitor may
// mutate the node but must not detach it.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}
