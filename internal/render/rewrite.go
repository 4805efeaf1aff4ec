package render

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// OptimizedImageAttr carries the opaque optimization-hint payload a
// downstream image-optimization step consumes. When set it is the element's
// only attribute.
const OptimizedImageAttr = "data-optimized-image"

var rasterExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".avif": true,
}

// imageHint is the payload behind OptimizedImageAttr. Index disambiguates
// repeated use of the same source asset within one document.
type imageHint struct {
	Src   string `json:"src"`
	Index int    `json:"index"`
}

// rewriter is the final chain stage: it rewrites every resource-path
// attribute. Cached raster images collapse into an optimization hint;
// upward-relative and source-rooted paths become site-absolute. Link targets
// get the path rewrite but never the hint.
type rewriter struct {
	cached map[string]bool // virtual paths cached during this render
	occ    map[string]int
}

func newRewriter(cached []string) *rewriter {
	m := make(map[string]bool, len(cached))
	for _, p := range cached {
		m[p] = true
	}
	return &rewriter{cached: m, occ: make(map[string]int)}
}

func (rw *rewriter) stage(doc *html.Node) error {
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if n.Data == "a" {
			if href, ok := getAttr(n, "href"); ok {
				setAttr(n, "href", rewritePath(decodePath(href)))
			}
			return
		}
		src, ok := getAttr(n, "src")
		if !ok {
			return
		}
		p := decodePath(src)
		if rw.cached[p] && rasterExts[strings.ToLower(path.Ext(p))] {
			idx := rw.occ[p]
			rw.occ[p]++
			payload, _ := json.Marshal(imageHint{Src: p, Index: idx})
			n.Attr = []html.Attribute{{Key: OptimizedImageAttr, Val: string(payload)}}
			return
		}
		setAttr(n, "src", rewritePath(p))
	})
	return nil
}

// decodePath undoes percent-encoding, keeping the raw value when it does not
// decode cleanly.
func decodePath(p string) string {
	if d, err := url.PathUnescape(p); err == nil {
		return d
	}
	return p
}

// rewritePath maps relative-upward and source-rooted references to
// site-absolute paths; everything else passes through.
func rewritePath(p string) string {
	switch {
	case strings.HasPrefix(p, "../"):
		for strings.HasPrefix(p, "../") {
			p = strings.TrimPrefix(p, "../")
		}
		return "/" + p
	case strings.HasPrefix(p, "/src/"):
		return strings.TrimPrefix(p, "/src")
	case strings.HasPrefix(p, "src/"):
		return strings.TrimPrefix(p, "src")
	}
	return p
}
