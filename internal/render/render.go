package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/assets"
	"github.com/starford/ansuz/internal/blocks"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/models"
)

// Output formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Renderer orchestrates the block fetch and the transform chain for one
// document: document-level asset resolution, tree fetch, the mandatory
// stages, the configured optional stages, outline extraction, the asset
// rewrite, and serialization, strictly in that order.
type Renderer struct {
	fetcher *blocks.Fetcher
	cache   *assets.Cache
	extra   []Stage
	format  string
	logger  *slog.Logger
}

// New creates a Renderer. extra stages run between the mandatory chain and
// outline extraction, in the order supplied.
func New(fetcher *blocks.Fetcher, cache *assets.Cache, extra []Stage, format string, logger *slog.Logger) *Renderer {
	if format == "" {
		format = FormatHTML
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{fetcher: fetcher, cache: cache, extra: extra, format: format, logger: logger}
}

// Render produces the store entry for one document. Any stage failure is
// returned as an error; the caller skips the document without a partial
// write. The returned Stats cover every asset touched by this render.
func (r *Renderer) Render(ctx context.Context, doc *models.Document) (*models.Entry, *assets.Stats, error) {
	stats := &assets.Stats{}

	// Document-level references (cover, icon, file-valued properties) are
	// independent of each other; resolve them concurrently. Failures degrade
	// to the remote URL, same as block-level assets.
	g, gctx := errgroup.WithContext(ctx)
	for _, ref := range docRefs(doc) {
		g.Go(func() error {
			if _, err := r.cache.Resolve(gctx, ref, stats); err != nil {
				r.logger.Warn("document asset resolve failed, keeping remote URL",
					slog.String("doc", doc.ID),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()

	tree, err := r.fetcher.FetchTree(ctx, doc.ID, stats)
	if err != nil {
		return nil, stats, fmt.Errorf("render %s: %w", doc.ID, err)
	}
	cached := cachedPaths(doc, tree)

	root := buildTree(tree)
	chain := []Stage{headingSlugs, mathNotation, buildTOC}
	chain = append(chain, r.extra...)
	for _, st := range chain {
		if err := st(root); err != nil {
			return nil, stats, fmt.Errorf("render %s: stage: %w", doc.ID, err)
		}
	}

	outline, err := extractOutline(root)
	if err != nil {
		return nil, stats, fmt.Errorf("render %s: %w", doc.ID, err)
	}
	if err := newRewriter(cached).stage(root); err != nil {
		return nil, stats, fmt.Errorf("render %s: rewrite: %w", doc.ID, err)
	}
	plain := extractText(root)

	markup, err := r.serialize(root)
	if err != nil {
		return nil, stats, fmt.Errorf("render %s: serialize: %w", doc.ID, err)
	}

	return &models.Entry{
		ID:          doc.ID,
		Fingerprint: doc.Fingerprint,
		Title:       doc.Title,
		Properties:  doc.Properties,
		Markup:      markup,
		Plain:       plain,
		Checksum:    checksum.Sum([]byte(markup)),
		Outline:     outline,
		Assets:      cached,
		UpdatedAt:   time.Now().UTC(),
	}, stats, nil
}

func (r *Renderer) serialize(root *html.Node) (string, error) {
	if r.format == FormatMarkdown {
		md, err := htmltomarkdown.ConvertNode(root)
		if err != nil {
			return "", err
		}
		return string(md), nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// docRefs collects the document-level asset references.
func docRefs(doc *models.Document) []*models.AssetRef {
	var refs []*models.AssetRef
	if doc.Cover != nil {
		refs = append(refs, doc.Cover)
	}
	if doc.Icon != nil {
		refs = append(refs, doc.Icon)
	}
	for _, p := range doc.Properties {
		if p != nil && p.Type == models.PropertyFiles {
			refs = append(refs, p.Files...)
		}
	}
	return refs
}

// cachedPaths lists the virtual paths of every reference resolved for this
// render, document-level and block-level, sorted and deduplicated. The block
// walk uses an explicit stack to match the fetcher's depth tolerance.
func cachedPaths(doc *models.Document, tree []*models.Block) []string {
	seen := make(map[string]bool)
	for _, ref := range docRefs(doc) {
		if ref.Resolved() {
			seen[ref.Local] = true
		}
	}

	stack := append([]*models.Block(nil), tree...)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ref := b.AssetRef(); ref.Resolved() {
			seen[ref.Local] = true
		}
		stack = append(stack, b.Children...)
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
