// Package blocks realizes the content tree of one document.
package blocks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/assets"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/remote"
)

// Fetcher walks the remote block hierarchy and resolves asset references
// inline for the asset-bearing block kinds.
type Fetcher struct {
	source remote.BlockSource
	cache  *assets.Cache
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. cache may be nil to skip asset resolution.
func NewFetcher(source remote.BlockSource, cache *assets.Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, cache: cache, logger: logger}
}

// FetchTree returns the realized content tree under rootID. Children are
// fully resolved before the tree is returned; partial child records are
// silently skipped. The walk uses an explicit frontier instead of native
// recursion so arbitrarily deep trees cannot exhaust the call stack.
func (f *Fetcher) FetchTree(ctx context.Context, rootID string, stats *assets.Stats) ([]*models.Block, error) {
	root := &models.Block{ID: rootID, HasChildren: true}

	frontier := []*models.Block{root}
	for len(frontier) > 0 {
		parent := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		cursor := ""
		for {
			items, next, err := f.source.Children(ctx, parent.ID, cursor)
			if err != nil {
				return nil, fmt.Errorf("blocks: children of %s: %w", parent.ID, err)
			}
			for _, it := range items {
				if it.Partial || it.Block == nil {
					continue
				}
				b := it.Block
				f.resolveAsset(ctx, b, stats)
				parent.Children = append(parent.Children, b)
				if b.HasChildren {
					frontier = append(frontier, b)
				}
			}
			if next == "" {
				break
			}
			cursor = next
		}
	}

	return root.Children, nil
}

// resolveAsset caches the block's asset reference if it carries one.
// A failure leaves the reference pointing at the original remote URL.
func (f *Fetcher) resolveAsset(ctx context.Context, b *models.Block, stats *assets.Stats) {
	ref := b.AssetRef()
	if ref == nil || f.cache == nil {
		return
	}
	if _, err := f.cache.Resolve(ctx, ref, stats); err != nil {
		f.logger.Warn("asset resolve failed, keeping remote URL",
			slog.String("block", b.ID),
			slog.String("error", err.Error()))
	}
}
