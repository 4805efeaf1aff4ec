// Package sync brings the local store up to date with the remote workspace:
// new and changed documents are rendered and upserted, documents gone from
// the remote enumeration are deleted.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/remote"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/store"
)

// Report summarizes one sync pass.
type Report struct {
	Created   int
	Updated   int
	Skipped   int
	Deleted   int
	Failed    int
	Downloads int64
	CacheHits int64
}

// Controller runs sync passes. Force treats every document as changed
// regardless of fingerprint comparison.
type Controller struct {
	source   remote.PageSource
	renderer *render.Renderer
	store    store.Store
	logger   *slog.Logger
	query    remote.Query
	force    bool
}

// NewController creates a Controller.
func NewController(source remote.PageSource, renderer *render.Renderer, st store.Store, logger *slog.Logger, q remote.Query, force bool) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source:   source,
		renderer: renderer,
		store:    st,
		logger:   logger,
		query:    q,
		force:    force,
	}
}

// Run executes one full pass. Render tasks for different documents run
// concurrently and are joined before the pass completes; per-document
// failures are counted, never fatal. Only a failure of the remote
// enumeration itself aborts the pass.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	cached, err := c.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("sync: read cached ids: %w", err)
	}

	report := &Report{}
	var mu gosync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	cursor := ""
	for {
		items, next, err := c.source.Pages(ctx, cursor, c.query)
		if err != nil {
			return nil, fmt.Errorf("sync: enumerate remote: %w", err)
		}
		for _, it := range items {
			if it.Partial || it.Doc == nil {
				continue
			}
			doc := it.Doc

			prev, known := cached[doc.ID]
			delete(cached, doc.ID) // seen remotely; survives deletion reconciliation

			if known && prev == doc.Fingerprint && !c.force {
				report.Skipped++
				continue
			}

			g.Go(func() error {
				entry, stats, rerr := c.renderer.Render(gctx, doc)

				mu.Lock()
				defer mu.Unlock()
				report.Downloads += stats.Downloads.Load()
				report.CacheHits += stats.Hits.Load()
				if rerr != nil {
					c.logger.Error("render failed, skipping document",
						slog.String("doc", doc.ID),
						slog.String("error", rerr.Error()))
					report.Failed++
					return nil
				}
				if serr := c.store.Set(entry); serr != nil {
					c.logger.Error("store write failed",
						slog.String("doc", doc.ID),
						slog.String("error", serr.Error()))
					report.Failed++
					return nil
				}
				if known {
					report.Updated++
				} else {
					report.Created++
				}
				c.logger.Debug("document synced", slog.String("doc", doc.ID))
				return nil
			})
		}
		if next == "" {
			break
		}
		cursor = next
	}

	// All scheduled renders settle before deletions are reconciled.
	_ = g.Wait()

	for id := range cached {
		if err := c.store.Delete(id); err != nil {
			c.logger.Warn("delete failed",
				slog.String("doc", id),
				slog.String("error", err.Error()))
			report.Failed++
			continue
		}
		report.Deleted++
		c.logger.Debug("removed stale document", slog.String("doc", id))
	}

	c.logger.Info("sync pass complete",
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped),
		slog.Int("deleted", report.Deleted),
		slog.Int("failed", report.Failed),
		slog.Int64("downloads", report.Downloads),
		slog.Int64("cache_hits", report.CacheHits))
	return report, nil
}
