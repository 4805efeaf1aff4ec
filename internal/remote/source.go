// Package remote defines the paginated boundary to the upstream workspace
// and the Notion adapter behind it.
package remote

import (
	"context"

	"github.com/starford/ansuz/internal/models"
)

// Query filters the document enumeration.
type Query struct {
	// IncludeArchived also yields archived documents; by default the
	// enumeration is restricted to live ones.
	IncludeArchived bool
}

// PageItem is one enumerated document. Partial entries are visible but
// unreadable (the integration lacks access to their content) and must be
// skipped by callers.
type PageItem struct {
	Doc     *models.Document
	Partial bool
}

// PageSource enumerates remote documents as a lazy, restartable paginated
// sequence. An empty cursor starts from the beginning; an empty next cursor
// ends the sequence.
type PageSource interface {
	Pages(ctx context.Context, cursor string, q Query) (items []PageItem, next string, err error)
}

// BlockItem is one child block; Partial entries are skipped like partial pages.
type BlockItem struct {
	Block   *models.Block
	Partial bool
}

// BlockSource lists the immediate children of a parent block or document.
type BlockSource interface {
	Children(ctx context.Context, parentID, cursor string) (items []BlockItem, next string, err error)
}
