package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/store"
)

// NewRouter creates a chi router with the read-only preview routes mounted.
// The collection is derived output, so there are no mutating routes; the
// next sync pass would overwrite anything a client changed.
func NewRouter(st store.Store, authEnabled bool, token string) chi.Router {
	h := NewHandler(st)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/{id}", h.GetDocument)
	r.Get("/documents/{id}/outline", h.GetOutline)
	r.Get("/search", h.Search)

	return r
}
