package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// AssetHandler serves cached asset files read-only.
type AssetHandler struct {
	root string
}

// NewAssetHandler creates a handler rooted at the asset cache directory.
func NewAssetHandler(root string) *AssetHandler {
	return &AssetHandler{root: root}
}

// safePath validates that rel stays under the cache root (no traversal)
// and returns the absolute path.
func (h *AssetHandler) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("asset path is required")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid asset path: %s", rel)
	}
	abs := filepath.Join(h.root, cleaned)
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) && abs != h.root {
		return "", fmt.Errorf("path escapes asset root")
	}
	return abs, nil
}

// ServeFile handles GET /assets/*.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	abs, err := h.safePath(rel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
