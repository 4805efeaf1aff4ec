package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

func seedEntry(t *testing.T, db store.Store, id, title string) {
	t.Helper()
	err := db.Set(&models.Entry{
		ID:          id,
		Fingerprint: "fp",
		Title:       title,
		Markup:      "<article><p>body of " + title + "</p></article>",
		Plain:       "body of " + title,
		Checksum:    "c",
		Outline:     []models.OutlineEntry{{Depth: 0, Text: title, Slug: "top"}},
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestListDocuments(t *testing.T) {
	db := testutil.TestStore(t)
	seedEntry(t, db, "a", "Alpha")
	seedEntry(t, db, "b", "Beta")
	router := NewRouter(db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Documents []store.Summary `json:"documents"`
		Total     int             `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Total != 2 || len(body.Documents) != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestGetDocument(t *testing.T) {
	db := testutil.TestStore(t)
	seedEntry(t, db, "a", "Alpha")
	router := NewRouter(db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/a", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var entry models.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &entry)
	if entry.ID != "a" || entry.Title != "Alpha" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	db := testutil.TestStore(t)
	router := NewRouter(db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetOutline(t *testing.T) {
	db := testutil.TestStore(t)
	seedEntry(t, db, "a", "Alpha")
	router := NewRouter(db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/a/outline", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Outline []models.OutlineEntry `json:"outline"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Outline) != 1 || body.Outline[0].Slug != "top" {
		t.Errorf("outline = %+v", body.Outline)
	}
}

func TestSearch(t *testing.T) {
	db := testutil.TestStore(t)
	seedEntry(t, db, "a", "Gardening")
	seedEntry(t, db, "b", "Cooking")
	router := NewRouter(db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/search?q=Gardening", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Results []store.SearchResult `json:"results"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Results) != 1 || body.Results[0].ID != "a" {
		t.Errorf("results = %+v", body.Results)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	db := testutil.TestStore(t)
	router := NewRouter(db, false, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthTokenMode(t *testing.T) {
	db := testutil.TestStore(t)
	router := NewRouter(db, true, "secret")

	// No token → 401.
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	// Wrong token → 401.
	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	// Correct token → 200.
	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("correct token status = %d, want 200", w.Code)
	}
}

func TestAssetHandlerServesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "obj"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "obj", "pic.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Get("/assets/*", NewAssetHandler(dir).ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/assets/obj/pic.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "png-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestAssetHandlerMissingFile(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/assets/*", NewAssetHandler(t.TempDir()).ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/assets/obj/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAssetHandlerRejectsTraversal(t *testing.T) {
	h := NewAssetHandler(t.TempDir())
	if _, err := h.safePath("../etc/passwd"); err == nil {
		t.Error("traversal path accepted")
	}
	if _, err := h.safePath("/abs/path"); err == nil {
		t.Error("absolute path accepted")
	}
	if _, err := h.safePath(""); err == nil {
		t.Error("empty path accepted")
	}
}
