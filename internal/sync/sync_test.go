package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/assets"
	"github.com/starford/ansuz/internal/blocks"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/remote"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

// fakePages enumerates a fixed document list, optionally split into pages.
type fakePages struct {
	items    []remote.PageItem
	pageSize int
	err      error
}

func (f *fakePages) Pages(_ context.Context, cursor string, _ remote.Query) ([]remote.PageItem, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if f.pageSize <= 0 || len(f.items) <= f.pageSize {
		return f.items, "", nil
	}
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
	}
	end := start + f.pageSize
	next := ""
	if end < len(f.items) {
		next = fmt.Sprintf("%d", end)
	} else {
		end = len(f.items)
	}
	return f.items[start:end], next, nil
}

// fakeBlocks serves one paragraph per document; ids listed in failFor error out.
type fakeBlocks struct {
	failFor map[string]bool
}

func (f *fakeBlocks) Children(_ context.Context, parentID, _ string) ([]remote.BlockItem, string, error) {
	if f.failFor[parentID] {
		return nil, "", fmt.Errorf("children unavailable")
	}
	return []remote.BlockItem{{Block: &models.Block{
		ID:   parentID + "-p",
		Type: models.BlockParagraph,
		Text: []models.RichSpan{{Text: "content of " + parentID}},
	}}}, "", nil
}

func doc(id, fingerprint string) *models.Document {
	return &models.Document{ID: id, Fingerprint: fingerprint, Title: "Doc " + id}
}

func testController(t *testing.T, pages *fakePages, db store.Store, force bool) *Controller {
	t.Helper()
	return testControllerBlocks(t, pages, &fakeBlocks{}, db, force)
}

func testControllerBlocks(t *testing.T, pages *fakePages, bs remote.BlockSource, db store.Store, force bool) *Controller {
	t.Helper()
	cache, err := assets.New(t.TempDir(), false, nil)
	if err != nil {
		t.Fatalf("assets.New: %v", err)
	}
	renderer := render.New(blocks.NewFetcher(bs, cache, nil), cache, nil, render.FormatHTML, nil)
	return NewController(pages, renderer, db, nil, remote.Query{}, force)
}

func TestFirstPassCreates(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{
		{Doc: doc("a", "fp1")},
		{Doc: doc("b", "fp1")},
	}}
	ctrl := testController(t, pages, db, false)

	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Created != 2 || report.Updated != 0 || report.Skipped != 0 {
		t.Errorf("report = %+v", report)
	}

	entry, err := db.Get("a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Fingerprint != "fp1" || entry.Markup == "" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestSecondPassSkipsUnchanged(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{{Doc: doc("a", "fp1")}, {Doc: doc("b", "fp1")}}}
	ctrl := testController(t, pages, db, false)

	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 2 || report.Created != 0 || report.Updated != 0 {
		t.Errorf("second pass report = %+v", report)
	}
}

func TestFingerprintChangeUpdates(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{{Doc: doc("a", "fp1")}, {Doc: doc("b", "fp1")}}}
	ctrl := testController(t, pages, db, false)
	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	pages.items[0] = remote.PageItem{Doc: doc("a", "fp2")}
	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Updated != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
	entry, _ := db.Get("a")
	if entry.Fingerprint != "fp2" {
		t.Errorf("fingerprint = %q", entry.Fingerprint)
	}
}

// Third-pass scenario: two documents synced, then one is updated upstream
// and the other deleted, both reconciled in a single pass.
func TestUpdateAndDeleteInOnePass(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{{Doc: doc("a", "t1")}, {Doc: doc("b", "t1")}}}
	ctrl := testController(t, pages, db, false)
	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	pages.items = []remote.PageItem{{Doc: doc("b", "t2")}}
	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Updated != 1 || report.Deleted != 1 || report.Created != 0 {
		t.Errorf("report = %+v", report)
	}
	if _, err := db.Get("a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("deleted document survived")
	}
	entry, err := db.Get("b")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Fingerprint != "t2" {
		t.Errorf("fingerprint = %q", entry.Fingerprint)
	}
}

func TestForceRerendersUnchanged(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{{Doc: doc("a", "fp1")}}}
	if _, err := testController(t, pages, db, false).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	report, err := testController(t, pages, db, true).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Updated != 1 || report.Skipped != 0 {
		t.Errorf("forced report = %+v", report)
	}
}

func TestDeletionReconciliation(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{{Doc: doc("a", "fp1")}, {Doc: doc("b", "fp1")}}}
	ctrl := testController(t, pages, db, false)
	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	pages.items = pages.items[:1]
	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Deleted != 1 {
		t.Errorf("report = %+v", report)
	}
	if _, err := db.Get("b"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale entry survived: %v", err)
	}
	if _, err := db.Get("a"); err != nil {
		t.Errorf("live entry gone: %v", err)
	}
}

func TestPartialDocumentsSkipped(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{
		{Doc: doc("a", "fp1")},
		{Doc: doc("ghost", "fp1"), Partial: true},
	}}
	ctrl := testController(t, pages, db, false)

	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 1 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if _, err := db.Get("ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("partial document was written")
	}
}

// A partial document does not shield a previously synced copy from deletion:
// unreadable remotely means gone locally.
func TestPartialDocumentAgesOut(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{{Doc: doc("a", "fp1")}}}
	ctrl := testController(t, pages, db, false)
	if _, err := ctrl.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	pages.items = []remote.PageItem{{Doc: doc("a", "fp1"), Partial: true}}
	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Deleted != 1 {
		t.Errorf("report = %+v", report)
	}
	if _, err := db.Get("a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("partial document kept its stale entry")
	}
}

func TestRenderFailureIsolated(t *testing.T) {
	db := testutil.TestStore(t)
	pages := &fakePages{items: []remote.PageItem{
		{Doc: doc("bad", "fp1")},
		{Doc: doc("good", "fp1")},
	}}
	ctrl := testControllerBlocks(t, pages, &fakeBlocks{failFor: map[string]bool{"bad": true}}, db, false)

	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("pass must not abort on one document: %v", err)
	}
	if report.Failed != 1 || report.Created != 1 {
		t.Errorf("report = %+v", report)
	}
	if _, err := db.Get("good"); err != nil {
		t.Errorf("healthy document missing: %v", err)
	}
	if _, err := db.Get("bad"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("failed document was written")
	}
}

func TestEnumerationFailureAborts(t *testing.T) {
	db := testutil.TestStore(t)
	ctrl := testController(t, &fakePages{err: fmt.Errorf("remote down")}, db, false)

	if _, err := ctrl.Run(context.Background()); err == nil {
		t.Fatal("expected error when enumeration fails")
	}
}

func TestPaginatedEnumeration(t *testing.T) {
	db := testutil.TestStore(t)
	var items []remote.PageItem
	for i := 0; i < 7; i++ {
		items = append(items, remote.PageItem{Doc: doc(fmt.Sprintf("d%d", i), "fp")})
	}
	ctrl := testController(t, &fakePages{items: items, pageSize: 3}, db, false)

	report, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 7 {
		t.Errorf("created = %d, want 7", report.Created)
	}
}
