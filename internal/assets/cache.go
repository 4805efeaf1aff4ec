// Package assets caches remote binary assets under a local directory.
//
// Only hosted (expiring-URL) references are cached. The local path is derived
// from the last two non-empty URL path segments: in the object-store URLs
// this targets, the last segment is the filename and the one before it is a
// stable per-object identifier, so the path survives signed-URL rotation.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/starford/ansuz/internal/models"
)

// VirtualRoot is the fixed prefix under which rendered markup references
// cached assets. Rendered output never embeds absolute machine paths.
const VirtualRoot = "/assets"

var (
	// ErrInvalidReference means the source URL cannot be decomposed into an
	// object identifier and a filename.
	ErrInvalidReference = errors.New("assets: reference URL cannot be decomposed")
	// ErrDestMissing means the destination root directory does not exist.
	// The root is a precondition; per-object subdirectories are created on demand.
	ErrDestMissing = errors.New("assets: destination root does not exist")
)

// Stats accumulates download and cache-hit counts across one render pass.
// Counters are atomic because document-level references resolve concurrently.
type Stats struct {
	Downloads atomic.Int64
	Hits      atomic.Int64
}

// Result describes one resolution.
type Result struct {
	// LocalPath is the absolute on-disk path, empty when the reference was
	// not eligible for caching.
	LocalPath string
	// Rel is the path from VirtualRoot, suitable for embedding in markup.
	Rel string
	// Hit is true when an existing cached file was reused.
	Hit bool
	// Cached is false when the reference kind passes through unchanged.
	Cached bool
}

// Cache downloads-if-absent remote assets into a root directory.
// Safe for concurrent use on distinct assets. Concurrent resolution of the
// same derived path is not deduplicated: the existence check plus write is
// not atomic, so a rare race downloads the same bytes twice, but the
// tmp-then-rename write keeps the result intact.
type Cache struct {
	root        string
	client      *http.Client
	logger      *slog.Logger
	ignoreCache bool
}

// New creates a Cache rooted at dir. The directory must already exist.
// When ignoreCache is set every eligible reference is re-downloaded.
func New(dir string, ignoreCache bool, logger *slog.Logger) (*Cache, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("assets: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDestMissing, dir)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		root:        abs,
		client:      &http.Client{},
		logger:      logger,
		ignoreCache: ignoreCache,
	}, nil
}

// Resolve rewrites ref to point at a locally cached copy. External and
// custom references pass through unchanged and count as neither hit nor
// download. On success ref.Local holds the virtual path for markup.
func (c *Cache) Resolve(ctx context.Context, ref *models.AssetRef, stats *Stats) (*Result, error) {
	if ref == nil || ref.Kind != models.AssetHosted {
		return &Result{}, nil
	}
	if ref.Resolved() {
		return &Result{Rel: strings.TrimPrefix(ref.Local, VirtualRoot+"/"), Cached: true, Hit: true}, nil
	}

	dir, file, err := derivePath(ref.URL)
	if err != nil {
		return nil, err
	}
	local := filepath.Join(c.root, dir, file)
	rel := path.Join(dir, file)

	hit := false
	if !c.ignoreCache {
		if _, err := os.Stat(local); err == nil {
			hit = true
		}
	}
	if !hit {
		if err := c.download(ctx, ref.URL, local); err != nil {
			return nil, err
		}
		if stats != nil {
			stats.Downloads.Add(1)
		}
		c.logger.Debug("asset downloaded", slog.String("path", rel))
	} else if stats != nil {
		stats.Hits.Add(1)
	}

	ref.Local = path.Join(VirtualRoot, rel)
	return &Result{LocalPath: local, Rel: rel, Hit: hit, Cached: true}, nil
}

// derivePath extracts the object directory and filename from a source URL.
// The query string (expiring signatures) is discarded.
func derivePath(raw string) (dir, file string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidReference, raw)
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) < 2 {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidReference, raw)
	}
	return segs[len(segs)-2], segs[len(segs)-1], nil
}

// download fetches the remote bytes in full and writes them atomically:
// tmp file in the target directory, then rename.
func (c *Cache) download(ctx context.Context, rawURL, local string) error {
	dir := filepath.Dir(local)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("assets: mkdir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("assets: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("assets: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("assets: fetch %s: status %d", local, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".ansuz-tmp-*")
	if err != nil {
		return fmt.Errorf("assets: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("assets: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("assets: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("assets: close temp: %w", err)
	}
	if err := os.Rename(tmpName, local); err != nil {
		return fmt.Errorf("assets: rename: %w", err)
	}
	success = true
	return nil
}
