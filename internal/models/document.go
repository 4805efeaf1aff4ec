// Package models defines the domain types for Ansuz.
package models

import "time"

// AssetKind discriminates how an asset reference is hosted.
type AssetKind string

const (
	// AssetExternal is hosted outside the workspace; its URL is embedded as-is.
	AssetExternal AssetKind = "external"
	// AssetHosted is served by the workspace through an expiring signed URL
	// and must be cached locally before the URL rotates.
	AssetHosted AssetKind = "hosted"
	// AssetCustom is an opaque reference (custom emoji, data URL); used as-is.
	AssetCustom AssetKind = "custom"
)

// AssetRef identifies a binary resource attached to a document or block.
// Local stays empty until the asset cache resolves the reference; a
// reference is resolved at most once per render pass.
type AssetRef struct {
	Kind  AssetKind `json:"kind"`
	URL   string    `json:"url"`
	Local string    `json:"local,omitempty"`
}

// Resolved reports whether the reference points at a locally cached copy.
func (r *AssetRef) Resolved() bool { return r != nil && r.Local != "" }

// PropertyType enumerates the supported document property kinds.
type PropertyType string

const (
	PropertyTitle       PropertyType = "title"
	PropertyRichText    PropertyType = "rich_text"
	PropertyDate        PropertyType = "date"
	PropertyFiles       PropertyType = "files"
	PropertySelect      PropertyType = "select"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyNumber      PropertyType = "number"
	PropertyCheckbox    PropertyType = "checkbox"
	PropertyURL         PropertyType = "url"
)

// PropertyValue is one typed document property. Only the fields relevant
// to Type are populated.
type PropertyValue struct {
	Type    PropertyType `json:"type"`
	Text    string       `json:"text,omitempty"`
	Number  float64      `json:"number,omitempty"`
	Checked bool         `json:"checked,omitempty"`
	Start   string       `json:"start,omitempty"`
	End     string       `json:"end,omitempty"`
	Options []string     `json:"options,omitempty"`
	Files   []*AssetRef  `json:"files,omitempty"`
}

// Document is one remote page to be synchronized into the local store.
// Fingerprint is the remote last-edited timestamp compared verbatim; it
// changes exactly when content or properties changed upstream.
type Document struct {
	ID          string
	Fingerprint string
	Title       string
	Properties  map[string]*PropertyValue
	Cover       *AssetRef
	Icon        *AssetRef
	Archived    bool
}

// OutlineEntry is one heading of the rendered document, in document order.
// Depth 0 is the top level; Slug is usable as an in-page anchor.
type OutlineEntry struct {
	Depth int    `json:"depth"`
	Text  string `json:"text"`
	Slug  string `json:"slug"`
}

// Entry is the persisted result of rendering one document.
type Entry struct {
	ID          string                    `json:"id"`
	Fingerprint string                    `json:"fingerprint"`
	Title       string                    `json:"title"`
	Properties  map[string]*PropertyValue `json:"properties,omitempty"`
	Markup      string                    `json:"markup"`
	Plain       string                    `json:"-"`
	Checksum    string                    `json:"checksum"`
	Outline     []OutlineEntry            `json:"outline,omitempty"`
	Assets      []string                  `json:"assets,omitempty"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}
