package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/starford/ansuz/internal/models"
)

const defaultPageSize = 100

// Notion adapts the Notion API to the PageSource/BlockSource boundary.
// Documents come from one database; blocks from the block-children endpoint.
type Notion struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
	pageSize   int
}

// NewNotion creates an adapter for the given integration token and database.
func NewNotion(token, databaseID string) *Notion {
	return &Notion{
		client:     notionapi.NewClient(notionapi.Token(token)),
		databaseID: notionapi.DatabaseID(databaseID),
		pageSize:   defaultPageSize,
	}
}

// Pages enumerates the database sorted by last edit time. Archived pages are
// withheld unless the query includes them; withheld pages therefore age out
// of the local store through deletion reconciliation.
func (n *Notion) Pages(ctx context.Context, cursor string, q Query) ([]PageItem, string, error) {
	req := &notionapi.DatabaseQueryRequest{
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    n.pageSize,
		Sorts: []notionapi.SortObject{{
			Timestamp: notionapi.TimestampType("last_edited_time"),
			Direction: notionapi.SortOrder("ascending"),
		}},
	}
	resp, err := n.client.Database.Query(ctx, n.databaseID, req)
	if err != nil {
		return nil, "", fmt.Errorf("remote: query database: %w", err)
	}

	items := make([]PageItem, 0, len(resp.Results))
	for i := range resp.Results {
		p := &resp.Results[i]
		if p.Archived && !q.IncludeArchived {
			continue
		}
		items = append(items, PageItem{
			Doc:     mapPage(p),
			Partial: len(p.Properties) == 0,
		})
	}

	next := ""
	if resp.HasMore {
		next = string(resp.NextCursor)
	}
	return items, next, nil
}

// Children lists one page of a block's children.
func (n *Notion) Children(ctx context.Context, parentID, cursor string) ([]BlockItem, string, error) {
	resp, err := n.client.Block.GetChildren(ctx, notionapi.BlockID(parentID), &notionapi.Pagination{
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    n.pageSize,
	})
	if err != nil {
		return nil, "", fmt.Errorf("remote: block children of %s: %w", parentID, err)
	}

	items := make([]BlockItem, 0, len(resp.Results))
	for _, raw := range resp.Results {
		b := mapBlock(raw)
		items = append(items, BlockItem{Block: b, Partial: b == nil})
	}

	next := ""
	if resp.HasMore {
		next = string(resp.NextCursor)
	}
	return items, next, nil
}

// mapPage converts an API page into a Document. The fingerprint is the
// remote last-edited timestamp, formatted once and compared verbatim.
func mapPage(p *notionapi.Page) *models.Document {
	doc := &models.Document{
		ID:          string(p.ID),
		Fingerprint: p.LastEditedTime.UTC().Format(time.RFC3339),
		Properties:  make(map[string]*models.PropertyValue, len(p.Properties)),
		Archived:    p.Archived,
	}
	for name, prop := range p.Properties {
		v := mapProperty(prop)
		if v == nil {
			continue
		}
		doc.Properties[name] = v
		if v.Type == models.PropertyTitle {
			doc.Title = v.Text
		}
	}
	if p.Cover != nil {
		doc.Cover = fileRef(string(p.Cover.Type), p.Cover.File, p.Cover.External)
	}
	if p.Icon != nil {
		doc.Icon = iconRef(p.Icon)
	}
	return doc
}

func mapProperty(prop notionapi.Property) *models.PropertyValue {
	switch v := prop.(type) {
	case *notionapi.TitleProperty:
		return &models.PropertyValue{Type: models.PropertyTitle, Text: plainText(v.Title)}
	case *notionapi.RichTextProperty:
		return &models.PropertyValue{Type: models.PropertyRichText, Text: plainText(v.RichText)}
	case *notionapi.DateProperty:
		pv := &models.PropertyValue{Type: models.PropertyDate}
		if v.Date != nil {
			if v.Date.Start != nil {
				pv.Start = time.Time(*v.Date.Start).Format(time.RFC3339)
			}
			if v.Date.End != nil {
				pv.End = time.Time(*v.Date.End).Format(time.RFC3339)
			}
		}
		return pv
	case *notionapi.FilesProperty:
		pv := &models.PropertyValue{Type: models.PropertyFiles}
		for _, f := range v.Files {
			if ref := fileRef(string(f.Type), f.File, f.External); ref != nil {
				pv.Files = append(pv.Files, ref)
			}
		}
		return pv
	case *notionapi.SelectProperty:
		return &models.PropertyValue{Type: models.PropertySelect, Text: v.Select.Name}
	case *notionapi.MultiSelectProperty:
		pv := &models.PropertyValue{Type: models.PropertyMultiSelect}
		for _, o := range v.MultiSelect {
			pv.Options = append(pv.Options, o.Name)
		}
		return pv
	case *notionapi.NumberProperty:
		return &models.PropertyValue{Type: models.PropertyNumber, Number: v.Number}
	case *notionapi.CheckboxProperty:
		return &models.PropertyValue{Type: models.PropertyCheckbox, Checked: v.Checkbox}
	case *notionapi.URLProperty:
		return &models.PropertyValue{Type: models.PropertyURL, Text: v.URL}
	}
	return nil
}

// mapBlock converts one API block. Unsupported kinds map to nil and are
// reported as partial, which callers skip.
func mapBlock(raw notionapi.Block) *models.Block {
	b := &models.Block{
		ID:          string(raw.GetID()),
		HasChildren: raw.GetHasChildren(),
	}
	switch v := raw.(type) {
	case *notionapi.ParagraphBlock:
		b.Type = models.BlockParagraph
		b.Text = mapSpans(v.Paragraph.RichText)
	case *notionapi.Heading1Block:
		b.Type = models.BlockHeading1
		b.Text = mapSpans(v.Heading1.RichText)
	case *notionapi.Heading2Block:
		b.Type = models.BlockHeading2
		b.Text = mapSpans(v.Heading2.RichText)
	case *notionapi.Heading3Block:
		b.Type = models.BlockHeading3
		b.Text = mapSpans(v.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		b.Type = models.BlockBulletedItem
		b.Text = mapSpans(v.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		b.Type = models.BlockNumberedItem
		b.Text = mapSpans(v.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		b.Type = models.BlockToDo
		b.Text = mapSpans(v.ToDo.RichText)
		b.Checked = v.ToDo.Checked
	case *notionapi.ToggleBlock:
		b.Type = models.BlockToggle
		b.Text = mapSpans(v.Toggle.RichText)
	case *notionapi.QuoteBlock:
		b.Type = models.BlockQuote
		b.Text = mapSpans(v.Quote.RichText)
	case *notionapi.CalloutBlock:
		b.Type = models.BlockCallout
		b.Text = mapSpans(v.Callout.RichText)
		if v.Callout.Icon != nil {
			b.Icon = iconRef(v.Callout.Icon)
		}
	case *notionapi.CodeBlock:
		b.Type = models.BlockCode
		b.Text = mapSpans(v.Code.RichText)
		b.Language = v.Code.Language
	case *notionapi.EquationBlock:
		b.Type = models.BlockEquation
		b.Expression = v.Equation.Expression
	case *notionapi.DividerBlock:
		b.Type = models.BlockDivider
	case *notionapi.BookmarkBlock:
		b.Type = models.BlockBookmark
		b.URL = v.Bookmark.URL
		b.Caption = mapSpans(v.Bookmark.Caption)
	case *notionapi.ImageBlock:
		b.Type = models.BlockImage
		b.Caption = mapSpans(v.Image.Caption)
		b.Asset = fileRef(string(v.Image.Type), v.Image.File, v.Image.External)
	case *notionapi.FileBlock:
		b.Type = models.BlockFile
		b.Caption = mapSpans(v.File.Caption)
		b.Asset = fileRef(string(v.File.Type), v.File.File, v.File.External)
	case *notionapi.VideoBlock:
		b.Type = models.BlockVideo
		b.Caption = mapSpans(v.Video.Caption)
		b.Asset = fileRef(string(v.Video.Type), v.Video.File, v.Video.External)
	case *notionapi.AudioBlock:
		b.Type = models.BlockAudio
		b.Caption = mapSpans(v.Audio.Caption)
		b.Asset = fileRef(string(v.Audio.Type), v.Audio.File, v.Audio.External)
	default:
		return nil
	}
	return b
}

func mapSpans(rts []notionapi.RichText) []models.RichSpan {
	spans := make([]models.RichSpan, 0, len(rts))
	for _, rt := range rts {
		s := models.RichSpan{Text: rt.PlainText, Href: rt.Href}
		if rt.Annotations != nil {
			s.Bold = rt.Annotations.Bold
			s.Italic = rt.Annotations.Italic
			s.Strikethrough = rt.Annotations.Strikethrough
			s.Underline = rt.Annotations.Underline
			s.Code = rt.Annotations.Code
		}
		spans = append(spans, s)
	}
	return spans
}

func plainText(rts []notionapi.RichText) string {
	var out string
	for _, rt := range rts {
		out += rt.PlainText
	}
	return out
}

// fileRef maps the API's external/file discrimination onto asset kinds:
// workspace-hosted files carry expiring URLs and must be cached.
func fileRef(fileType string, file, external *notionapi.FileObject) *models.AssetRef {
	switch {
	case fileType == "file" && file != nil:
		return &models.AssetRef{Kind: models.AssetHosted, URL: file.URL}
	case fileType == "external" && external != nil:
		return &models.AssetRef{Kind: models.AssetExternal, URL: external.URL}
	}
	return nil
}

func iconRef(icon *notionapi.Icon) *models.AssetRef {
	if icon == nil {
		return nil
	}
	if icon.Type == "emoji" && icon.Emoji != nil {
		return &models.AssetRef{Kind: models.AssetCustom, URL: string(*icon.Emoji)}
	}
	return fileRef(string(icon.Type), icon.File, icon.External)
}
