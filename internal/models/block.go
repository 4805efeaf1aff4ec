package models

// BlockType enumerates the supported content block kinds.
type BlockType string

const (
	BlockParagraph    BlockType = "paragraph"
	BlockHeading1     BlockType = "heading_1"
	BlockHeading2     BlockType = "heading_2"
	BlockHeading3     BlockType = "heading_3"
	BlockBulletedItem BlockType = "bulleted_list_item"
	BlockNumberedItem BlockType = "numbered_list_item"
	BlockToDo         BlockType = "to_do"
	BlockToggle       BlockType = "toggle"
	BlockQuote        BlockType = "quote"
	BlockCallout      BlockType = "callout"
	BlockCode         BlockType = "code"
	BlockEquation     BlockType = "equation"
	BlockDivider      BlockType = "divider"
	BlockBookmark     BlockType = "bookmark"
	BlockImage        BlockType = "image"
	BlockFile         BlockType = "file"
	BlockVideo        BlockType = "video"
	BlockAudio        BlockType = "audio"
)

// RichSpan is one styled run of inline text.
type RichSpan struct {
	Text          string
	Href          string
	Bold          bool
	Italic        bool
	Strikethrough bool
	Underline     bool
	Code          bool
}

// Block is one node of a document's content tree. Each Block is owned
// exclusively by its parent's Children slice; the tree is strict (no cycles,
// no sharing). Only the payload fields relevant to Type are populated.
type Block struct {
	ID          string
	Type        BlockType
	HasChildren bool
	Children    []*Block

	Text       []RichSpan // paragraph, headings, list items, quote, toggle, to_do, callout
	Caption    []RichSpan // image, file, video, audio, bookmark
	Checked    bool       // to_do
	Language   string     // code
	Expression string     // equation
	Name       string     // file
	URL        string     // bookmark
	Icon       *AssetRef  // callout
	Asset      *AssetRef  // image, file, video, audio
}

// AssetRef returns the asset reference carried by the asset-bearing block
// kinds (image, file, video, audio, callout icon), or nil for every other
// kind. This is the single dispatch point over the closed set; keep it in
// step with the BlockType constants above.
func (b *Block) AssetRef() *AssetRef {
	switch b.Type {
	case BlockImage, BlockFile, BlockVideo, BlockAudio:
		return b.Asset
	case BlockCallout:
		return b.Icon
	}
	return nil
}

// PlainText concatenates the text runs of a span slice.
func PlainText(spans []RichSpan) string {
	var out string
	for _, s := range spans {
		out += s.Text
	}
	return out
}
