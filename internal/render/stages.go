package render

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Stage is one tree transform of the rendering chain. Stages run in order,
// each receiving the tree left by the previous one; the chain is single-pass.
type Stage func(doc *html.Node) error

// Factory builds a stage from its options value.
type Factory func(opts map[string]any) (Stage, error)

// ErrStageNotFound means a stage was requested by a name nobody registered.
var ErrStageNotFound = errors.New("render: unknown stage")

var registry = map[string]Factory{}

// RegisterStage makes a stage constructible by name. The built-in optional
// stages register themselves at init; callers may add their own before
// building a pipeline.
func RegisterStage(name string, f Factory) {
	registry[name] = f
}

// StageConfig selects one optional stage by name with stage-specific options.
type StageConfig struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

// ResolveStages maps configured stages to callables, preserving order.
// Resolution happens at pipeline construction, before any document renders.
func ResolveStages(cfgs []StageConfig) ([]Stage, error) {
	out := make([]Stage, 0, len(cfgs))
	for _, c := range cfgs {
		f, ok := registry[c.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrStageNotFound, c.Name)
		}
		st, err := f(c.Options)
		if err != nil {
			return nil, fmt.Errorf("render: build stage %q: %w", c.Name, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// mathNotation converts equation placeholder elements into display-math
// markup with delimiters a client-side renderer picks up.
func mathNotation(doc *html.Node) error {
	var eqs []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == equationTag {
			eqs = append(eqs, n)
		}
	})
	for _, eq := range eqs {
		div := elem("div", "class", "math math-display")
		div.AppendChild(textNode(`\[` + extractText(eq) + `\]`))
		eq.Parent.InsertBefore(div, eq)
		eq.Parent.RemoveChild(eq)
	}
	return nil
}

func init() {
	RegisterStage("external-links", func(opts map[string]any) (Stage, error) {
		target, _ := opts["target"].(string)
		if target == "" {
			target = "_blank"
		}
		return func(doc *html.Node) error {
			walk(doc, func(n *html.Node) {
				if n.Type != html.ElementNode || n.Data != "a" {
					return
				}
				href, _ := getAttr(n, "href")
				if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
					setAttr(n, "target", target)
					setAttr(n, "rel", "noopener")
				}
			})
			return nil
		}, nil
	})

	RegisterStage("lazy-images", func(map[string]any) (Stage, error) {
		return func(doc *html.Node) error {
			walk(doc, func(n *html.Node) {
				if n.Type == html.ElementNode && n.Data == "img" {
					setAttr(n, "loading", "lazy")
				}
			})
			return nil
		}, nil
	})

	RegisterStage("heading-shift", func(opts map[string]any) (Stage, error) {
		by, _ := opts["by"].(int)
		if by < 0 {
			return nil, fmt.Errorf("render: heading-shift: negative shift %d", by)
		}
		return func(doc *html.Node) error {
			walk(doc, func(n *html.Node) {
				if n.Type != html.ElementNode {
					return
				}
				if lvl := headingLevel(n.Data); lvl > 0 {
					shifted := min(lvl+by, 6)
					n.Data = fmt.Sprintf("h%d", shifted)
					n.DataAtom = 0
				}
			})
			return nil
		}, nil
	})
}
