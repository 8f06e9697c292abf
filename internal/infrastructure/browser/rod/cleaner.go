package rod

import (
	"strings"

	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	MaxOutputSize int
	// AttrFilter drops additional attributes when it returns true.
	AttrFilter func(attr html.Attribute) bool
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	MaxOutputSize: 130_000,
}

const truncatedMarker = "\n<!-- truncated -->"

// CleanHTML strips scripts, styles, comments and noisy attributes from the
// page body so it fits into a model context. Unparseable input is returned
// unchanged.
func CleanHTML(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	body := findElement(doc, "body")
	if body == nil {
		return rawHTML
	}

	cleanNode(body, cfg)

	var sb strings.Builder
	if err := html.Render(&sb, body); err != nil {
		return rawHTML
	}

	out := sb.String()
	if cfg.MaxOutputSize > 0 && len(out) > cfg.MaxOutputSize {
		out = out[:cfg.MaxOutputSize] + truncatedMarker
	}
	return out
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	switch n.Type {
	case html.CommentNode:
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	case html.ElementNode:
	default:
		return
	}

	if contains(cfg.TagsToRemove, n.Data) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if !dropAttr(attr, cfg) {
			kept = append(kept, attr)
		}
	}
	n.Attr = kept

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func dropAttr(attr html.Attribute, cfg *CleanConfig) bool {
	if contains(cfg.AttrsToRemove, attr.Key) {
		return true
	}
	// Event handlers and framework state.
	if strings.HasPrefix(attr.Key, "data-") || strings.HasPrefix(attr.Key, "on") {
		return true
	}
	return cfg.AttrFilter != nil && cfg.AttrFilter(attr)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
