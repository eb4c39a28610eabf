package web

import (
	"strings"

	"golang.org/x/net/html"

	"sow-reviewer/internal/domain/entity"
)

type TextConfig struct {
	TagsToRemove  []string
	MaxOutputSize int
}

var DefaultTextConfig = TextConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "template", "nav", "footer",
	},
	MaxOutputSize: 4_000,
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "table": true, "ul": true, "ol": true, "header": true, "main": true,
}

// ExtractText returns the document title and the visible body text with
// whitespace collapsed, one line per block element.
func ExtractText(rawHTML string, cfg *TextConfig) (title, text string) {
	if cfg == nil {
		cfg = &DefaultTextConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", truncate(collapse(rawHTML), cfg.MaxOutputSize)
	}

	if t := findNode(doc, "title"); t != nil {
		title = collapse(nodeText(t))
	}

	root := findNode(doc, "body")
	if root == nil {
		root = doc
	}

	removeNodes(root, cfg)

	var sb strings.Builder
	writeText(&sb, root)

	lines := strings.Split(sb.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = collapse(line); line != "" {
			kept = append(kept, line)
		}
	}

	return title, truncate(strings.Join(kept, "\n"), cfg.MaxOutputSize)
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func removeNodes(n *html.Node, cfg *TextConfig) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && isOneOf(c.Data, cfg.TagsToRemove...):
			n.RemoveChild(c)
		default:
			removeNodes(c, cfg)
		}
		c = next
	}
}

func writeText(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(collapse(n.Data))
		sb.WriteString(" ")
		return
	}
	if n.Type == html.ElementNode && n.Data == "title" {
		return
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		sb.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if block {
		sb.WriteString("\n")
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(&sb, c)
	}
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return entity.CutUTF8(s, maxSize) + "\n... (truncated)"
	}
	return s
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
