// Package sow holds the document helpers the reviewer tools expose to the agents:
// section lookup, heading outline and the quick structural checks for the
// architecture and cost sections.
package sow

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry of the document outline.
type Heading struct {
	Level int    `json:"level"`
	Title string `json:"title"`
}

// ExtractSection returns the body of the first markdown heading whose title
// contains name (case-insensitive). The section ends at the next heading of any level.
func ExtractSection(document, name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ""
	}

	var content []string
	inSection := false

	for _, line := range strings.Split(document, "\n") {
		isHeading := strings.HasPrefix(line, "#")
		switch {
		case isHeading && !inSection && strings.Contains(strings.ToLower(line), needle):
			inSection = true
		case isHeading && inSection:
			return strings.TrimSpace(strings.Join(content, "\n"))
		case inSection:
			content = append(content, line)
		}
	}

	return strings.TrimSpace(strings.Join(content, "\n"))
}

// Outline lists the document headings in order.
func Outline(document string) []Heading {
	src := []byte(document)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var headings []Heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title := strings.TrimSpace(InlineText(h, src))
		if title != "" {
			headings = append(headings, Heading{Level: h.Level, Title: title})
		}
		return ast.WalkSkipChildren, nil
	})

	return headings
}

// FormatOutline renders headings as an indented list.
func FormatOutline(headings []Heading) string {
	var sb strings.Builder
	for _, h := range headings {
		level := h.Level
		if level < 1 {
			level = 1
		}
		sb.WriteString(strings.Repeat("  ", level-1))
		sb.WriteString("- ")
		sb.WriteString(h.Title)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// InlineText concatenates the text of all inline descendants of n.
func InlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	collectInline(&sb, n, source)
	return sb.String()
}

func collectInline(sb *strings.Builder, n ast.Node, source []byte) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(c.Value)
		case *ast.AutoLink:
			sb.Write(c.URL(source))
		case *ast.RawHTML:
			// dropped
		default:
			collectInline(sb, c, source)
		}
	}
}
