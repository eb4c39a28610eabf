package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"sow-reviewer/internal/domain/entity"
)

// TerminalPrinter renders a report as styled markdown.
type TerminalPrinter struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

func NewTerminalPrinter(out io.Writer, wordWrap int) *TerminalPrinter {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	return &TerminalPrinter{out: out, renderer: renderer}
}

func (p *TerminalPrinter) Print(report *entity.Report) error {
	md := Render(report)

	if p.renderer == nil {
		_, err := fmt.Fprintln(p.out, md)
		return err
	}

	rendered, err := p.renderer.Render(md)
	if err != nil {
		_, err = fmt.Fprintln(p.out, md)
		return err
	}

	_, err = fmt.Fprint(p.out, rendered)
	return err
}
