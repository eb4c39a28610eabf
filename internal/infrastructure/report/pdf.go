package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
	"sow-reviewer/internal/domain/sow"
)

const (
	baseFontSize = 10.0
	codeFontSize = 8.5
	ptToMM       = 0.3528
	lineSpacing  = 1.45
	listIndent   = 6.0
)

var headingSizes = map[int]float64{1: 18, 2: 15, 3: 13, 4: 11.5, 5: 10.5, 6: 10}

// Glyphs that the core PDF fonts cannot draw.
var glyphReplacer = strings.NewReplacer(
	"\u26a0\ufe0f", "[!]", "\u26a0", "[!]",
	"\u274c", "[X]", "\u2717", "[X]", "\u2718", "[X]",
	"\u2705", "[OK]", "\u2713", "[OK]", "\u2714", "[OK]",
	"\U0001f534", "[HIGH]", "\U0001f7e1", "[MEDIUM]", "\U0001f7e2", "[LOW]",
	"\ufe0f", "",
	"\u2192", "->", "\u2190", "<-", "\u2265", ">=", "\u2264", "<=", "\u2248", "~",
	"\u2013", "-", "\u2014", "-", "\u2018", "'", "\u2019", "'", "\u201c", "\"", "\u201d", "\"",
	"\u2022", "*", "\u2026", "...", "\u20ac", "EUR", "\u2122", "(TM)",
)

var _ output.ReportWriter = (*PDFWriter)(nil)

type PDFWriter struct{}

func NewPDFWriter() *PDFWriter {
	return &PDFWriter{}
}

func (w *PDFWriter) Write(ctx context.Context, report *entity.Report, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf report: %w", err)
	}

	if err := RenderPDF(Render(report), f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderPDF lays out markdown on A4 pages.
func RenderPDF(markdown string, w io.Writer) error {
	source := []byte(markdown)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))

	r := newPDFRenderer(source)
	r.renderBlocks(doc)

	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	source []byte
	family string
	style  string
	size   float64
}

func newPDFRenderer(source []byte) *pdfRenderer {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetCreator("sow-reviewer", true)
	pdf.AliasNbPages("")

	r := &pdfRenderer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		source: source,
		family: "Helvetica",
		size:   baseFontSize,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		r.applyFont()
	})

	pdf.AddPage()
	r.applyFont()
	return r
}

// safe maps text onto runes the cp1252 core fonts can draw.
func safe(s string) string {
	s = glyphReplacer.Replace(s)
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if r > 0xFF || (r < 0x20 && r != '\n') {
			return '?'
		}
		return r
	}, s)
}

func (r *pdfRenderer) lineHeight() float64 {
	return r.size * ptToMM * lineSpacing
}

func (r *pdfRenderer) applyFont() {
	r.pdf.SetFont(r.family, r.style, r.size)
	r.pdf.SetTextColor(30, 30, 30)
}

func (r *pdfRenderer) setFont(family, style string, size float64) func() {
	prevFamily, prevStyle, prevSize := r.family, r.style, r.size
	r.family, r.style, r.size = family, style, size
	r.applyFont()
	return func() {
		r.family, r.style, r.size = prevFamily, prevStyle, prevSize
		r.applyFont()
	}
}

func (r *pdfRenderer) leftMargin() float64 {
	left, _, _, _ := r.pdf.GetMargins()
	return left
}

func (r *pdfRenderer) contentWidth() float64 {
	pageW, _ := r.pdf.GetPageSize()
	left, _, right, _ := r.pdf.GetMargins()
	return pageW - left - right
}

func (r *pdfRenderer) renderBlocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.renderBlock(n)
	}
}

func (r *pdfRenderer) renderBlock(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		r.renderHeading(node)
	case *ast.Paragraph:
		r.renderInline(node)
		r.pdf.Ln(r.lineHeight())
		r.pdf.Ln(1.5)
	case *ast.TextBlock:
		r.renderInline(node)
		r.pdf.Ln(r.lineHeight())
	case *ast.List:
		r.renderList(node)
		r.pdf.Ln(1.5)
	case *ast.Blockquote:
		r.renderBlockquote(node)
	case *ast.FencedCodeBlock:
		r.renderCode(node.Lines())
	case *ast.CodeBlock:
		r.renderCode(node.Lines())
	case *ast.ThematicBreak:
		y := r.pdf.GetY() + 2
		r.pdf.SetDrawColor(180, 180, 180)
		r.pdf.Line(r.leftMargin(), y, r.leftMargin()+r.contentWidth(), y)
		r.pdf.Ln(5)
	case *east.Table:
		r.renderTable(node)
	case *ast.HTMLBlock:
		// raw HTML has no PDF equivalent
	default:
		r.renderBlocks(n)
	}
}

func (r *pdfRenderer) renderHeading(n *ast.Heading) {
	size := headingSizes[n.Level]
	restore := r.setFont("Helvetica", "B", size)
	defer restore()

	r.pdf.Ln(2)
	r.pdf.SetX(r.leftMargin())
	r.pdf.MultiCell(0, r.lineHeight(), r.tr(safe(sow.InlineText(n, r.source))), "", "L", false)
	if n.Level <= 2 {
		y := r.pdf.GetY() + 0.5
		r.pdf.SetDrawColor(200, 200, 200)
		r.pdf.Line(r.leftMargin(), y, r.leftMargin()+r.contentWidth(), y)
	}
	r.pdf.Ln(2)
}

func (r *pdfRenderer) write(s string) {
	if s == "" {
		return
	}
	r.pdf.Write(r.lineHeight(), r.tr(safe(s)))
}

func (r *pdfRenderer) renderInline(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Text:
			r.write(string(node.Segment.Value(r.source)))
			if node.HardLineBreak() {
				r.pdf.Ln(r.lineHeight())
			} else if node.SoftLineBreak() {
				r.write(" ")
			}
		case *ast.String:
			r.write(string(node.Value))
		case *ast.Emphasis:
			style := "I"
			if node.Level >= 2 {
				style = "B"
			}
			if strings.Contains(r.style, style) {
				style = ""
			}
			restore := r.setFont(r.family, r.style+style, r.size)
			r.renderInline(node)
			restore()
		case *ast.CodeSpan:
			restore := r.setFont("Courier", "", r.size)
			r.renderInline(node)
			restore()
		case *ast.Link:
			r.pdf.SetTextColor(20, 80, 160)
			r.renderInline(node)
			r.pdf.SetTextColor(30, 30, 30)
		case *ast.AutoLink:
			r.pdf.SetTextColor(20, 80, 160)
			r.write(string(node.URL(r.source)))
			r.pdf.SetTextColor(30, 30, 30)
		case *east.TaskCheckBox:
			if node.IsChecked {
				r.write("[x] ")
			} else {
				r.write("[ ] ")
			}
		case *ast.RawHTML:
		default:
			r.renderInline(node)
		}
	}
}

func (r *pdfRenderer) renderList(n *ast.List) {
	left := r.leftMargin()
	number := n.Start
	if number == 0 {
		number = 1
	}

	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "-"
		if n.IsOrdered() {
			marker = strconv.Itoa(number) + "."
			number++
		}

		r.pdf.SetX(left)
		r.pdf.CellFormat(listIndent, r.lineHeight(), marker, "", 0, "L", false, 0, "")
		r.pdf.SetLeftMargin(left + listIndent)
		r.renderBlocks(item)
		r.pdf.SetLeftMargin(left)
	}
	r.pdf.SetX(left)
}

func (r *pdfRenderer) renderBlockquote(n *ast.Blockquote) {
	left := r.leftMargin()
	startY := r.pdf.GetY()

	r.pdf.SetLeftMargin(left + 5)
	r.pdf.SetX(left + 5)
	restore := r.setFont(r.family, "I", r.size)
	r.renderBlocks(n)
	restore()
	r.pdf.SetLeftMargin(left)

	if endY := r.pdf.GetY(); endY > startY {
		r.pdf.SetDrawColor(190, 190, 190)
		r.pdf.Line(left+1.5, startY, left+1.5, endY-1.5)
	}
	r.pdf.SetX(left)
}

func (r *pdfRenderer) renderCode(lines *text.Segments) {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(r.source))
	}

	restore := r.setFont("Courier", "", codeFontSize)
	defer restore()

	r.pdf.SetFillColor(242, 242, 242)
	r.pdf.SetX(r.leftMargin())
	r.pdf.MultiCell(0, r.lineHeight(), r.tr(safe(strings.TrimRight(sb.String(), "\n"))), "", "L", true)
	r.pdf.Ln(2)
}

func (r *pdfRenderer) renderTable(n *east.Table) {
	columns := 0
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		if c := row.ChildCount(); c > columns {
			columns = c
		}
	}
	if columns == 0 {
		return
	}

	restore := r.setFont(r.family, "", baseFontSize-1)
	defer restore()

	left := r.leftMargin()
	width := r.contentWidth() / float64(columns)
	lh := r.lineHeight()
	_, pageH := r.pdf.GetPageSize()
	_, _, _, bottom := r.pdf.GetMargins()

	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*east.TableHeader)

		cells := make([][]string, 0, columns)
		maxLines := 1
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			if header {
				r.pdf.SetFont(r.family, "B", r.size)
			}
			lines := r.pdf.SplitText(safe(sow.InlineText(c, r.source)), width-2)
			if len(lines) > maxLines {
				maxLines = len(lines)
			}
			cells = append(cells, lines)
		}
		rowH := float64(maxLines)*lh + 2

		if r.pdf.GetY()+rowH > pageH-bottom {
			r.pdf.AddPage()
		}
		y := r.pdf.GetY()

		style := "D"
		if header {
			style = "FD"
			r.pdf.SetFillColor(230, 236, 245)
			r.pdf.SetFont(r.family, "B", r.size)
		} else {
			r.pdf.SetFont(r.family, "", r.size)
		}
		r.pdf.SetDrawColor(190, 190, 190)

		for i := 0; i < columns; i++ {
			x := left + float64(i)*width
			r.pdf.Rect(x, y, width, rowH, style)
			if i >= len(cells) {
				continue
			}
			for j, line := range cells[i] {
				r.pdf.SetXY(x+1, y+1+float64(j)*lh)
				r.pdf.CellFormat(width-2, lh, r.tr(line), "", 0, "L", false, 0, "")
			}
		}
		r.pdf.SetXY(left, y+rowH)
	}
	r.applyFont()
	r.pdf.Ln(3)
}
