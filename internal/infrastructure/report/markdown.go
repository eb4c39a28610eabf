// Package report renders review reports as markdown, PDF and terminal output.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

var _ output.ReportWriter = (*MarkdownWriter)(nil)

type MarkdownWriter struct{}

func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

func (w *MarkdownWriter) Write(ctx context.Context, report *entity.Report, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(Render(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// Render builds the merged report. The document keeps a single H1: every
// agent output is demoted below the section that holds it.
func Render(report *entity.Report) string {
	var b strings.Builder

	title := report.Title
	if title == "" {
		title = report.Document.Name()
	}
	fmt.Fprintf(&b, "# SOW Review Report: %s\n\n", title)

	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Document | %s |\n", cell(report.Document.Path))
	fmt.Fprintf(&b, "| Generated | %s |\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "| Backend | %s |\n", cell(report.Backend))
	fmt.Fprintf(&b, "| Model | %s |\n", cell(report.Model))
	fmt.Fprintf(&b, "| Mode | %s |\n", report.Mode)
	fmt.Fprintf(&b, "| Run ID | %s |\n", report.RunID)
	if report.Document.Truncated {
		b.WriteString("| Note | document truncated to fit the model context |\n")
	}
	b.WriteString("\n")

	writeVerdict(&b, report.Verdict)
	writeScores(&b, report)

	if failed := report.FailedReviews(); len(failed) > 0 {
		b.WriteString("## Failed Reviews\n\n")
		for _, rv := range failed {
			fmt.Fprintf(&b, "- ❌ **%s**: %s\n", rv.Type.Title(), rv.Err)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Final Validation\n\n")
	switch {
	case report.Final.Failed():
		fmt.Fprintf(&b, "> ⚠️ Final validation failed: %s\n>\n> The specialist reviews below are complete.\n\n", report.Final.Err)
	case strings.TrimSpace(report.Final.Content) == "":
		b.WriteString("> ⚠️ Final validation was not produced.\n\n")
	default:
		b.WriteString(DemoteHeadings(report.Final.Content, 3))
		b.WriteString("\n\n")
	}

	if strings.TrimSpace(report.Brief) != "" {
		b.WriteString("## Review Brief\n\n")
		b.WriteString(DemoteHeadings(report.Brief, 3))
		b.WriteString("\n\n")
	}

	b.WriteString("## Specialist Reviews\n\n")
	for _, rv := range report.Reviews {
		fmt.Fprintf(&b, "### %s\n\n", rv.Type.Title())
		if rv.Failed() {
			fmt.Fprintf(&b, "> ❌ Review failed: %s\n\n", rv.Err)
			continue
		}
		b.WriteString(DemoteHeadings(rv.Content, 4))
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeVerdict(b *strings.Builder, v *entity.Verdict) {
	if v == nil {
		return
	}

	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(b, "**Status:** %s %s\n\n", statusIcon(v.Status), strings.ToUpper(string(v.Status)))
	fmt.Fprintf(b, "**Overall score:** %.1f/10\n\n", v.OverallScore)
	if v.Summary != "" {
		b.WriteString(v.Summary)
		b.WriteString("\n\n")
	}
	if len(v.CriticalGaps) > 0 {
		b.WriteString("**Critical gaps:**\n\n")
		for _, gap := range v.CriticalGaps {
			fmt.Fprintf(b, "- %s\n", gap)
		}
		b.WriteString("\n")
	}
	if v.Derived {
		b.WriteString("_Verdict derived from the report text._\n\n")
	}
}

func writeScores(b *strings.Builder, report *entity.Report) {
	b.WriteString("## Scores\n\n")
	b.WriteString("| Review | Score | Iterations | Duration | Status |\n|---|---|---|---|---|\n")

	rows := append([]entity.Review{}, report.Reviews...)
	if report.Final.Type != "" {
		rows = append(rows, report.Final)
	}

	for _, rv := range rows {
		score := "n/a"
		if rv.Score != nil {
			score = fmt.Sprintf("%s/%s", formatNumber(rv.Score.Value), formatNumber(rv.Score.Max))
		}
		status := "✓ done"
		if rv.Failed() {
			status = "❌ failed"
		}
		fmt.Fprintf(b, "| %s | %s | %d | %s | %s |\n",
			rv.Type.Title(), score, rv.Iterations, rv.Duration.Round(time.Second), status)
	}
	b.WriteString("\n")
}

func statusIcon(s entity.VerdictStatus) string {
	switch s {
	case entity.VerdictApprove:
		return "🟢"
	case entity.VerdictRevise:
		return "🟡"
	default:
		return "🔴"
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.1f", f)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// DemoteHeadings shifts headings down so the shallowest one lands on level top.
// Setext headings are rewritten as ATX first. Levels are capped at 6 and fenced
// code blocks are left alone.
func DemoteHeadings(content string, top int) string {
	lines := setextToATX(strings.Split(strings.TrimSpace(content), "\n"))

	minLevel := 0
	forEachHeading(lines, func(i, level int) {
		if minLevel == 0 || level < minLevel {
			minLevel = level
		}
	})
	if minLevel == 0 || minLevel >= top {
		return strings.Join(lines, "\n")
	}

	shift := top - minLevel
	forEachHeading(lines, func(i, level int) {
		newLevel := level + shift
		if newLevel > 6 {
			newLevel = 6
		}
		lines[i] = strings.Repeat("#", newLevel) + lines[i][level:]
	})

	return strings.Join(lines, "\n")
}

func forEachHeading(lines []string, fn func(i, level int)) {
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(line, "#") {
			continue
		}
		level := 0
		for level < len(line) && line[level] == '#' {
			level++
		}
		if level > 6 || (level < len(line) && line[level] != ' ' && line[level] != '\t') {
			continue
		}
		fn(i, level)
	}
}

// setextToATX turns "Title\n===" and "Title\n---" into "# Title" and "## Title".
func setextToATX(lines []string) []string {
	out := make([]string, 0, len(lines))
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			out = append(out, line)
			continue
		}

		level := setextLevel(line)
		if !inFence && level > 0 && len(out) > 0 && isSetextText(out[len(out)-1]) {
			out[len(out)-1] = strings.Repeat("#", level) + " " + strings.TrimSpace(out[len(out)-1])
			continue
		}
		out = append(out, line)
	}
	return out
}

func setextLevel(line string) int {
	if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return 0
	}
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return 0
	case strings.Trim(trimmed, "=") == "":
		return 1
	case strings.Trim(trimmed, "-") == "":
		return 2
	default:
		return 0
	}
}

// isSetextText reports whether line can carry a setext underline: plain
// paragraph text, not a heading, list item, quote or table row.
func isSetextText(line string) bool {
	if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return false
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.Contains(trimmed, "|") || setextLevel(line) > 0 {
		return false
	}
	for _, prefix := range []string{"#", ">", "- ", "* ", "+ "} {
		if strings.HasPrefix(trimmed, prefix) {
			return false
		}
	}
	if i := strings.IndexAny(trimmed, ".)"); i > 0 && i < len(trimmed)-1 && trimmed[i+1] == ' ' {
		if _, err := strconv.Atoi(trimmed[:i]); err == nil {
			return false
		}
	}
	return true
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
