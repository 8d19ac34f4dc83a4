package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/aivis/internal/model"
)

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes any report as indented JSON
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a project or keyword report as Markdown
func (r *Renderer) RenderMarkdown(v interface{}, path string) error {
	var md string
	switch report := v.(type) {
	case *model.ProjectReport:
		md = ProjectMarkdown(report)
	case *model.KeywordReport:
		md = KeywordMarkdown(report)
	case *model.AuditReport:
		md = AuditMarkdown(report)
	default:
		return fmt.Errorf("no markdown layout for %T", v)
	}
	return writeFile(path, []byte(md))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func projectTitle(p model.Project) string {
	switch {
	case p.Brand != "" && p.Domain != "":
		return fmt.Sprintf("%s (%s)", p.Brand, p.Domain)
	case p.Domain != "":
		return p.Domain
	default:
		return p.ID
	}
}

// ProjectMarkdown lays out the project dashboard
func ProjectMarkdown(report *model.ProjectReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# AI Visibility: %s\n\n", projectTitle(report.Project))
	fmt.Fprintf(&b, "Generated %s from %d checks.\n\n", report.GeneratedAt.Format("2006-01-02 15:04 UTC"), report.Checks)
	fmt.Fprintf(&b, "**Visibility score: %d/100**\n\n", report.Score)

	if len(report.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "- [%s] %s\n", rec.Severity, rec.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Engines\n\n")
	b.WriteString("| Engine | Visibility | Present |\n|---|---:|---:|\n")
	for _, e := range report.Engines {
		fmt.Fprintf(&b, "| %s | %d%% | %d/%d |\n", e.Engine, e.Percentage, e.Present, e.Total)
	}
	b.WriteString("\n")

	if len(report.Keywords) > 0 {
		b.WriteString("## Keywords\n\n")
		b.WriteString("| Keyword | Visibility | Present | Present on |\n|---|---:|---:|---|\n")
		for _, k := range report.Keywords {
			fmt.Fprintf(&b, "| %s | %d%% | %d/%d | %s |\n", escapeCell(k.Keyword), k.Percentage(), k.Present, k.Total, engineList(k.Engines))
		}
		b.WriteString("\n")
	}

	if len(report.Trend) > 0 {
		b.WriteString("## Daily trend\n\n")
		b.WriteString("| Date | Visibility | Present |\n|---|---:|---:|\n")
		for _, t := range report.Trend {
			fmt.Fprintf(&b, "| %s | %d%% | %d/%d |\n", t.Date, t.Percentage, t.Present, t.Total)
		}
		b.WriteString("\n")
	}

	if len(report.Recent) > 0 {
		b.WriteString("## Recent checks\n\n")
		b.WriteString("| Keyword | Engine | Presence | Position |\n|---|---|---|---:|\n")
		for _, c := range report.Recent {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", escapeCell(c.Keyword), c.Engine, yesNo(c.Presence), position(c.Position))
		}
		b.WriteString("\n")
	}

	if report.Audit != nil {
		b.WriteString(auditSection(report.Audit, "##"))
	}

	return b.String()
}

// KeywordMarkdown lays out the single-keyword detail view
func KeywordMarkdown(report *model.KeywordReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: \"%s\"\n\n", projectTitle(report.Project), report.Keyword)
	fmt.Fprintf(&b, "**Visibility score: %d/100** over %d checks\n\n", report.Score, report.Checks)

	b.WriteString("## Engines\n\n")
	for _, e := range report.Engines {
		status := "Missing"
		if e.LatestPresence {
			status = "Present"
		}
		fmt.Fprintf(&b, "### %s: %s\n\n", e.Engine, status)
		fmt.Fprintf(&b, "- Presence rate: %d%% of %d checks\n", e.PresenceRate, e.Total)
		if e.LatestPresence {
			fmt.Fprintf(&b, "- Position: %s\n", position(e.LatestPosition))
			fmt.Fprintf(&b, "- Citations: %d\n", e.CitationsCount)
			if e.LatestSnippet != nil {
				fmt.Fprintf(&b, "- Snippet: \"%s\"\n", *e.LatestSnippet)
			}
			for _, u := range e.ObservedURLs {
				fmt.Fprintf(&b, "- <%s>\n", u)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Trend) > 0 {
		b.WriteString("## Daily trend\n\n")
		for _, t := range report.Trend {
			fmt.Fprintf(&b, "- %s: %d%%\n", t.Date, t.Percentage)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// AuditMarkdown lays out a standalone site audit
func AuditMarkdown(report *model.AuditReport) string {
	return auditSection(report, "#")
}

func auditSection(a *model.AuditReport, heading string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Site audit: %s\n\n", heading, a.Domain)

	if len(a.Crawlers) > 0 {
		b.WriteString("| Crawler | Engine | Allowed |\n|---|---|---|\n")
		for _, c := range a.Crawlers {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", c.UserAgent, c.Engine, yesNo(c.Allowed))
		}
		b.WriteString("\n")
	}
	if len(a.MetaTags) > 0 {
		fmt.Fprintf(&b, "Meta robots: `%s`\n\n", strings.Join(a.MetaTags, ", "))
	}
	if len(a.Signals) == 0 {
		b.WriteString("No issues found.\n\n")
	}
	for _, s := range a.Signals {
		fmt.Fprintf(&b, "- [%s] %s\n", s.Severity, s.Description)
	}
	if len(a.Signals) > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSummary prints a short overview of a project report
func (r *Renderer) RenderSummary(w io.Writer, report *model.ProjectReport) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s\n", projectTitle(report.Project))
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Visibility score: %d/100 (%d checks)\n", report.Score, report.Checks)
	fmt.Fprintf(w, "\n")
	for _, e := range report.Engines {
		fmt.Fprintf(w, "  %-12s %3d%%  (%d/%d)\n", e.Engine, e.Percentage, e.Present, e.Total)
	}
	if len(report.Recommendations) > 0 {
		fmt.Fprintf(w, "\n")
		for _, rec := range report.Recommendations {
			mark := "✓"
			if rec.Severity != model.SeverityInfo {
				mark = "⚠"
			}
			fmt.Fprintf(w, "  %s %s\n", mark, rec.Description)
		}
	}
	if report.Audit != nil {
		fmt.Fprintf(w, "\n  Site audit: %d signal(s)\n", len(report.Audit.Signals))
	}
	fmt.Fprintf(w, "\n")
}

func engineList(engines []model.Engine) string {
	if len(engines) == 0 {
		return "None"
	}
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = e.String()
	}
	return strings.Join(names, ", ")
}

func position(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
