package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/aivis/internal/model"
)

func scenarioReport(t *testing.T) *model.ProjectReport {
	t.Helper()
	report, err := newTestPipeline(seedScenario(t), Options{}).ProjectReport(context.Background(), "p1", false)
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func TestProjectMarkdown(t *testing.T) {
	md := ProjectMarkdown(scenarioReport(t))

	for _, want := range []string{
		"# AI Visibility: Acme (acme.io)",
		"**Visibility score: 50/100**",
		"| ChatGPT | 50% | 1/2 |",
		"| a | 100% | 4/4 | Perplexity, Claude, Gemini, ChatGPT |",
		"| b | 0% | 0/4 | None |",
		"- [warning] Low citations for: b",
		"- [info] Best performing: a, b",
		"| a | ChatGPT | Yes | 2 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestKeywordMarkdown(t *testing.T) {
	report, err := newTestPipeline(seedScenario(t), Options{}).KeywordReport(context.Background(), "p1", "b")
	if err != nil {
		t.Fatal(err)
	}

	md := KeywordMarkdown(report)
	if !strings.Contains(md, "### Claude: Missing") || !strings.Contains(md, "Presence rate: 0% of 1 checks") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
}

func TestRenderer_WritesFiles(t *testing.T) {
	report := scenarioReport(t)
	dir := t.TempDir()
	r := NewRenderer()

	jsonPath := filepath.Join(dir, "out", "report.json")
	if err := r.RenderJSON(report, jsonPath); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["score"] != float64(50) {
		t.Errorf("score = %v", decoded["score"])
	}

	mdPath := filepath.Join(dir, "report.md")
	if err := r.RenderMarkdown(report, mdPath); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if err := r.RenderMarkdown("not a report", mdPath); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer().RenderSummary(&buf, scenarioReport(t))

	out := buf.String()
	if !strings.Contains(out, "Visibility score: 50/100 (8 checks)") {
		t.Errorf("summary missing score:\n%s", out)
	}
	if !strings.Contains(out, "⚠ Low citations for: b") || !strings.Contains(out, "✓ Best performing: a, b") {
		t.Errorf("summary missing recommendations:\n%s", out)
	}
}

func TestAuditMarkdown(t *testing.T) {
	md := AuditMarkdown(&model.AuditReport{
		Domain:   "acme.io",
		Crawlers: []model.CrawlerRule{{Engine: model.EngineChatGPT, UserAgent: "GPTBot", Allowed: false}},
		Signals:  []model.Signal{{Severity: model.SeverityCritical, Description: "robots.txt blocks GPTBot (ChatGPT)"}},
	})
	if !strings.Contains(md, "# Site audit: acme.io") || !strings.Contains(md, "| GPTBot | ChatGPT | No |") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
}
