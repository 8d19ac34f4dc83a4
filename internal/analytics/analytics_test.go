package analytics

import (
	"testing"
	"time"

	"github.com/ppiankov/aivis/internal/model"
)

var day0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func check(keyword string, engine model.Engine, present bool, ts time.Time) model.Check {
	c := model.Check{ProjectID: "p1", Keyword: keyword, Engine: engine, Presence: present, Timestamp: ts}
	if present {
		pos := 3
		snippet := "snippet " + keyword
		c.Position = &pos
		c.CitationsCount = 2
		c.AnswerSnippet = &snippet
		c.ObservedURLs = []string{"https://acme.io"}
	}
	return c
}

// twoByFour is keyword "a" present on every engine, "b" absent everywhere
func twoByFour() []model.Check {
	var checks []model.Check
	for _, k := range []string{"a", "b"} {
		for _, e := range model.Engines {
			checks = append(checks, check(k, e, k == "a", day0))
		}
	}
	return checks
}

func TestVisibilityScore(t *testing.T) {
	tests := []struct {
		name   string
		checks []model.Check
		want   int
	}{
		{"empty", nil, 0},
		{"half present", twoByFour(), 50},
		{"one of three rounds down", []model.Check{
			check("a", model.EngineClaude, true, day0),
			check("a", model.EngineClaude, false, day0),
			check("a", model.EngineClaude, false, day0),
		}, 33},
		{"two of three rounds up", []model.Check{
			check("a", model.EngineClaude, true, day0),
			check("a", model.EngineClaude, true, day0),
			check("a", model.EngineClaude, false, day0),
		}, 67},
		{"all present", []model.Check{check("a", model.EngineGemini, true, day0)}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VisibilityScore(tt.checks); got != tt.want {
				t.Errorf("VisibilityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDailyTrend(t *testing.T) {
	checks := []model.Check{
		check("a", model.EngineChatGPT, true, day0.Add(48*time.Hour)),
		check("a", model.EngineChatGPT, true, day0),
		check("a", model.EngineGemini, false, day0),
		check("a", model.EngineClaude, false, day0.Add(13*time.Hour+59*time.Minute)), // still 2024-03-01 UTC
		check("a", model.EngineClaude, false, day0.Add(48*time.Hour)),
	}

	trend := DailyTrend(checks)
	if len(trend) != 2 {
		t.Fatalf("expected 2 points (sparse), got %+v", trend)
	}
	if trend[0].Date != "2024-03-01" || trend[1].Date != "2024-03-03" {
		t.Errorf("dates = %s, %s", trend[0].Date, trend[1].Date)
	}
	if trend[0].Present != 1 || trend[0].Total != 3 || trend[0].Percentage != 33 {
		t.Errorf("day one = %+v", trend[0])
	}
	if trend[1].Percentage != 50 {
		t.Errorf("day three = %+v", trend[1])
	}

	if got := DailyTrend(nil); len(got) != 0 {
		t.Errorf("expected empty trend, got %+v", got)
	}
}

func TestEngineBreakdown(t *testing.T) {
	stats := EngineBreakdown(twoByFour())
	if len(stats) != 4 {
		t.Fatalf("expected 4 engines, got %d", len(stats))
	}
	for i, s := range stats {
		if s.Engine != model.Engines[i] {
			t.Errorf("engine %d = %s, want %s", i, s.Engine, model.Engines[i])
		}
		if s.Percentage != 50 || s.Present != 1 || s.Total != 2 {
			t.Errorf("%s = %+v", s.Engine, s)
		}
	}
}

func TestEngineBreakdown_NoRecords(t *testing.T) {
	stats := EngineBreakdown([]model.Check{check("a", model.EngineGemini, true, day0)})
	for _, s := range stats {
		if s.Engine == model.EngineGemini {
			if s.Percentage != 100 {
				t.Errorf("gemini = %+v", s)
			}
			continue
		}
		if s.Total != 0 || s.Percentage != 0 {
			t.Errorf("%s should be empty, got %+v", s.Engine, s)
		}
	}
}

func TestKeywordBreakdown(t *testing.T) {
	checks := []model.Check{
		check("b", model.EngineClaude, true, day0),
		check("a", model.EngineGemini, false, day0),
		check("b", model.EngineChatGPT, true, day0),
		check("b", model.EngineClaude, true, day0),
		check("a", model.EnginePerplexity, true, day0),
	}

	stats := KeywordBreakdown(checks)
	if len(stats) != 2 || stats[0].Keyword != "b" || stats[1].Keyword != "a" {
		t.Fatalf("expected first-seen order b, a; got %+v", stats)
	}
	if stats[0].Present != 3 || stats[0].Total != 3 {
		t.Errorf("b = %+v", stats[0])
	}
	if len(stats[0].Engines) != 2 || stats[0].Engines[0] != model.EngineClaude || stats[0].Engines[1] != model.EngineChatGPT {
		t.Errorf("b engines = %v", stats[0].Engines)
	}
	if len(stats[1].Engines) != 1 || stats[1].Engines[0] != model.EnginePerplexity {
		t.Errorf("a engines = %v", stats[1].Engines)
	}
	if stats[1].Percentage() != 50 {
		t.Errorf("a percentage = %d", stats[1].Percentage())
	}

	if got := KeywordBreakdown(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRankKeywords_Stable(t *testing.T) {
	stats := []model.KeywordStat{
		{Keyword: "low", Present: 1, Total: 4},
		{Keyword: "tie-first", Present: 2, Total: 4},
		{Keyword: "top", Present: 4, Total: 4},
		{Keyword: "tie-second", Present: 1, Total: 2},
		{Keyword: "empty"},
	}

	ranked := RankKeywords(stats)
	want := []string{"top", "tie-first", "tie-second", "low", "empty"}
	for i, k := range want {
		if ranked[i].Keyword != k {
			t.Errorf("rank %d = %s, want %s", i, ranked[i].Keyword, k)
		}
	}
	if stats[0].Keyword != "low" {
		t.Error("input must not be reordered")
	}
}

func TestLatestByEngine(t *testing.T) {
	later := day0.Add(time.Hour)
	latest := check("a", model.EngineChatGPT, true, later)
	pos := 7
	latest.Position = &pos

	// Out of order on purpose: the latest record comes first.
	checks := []model.Check{
		latest,
		check("a", model.EngineChatGPT, false, day0),
		check("a", model.EngineChatGPT, false, day0),
		check("a", model.EngineGemini, true, day0),
		check("a", model.EngineGemini, false, later),
	}

	snaps := LatestByEngine(checks)
	if len(snaps) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(snaps))
	}

	chatgpt := snaps[0]
	if !chatgpt.LatestPresence || chatgpt.LatestPosition == nil || *chatgpt.LatestPosition != 7 {
		t.Errorf("chatgpt latest = %+v", chatgpt)
	}
	if chatgpt.PresenceRate != 33 || chatgpt.Total != 3 {
		t.Errorf("chatgpt rate = %d over %d", chatgpt.PresenceRate, chatgpt.Total)
	}
	if chatgpt.CitationsCount != 2 || len(chatgpt.ObservedURLs) != 1 {
		t.Errorf("chatgpt latest fields = %+v", chatgpt)
	}
	if chatgpt.LatestAt == nil || !chatgpt.LatestAt.Equal(later) {
		t.Errorf("chatgpt latest at = %v", chatgpt.LatestAt)
	}

	gemini := snaps[1]
	if gemini.LatestPresence || gemini.LatestSnippet != nil || gemini.PresenceRate != 50 {
		t.Errorf("gemini = %+v", gemini)
	}

	for _, s := range snaps[2:] {
		if s.Total != 0 || s.LatestPresence || s.PresenceRate != 0 || s.LatestAt != nil {
			t.Errorf("%s should report nothing, got %+v", s.Engine, s)
		}
		if s.ObservedURLs == nil {
			t.Errorf("%s urls should be empty, not nil", s.Engine)
		}
	}
}

func TestLatestByEngine_TiesKeepInputOrder(t *testing.T) {
	first := check("a", model.EngineClaude, true, day0)
	second := check("a", model.EngineClaude, false, day0)

	snaps := LatestByEngine([]model.Check{first, second})
	if snaps[2].LatestPresence {
		t.Error("expected the later-inserted check to win a timestamp tie")
	}
}

func TestRecent(t *testing.T) {
	var checks []model.Check
	for i := 0; i < 5; i++ {
		checks = append(checks, check("a", model.EngineClaude, true, day0.Add(time.Duration(i)*time.Minute)))
	}

	recent := Recent(checks, 3)
	if len(recent) != 3 {
		t.Fatalf("expected 3, got %d", len(recent))
	}
	if !recent[0].Timestamp.Equal(day0.Add(4*time.Minute)) || !recent[2].Timestamp.Equal(day0.Add(2*time.Minute)) {
		t.Errorf("expected newest first, got %v .. %v", recent[0].Timestamp, recent[2].Timestamp)
	}
	if got := Recent(checks, 20); len(got) != 5 {
		t.Errorf("expected all 5, got %d", len(got))
	}
	if got := Recent(nil, 3); len(got) != 0 {
		t.Errorf("expected none, got %d", len(got))
	}
}

func TestAggregate(t *testing.T) {
	s := Aggregate(twoByFour(), Options{})
	if s.Score != 50 || s.Total != 8 {
		t.Errorf("score %d over %d", s.Score, s.Total)
	}
	if len(s.Keywords) != 2 || s.Keywords[0].Keyword != "a" || s.Keywords[0].Present != 4 || s.Keywords[1].Present != 0 {
		t.Errorf("keywords = %+v", s.Keywords)
	}
	if s.Ranked[0].Keyword != "a" {
		t.Errorf("ranked = %+v", s.Ranked)
	}
	if len(s.Trend) != 1 || s.Trend[0].Percentage != 50 {
		t.Errorf("trend = %+v", s.Trend)
	}
	if len(s.Recent(20)) != 8 {
		t.Errorf("recent = %d", len(s.Recent(20)))
	}
}

func TestAggregate_KeywordFilter(t *testing.T) {
	s := Aggregate(twoByFour(), Options{Keyword: "b"})
	if s.Score != 0 || s.Total != 4 {
		t.Errorf("score %d over %d", s.Score, s.Total)
	}
	for _, e := range s.Engines {
		if e.Total != 1 || e.Percentage != 0 {
			t.Errorf("%s = %+v", e.Engine, e)
		}
	}

	empty := Aggregate(twoByFour(), Options{Keyword: "missing"})
	if empty.Total != 0 || empty.Score != 0 || len(empty.Trend) != 0 {
		t.Errorf("expected empty summary, got %+v", empty)
	}
}
