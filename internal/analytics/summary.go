package analytics

import "github.com/ppiankov/aivis/internal/model"

// Options narrows an aggregation
type Options struct {
	// Keyword restricts the summary to one keyword when set
	Keyword string
}

// Summary bundles every statistic computed from one set of checks
type Summary struct {
	Score    int
	Total    int
	Trend    []model.TrendPoint
	Engines  []model.EngineStat
	Keywords []model.KeywordStat // first-seen order
	Ranked   []model.KeywordStat // ratio descending
	Latest   []model.EngineSnapshot

	checks []model.Check
}

// Aggregate computes a Summary over checks
func Aggregate(checks []model.Check, opts Options) Summary {
	checks = Filter(checks, opts.Keyword)
	keywords := KeywordBreakdown(checks)

	return Summary{
		Score:    VisibilityScore(checks),
		Total:    len(checks),
		Trend:    DailyTrend(checks),
		Engines:  EngineBreakdown(checks),
		Keywords: keywords,
		Ranked:   RankKeywords(keywords),
		Latest:   LatestByEngine(checks),
		checks:   checks,
	}
}

// Recent returns the summary's n most recent checks, newest first
func (s Summary) Recent(n int) []model.Check {
	return Recent(s.checks, n)
}
