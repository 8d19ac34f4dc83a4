// Package analytics turns stored checks into visibility statistics.
// Every function is pure; an empty input yields zero values, never an error.
package analytics

import (
	"math"
	"sort"

	"github.com/ppiankov/aivis/internal/model"
)

func percent(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(present) / float64(total)))
}

// VisibilityScore is the share of checks where the brand was present, 0..100
func VisibilityScore(checks []model.Check) int {
	present := 0
	for _, c := range checks {
		if c.Presence {
			present++
		}
	}
	return percent(present, len(checks))
}

// DailyTrend groups checks by UTC day, ascending. Days without checks are omitted.
func DailyTrend(checks []model.Check) []model.TrendPoint {
	byDay := make(map[string]*model.TrendPoint)
	for _, c := range checks {
		day := c.Day()
		point, ok := byDay[day]
		if !ok {
			point = &model.TrendPoint{Date: day}
			byDay[day] = point
		}
		point.Total++
		if c.Presence {
			point.Present++
		}
	}

	trend := make([]model.TrendPoint, 0, len(byDay))
	for _, point := range byDay {
		point.Percentage = percent(point.Present, point.Total)
		trend = append(trend, *point)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })
	return trend
}

// EngineBreakdown reports every roster engine in roster order, including
// engines without records
func EngineBreakdown(checks []model.Check) []model.EngineStat {
	counts := make(map[model.Engine]*model.EngineStat, len(model.Engines))
	stats := make([]model.EngineStat, len(model.Engines))
	for i, e := range model.Engines {
		stats[i].Engine = e
		counts[e] = &stats[i]
	}

	for _, c := range checks {
		stat, ok := counts[c.Engine]
		if !ok {
			continue
		}
		stat.Total++
		if c.Presence {
			stat.Present++
		}
	}

	for i := range stats {
		stats[i].Percentage = percent(stats[i].Present, stats[i].Total)
	}
	return stats
}

// KeywordBreakdown groups checks by keyword in first-seen order.
// Engines lists the engines with a present check, also first-seen.
func KeywordBreakdown(checks []model.Check) []model.KeywordStat {
	index := make(map[string]int)
	var stats []model.KeywordStat

	for _, c := range checks {
		i, ok := index[c.Keyword]
		if !ok {
			i = len(stats)
			index[c.Keyword] = i
			stats = append(stats, model.KeywordStat{Keyword: c.Keyword, Engines: []model.Engine{}})
		}

		stat := &stats[i]
		stat.Total++
		if !c.Presence {
			continue
		}
		stat.Present++
		if !containsEngine(stat.Engines, c.Engine) {
			stat.Engines = append(stat.Engines, c.Engine)
		}
	}

	if stats == nil {
		return []model.KeywordStat{}
	}
	return stats
}

func containsEngine(engines []model.Engine, e model.Engine) bool {
	for _, known := range engines {
		if known == e {
			return true
		}
	}
	return false
}

// RankKeywords orders a copy of stats by presence ratio, highest first.
// Ties keep their input order.
func RankKeywords(stats []model.KeywordStat) []model.KeywordStat {
	ranked := make([]model.KeywordStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Ratio() > ranked[j].Ratio()
	})
	return ranked
}

// LatestByEngine returns one snapshot per roster engine. The most recent
// check supplies the latest fields; PresenceRate covers the engine's history.
func LatestByEngine(checks []model.Check) []model.EngineSnapshot {
	sorted := sortedCopy(checks)

	snapshots := make([]model.EngineSnapshot, 0, len(model.Engines))
	for _, e := range model.Engines {
		snap := model.EngineSnapshot{Engine: e, ObservedURLs: []string{}}

		present := 0
		var latest *model.Check
		for i := range sorted {
			if sorted[i].Engine != e {
				continue
			}
			snap.Total++
			if sorted[i].Presence {
				present++
			}
			latest = &sorted[i]
		}

		snap.PresenceRate = percent(present, snap.Total)
		if latest != nil {
			at := latest.Timestamp
			snap.LatestAt = &at
			snap.LatestPresence = latest.Presence
			snap.LatestPosition = latest.Position
			snap.LatestSnippet = latest.AnswerSnippet
			snap.CitationsCount = latest.CitationsCount
			if latest.ObservedURLs != nil {
				snap.ObservedURLs = append([]string(nil), latest.ObservedURLs...)
			}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}

// Filter returns the checks for one keyword; an empty keyword returns all of them
func Filter(checks []model.Check, keyword string) []model.Check {
	if keyword == "" {
		return checks
	}
	out := make([]model.Check, 0)
	for _, c := range checks {
		if c.Keyword == keyword {
			out = append(out, c)
		}
	}
	return out
}

// Recent returns the n most recent checks, newest first
func Recent(checks []model.Check, n int) []model.Check {
	sorted := sortedCopy(checks)
	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}

	out := make([]model.Check, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		out = append(out, sorted[i])
	}
	return out
}

func sortedCopy(checks []model.Check) []model.Check {
	sorted := make([]model.Check, len(checks))
	copy(sorted, checks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
