package model

import (
	"math"
	"time"
)

// ProjectReport is the project dashboard: score, trend and breakdowns
type ProjectReport struct {
	Project         Project          `json:"project"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Score           int              `json:"score"`    // Visibility score (0-100)
	Checks          int              `json:"checks"`   // Observations the report was computed from
	Trend           []TrendPoint     `json:"trend"`
	Engines         []EngineStat     `json:"engines"`
	Keywords        []KeywordStat    `json:"keywords"` // First-seen order, truncated for display
	Recommendations []Recommendation `json:"recommendations"`
	Recent          []Check          `json:"recent"` // Newest first
	Audit           *AuditReport     `json:"audit,omitempty"`
}

// KeywordReport is the single-keyword detail view
type KeywordReport struct {
	Project     Project          `json:"project"`
	Keyword     string           `json:"keyword"`
	GeneratedAt time.Time        `json:"generated_at"`
	Score       int              `json:"score"`
	Checks      int              `json:"checks"`
	Trend       []TrendPoint     `json:"trend"`
	Engines     []EngineSnapshot `json:"engines"`
}

// TrendPoint is the visibility of a single UTC day
type TrendPoint struct {
	Date       string `json:"date"` // YYYY-MM-DD
	Percentage int    `json:"percentage"`
	Present    int    `json:"present"`
	Total      int    `json:"total"`
}

// EngineStat is the presence breakdown of one engine
type EngineStat struct {
	Engine     Engine `json:"engine"`
	Percentage int    `json:"percentage"`
	Present    int    `json:"present"`
	Total      int    `json:"total"`
}

// KeywordStat is the presence breakdown of one keyword
type KeywordStat struct {
	Keyword string   `json:"keyword"`
	Present int      `json:"present"`
	Total   int      `json:"total"`
	Engines []Engine `json:"engines"` // Engines with at least one present check
}

// Ratio is present/total, 0 for an empty stat
func (k KeywordStat) Ratio() float64 {
	if k.Total == 0 {
		return 0
	}
	return float64(k.Present) / float64(k.Total)
}

// Percentage is the ratio rounded to a whole percent
func (k KeywordStat) Percentage() int {
	return int(math.Round(k.Ratio() * 100))
}

// EngineSnapshot is the latest observed state of one engine for a keyword.
// PresenceRate covers the engine's whole history, the rest comes from the latest check.
type EngineSnapshot struct {
	Engine         Engine     `json:"engine"`
	PresenceRate   int        `json:"presence_rate"`
	Total          int        `json:"total"`
	LatestPresence bool       `json:"latest_presence"`
	LatestPosition *int       `json:"latest_position,omitempty"`
	LatestSnippet  *string    `json:"latest_snippet,omitempty"`
	CitationsCount int        `json:"citations_count"`
	ObservedURLs   []string   `json:"observed_urls"`
	LatestAt       *time.Time `json:"latest_at,omitempty"`
}

// Recommendation is a qualitative flag derived from the breakdowns
type Recommendation struct {
	Type        RecommendationType     `json:"type"`
	Severity    Severity               `json:"severity"`
	Description string                 `json:"description"`     // Human-readable text
	Items       []string               `json:"items"`           // Engines or keywords named by the flag
	Data        map[string]interface{} `json:"data,omitempty"` // Threshold and formula used
}

// RecommendationType classifies a recommendation
type RecommendationType string

const (
	RecommendLowVisibility  RecommendationType = "low_visibility"
	RecommendLowCitation    RecommendationType = "low_citation"
	RecommendBestPerforming RecommendationType = "best_performing"
)

// Severity indicates how urgent a recommendation or audit signal is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AuditReport describes whether AI crawlers may read the project's site
type AuditReport struct {
	Domain    string        `json:"domain"`
	CheckedAt time.Time     `json:"checked_at"`
	Crawlers  []CrawlerRule `json:"crawlers"`
	MetaTags  []string      `json:"meta_robots,omitempty"`
	Signals   []Signal      `json:"signals"`
	Error     string        `json:"error,omitempty"`
}

// CrawlerRule is the robots.txt verdict for one AI crawler user agent
type CrawlerRule struct {
	Engine    Engine `json:"engine"`
	UserAgent string `json:"user_agent"`
	Allowed   bool   `json:"allowed"`
}

// Signal is a diagnostic finding from the site audit
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    Severity               `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies an audit signal
type SignalType string

const (
	SignalCrawlerBlocked SignalType = "crawler_blocked"
	SignalMetaNoAI       SignalType = "meta_noai"
	SignalMetaNoIndex    SignalType = "meta_noindex"
	SignalUnreachable    SignalType = "site_unreachable"
)
