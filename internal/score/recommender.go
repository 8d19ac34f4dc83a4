// Package score derives qualitative recommendations from visibility breakdowns.
package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/aivis/internal/analytics"
	"github.com/ppiankov/aivis/internal/model"
)

const (
	// LowVisibilityThreshold flags engines below this percentage
	LowVisibilityThreshold = 30
	// LowCitationRatio flags keywords present in fewer than this share of checks
	LowCitationRatio = 0.4
	// MaxListed caps the keywords named by one recommendation
	MaxListed = 3
)

// Recommender turns engine and keyword breakdowns into recommendations
type Recommender struct{}

// NewRecommender creates a new recommender
func NewRecommender() *Recommender {
	return &Recommender{}
}

// Recommend applies each rule independently. Output order is low visibility,
// low citations, best performing; a rule with nothing to report is omitted.
func (r *Recommender) Recommend(engines []model.EngineStat, keywords []model.KeywordStat) []model.Recommendation {
	recs := []model.Recommendation{}

	if rec, ok := r.lowVisibility(engines); ok {
		recs = append(recs, rec)
	}
	if rec, ok := r.lowCitation(keywords); ok {
		recs = append(recs, rec)
	}
	if rec, ok := r.bestPerforming(keywords); ok {
		recs = append(recs, rec)
	}

	return recs
}

// lowVisibility names every engine under the threshold, including engines without checks
func (r *Recommender) lowVisibility(engines []model.EngineStat) (model.Recommendation, bool) {
	var names []string
	for _, e := range engines {
		if e.Percentage < LowVisibilityThreshold {
			names = append(names, e.Engine.String())
		}
	}
	if len(names) == 0 {
		return model.Recommendation{}, false
	}

	return model.Recommendation{
		Type:        model.RecommendLowVisibility,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Low visibility on %s", strings.Join(names, ", ")),
		Items:       names,
		Data: map[string]interface{}{
			"threshold": LowVisibilityThreshold,
			"engines":   len(names),
			"formula":   "round(present / total * 100) < threshold",
		},
	}, true
}

// lowCitation flags keywords by presence ratio, in breakdown order
func (r *Recommender) lowCitation(keywords []model.KeywordStat) (model.Recommendation, bool) {
	var flagged []string
	for _, k := range keywords {
		if float64(k.Present) < float64(k.Total)*LowCitationRatio {
			flagged = append(flagged, k.Keyword)
		}
	}
	if len(flagged) == 0 {
		return model.Recommendation{}, false
	}

	listed := flagged
	if len(listed) > MaxListed {
		listed = listed[:MaxListed]
	}

	return model.Recommendation{
		Type:        model.RecommendLowCitation,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Low citations for: %s", strings.Join(listed, ", ")),
		Items:       listed,
		Data: map[string]interface{}{
			"threshold": LowCitationRatio,
			"flagged":   len(flagged),
			"listed":    len(listed),
			"formula":   "present < total * threshold",
		},
	}, true
}

func (r *Recommender) bestPerforming(keywords []model.KeywordStat) (model.Recommendation, bool) {
	if len(keywords) == 0 {
		return model.Recommendation{}, false
	}

	ranked := analytics.RankKeywords(keywords)
	if len(ranked) > MaxListed {
		ranked = ranked[:MaxListed]
	}

	names := make([]string, 0, len(ranked))
	ratios := make([]float64, 0, len(ranked))
	for _, k := range ranked {
		names = append(names, k.Keyword)
		ratios = append(ratios, k.Ratio())
	}

	return model.Recommendation{
		Type:        model.RecommendBestPerforming,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Best performing: %s", strings.Join(names, ", ")),
		Items:       names,
		Data: map[string]interface{}{
			"ratios":  ratios,
			"formula": "top 3 by present / total, ties in breakdown order",
		},
	}, true
}
