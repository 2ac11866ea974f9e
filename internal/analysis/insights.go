package analysis

import (
	"fmt"
	"math"
)

// Insight types, in emission order.
const (
	InsightBoost       = "boost"
	InsightChallenge   = "challenge"
	InsightTrend       = "trend"
	InsightCombination = "combination"
)

const maxInsights = 4

// ActivityInsight is one derived observation about activity impact.
type ActivityInsight struct {
	Type       string
	Message    string
	Activities []string
	Score      float64
}

// GenerateInsights derives up to four ranked insights from a correlation
// list already sorted by improvement descending. Low-confidence
// correlations never headline an insight.
func GenerateInsights(correlations []ActivityCorrelation) []ActivityInsight {
	valid := make([]ActivityCorrelation, 0, len(correlations))
	for _, c := range correlations {
		if isFinite(c.ImprovementScore) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	var insights []ActivityInsight

	top := valid[0]
	if top.ImprovementScore > 0.2 && top.Confidence != ConfidenceLow {
		pct := math.Abs(top.ImprovementScore) * 10
		insights = append(insights, ActivityInsight{
			Type:       InsightBoost,
			Message:    fmt.Sprintf("%s lifts your mood about %.0f%% above your baseline", top.Activity, pct),
			Activities: []string{top.Activity},
			Score:      top.ImprovementScore,
		})
	}

	bottom := valid[len(valid)-1]
	if bottom.ImprovementScore < -0.2 && bottom.Confidence != ConfidenceLow {
		insights = append(insights, ActivityInsight{
			Type:       InsightChallenge,
			Message:    fmt.Sprintf("%s tends to pull your mood down; notice what usually surrounds it", bottom.Activity),
			Activities: []string{bottom.Activity},
			Score:      bottom.ImprovementScore,
		})
	}

	for _, c := range valid {
		if c.Confidence != ConfidenceLow && c.Trend == TrendImproving {
			insights = append(insights, ActivityInsight{
				Type:       InsightTrend,
				Message:    fmt.Sprintf("%s has been working better for you lately", c.Activity),
				Activities: []string{c.Activity},
				Score:      c.ImprovementScore,
			})
			break
		}
	}

	if len(valid) >= 2 {
		first, second := valid[0], valid[1]
		if first.ImprovementScore > 0.1 && second.ImprovementScore > 0.1 {
			insights = append(insights, ActivityInsight{
				Type:       InsightCombination,
				Message:    fmt.Sprintf("%s and %s are your strongest mood lifters", first.Activity, second.Activity),
				Activities: []string{first.Activity, second.Activity},
				Score:      round2((first.ImprovementScore + second.ImprovementScore) / 2),
			})
		}
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}
