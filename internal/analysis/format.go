package analysis

import (
	"fmt"
	"strings"
)

// SummaryDisplay is the four-line dashboard rendering of a summary.
type SummaryDisplay struct {
	MoodText      string
	ActivityText  string
	TrendText     string
	IntensityText string
}

var moodLabels = map[string]string{
	"joy":      "Joyful",
	"sadness":  "Low",
	"anger":    "Tense",
	"fear":     "Anxious",
	"surprise": "Surprised",
	"calm":     "Calm",
	"neutral":  "Steady",
}

var trendLabels = map[string]string{
	TrendImproving:        "Trending up",
	TrendDeclining:        "Trending down",
	TrendStable:           "Holding steady",
	TrendInsufficientData: "Not enough data yet",
}

// FormatSummary renders a summary into fixed display strings.
func FormatSummary(s TodaysSummary) SummaryDisplay {
	if !s.HasData {
		return SummaryDisplay{
			MoodText:      "No entries yet today",
			ActivityText:  "Log a mood to get started",
			TrendText:     trendLabels[TrendInsufficientData],
			IntensityText: "-",
		}
	}

	moodText := "Mixed"
	if label, ok := moodLabels[s.DominantMood]; ok {
		moodText = fmt.Sprintf("Mostly %s", strings.ToLower(label))
	}

	activityText := "No activities tagged"
	if len(s.TopActivities) > 0 {
		activityText = strings.Join(s.TopActivities, ", ")
	}

	trendText, ok := trendLabels[s.MoodTrend]
	if !ok {
		trendText = trendLabels[TrendStable]
	}

	return SummaryDisplay{
		MoodText:      moodText,
		ActivityText:  activityText,
		TrendText:     trendText,
		IntensityText: intensityLabel(s.AverageIntensity),
	}
}

func intensityLabel(avg float64) string {
	switch {
	case avg <= 0:
		return "-"
	case avg < 0.34:
		return "Gentle"
	case avg < 0.67:
		return "Moderate"
	default:
		return "Strong"
	}
}
