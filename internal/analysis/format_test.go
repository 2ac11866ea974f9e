package analysis

import "testing"

func TestFormatSummaryNoData(t *testing.T) {
	d := FormatSummary(TodaysSummary{MoodTrend: TrendInsufficientData, TopActivities: []string{}})
	if d.MoodText != "No entries yet today" {
		t.Errorf("mood text = %q", d.MoodText)
	}
	if d.TrendText != "Not enough data yet" {
		t.Errorf("trend text = %q", d.TrendText)
	}
	if d.IntensityText != "-" {
		t.Errorf("intensity text = %q", d.IntensityText)
	}
}

func TestFormatSummaryPopulated(t *testing.T) {
	d := FormatSummary(TodaysSummary{
		HasData:           true,
		MoodEntryCount:    3,
		JournalEntryCount: 1,
		DominantMood:      "joy",
		TopActivities:     []string{"Exercise", "Reading"},
		MoodTrend:         TrendImproving,
		AverageIntensity:  0.8,
	})
	if d.MoodText != "Mostly joyful" {
		t.Errorf("mood text = %q, want Mostly joyful", d.MoodText)
	}
	if d.ActivityText != "Exercise, Reading" {
		t.Errorf("activity text = %q", d.ActivityText)
	}
	if d.TrendText != "Trending up" {
		t.Errorf("trend text = %q", d.TrendText)
	}
	if d.IntensityText != "Strong" {
		t.Errorf("intensity text = %q", d.IntensityText)
	}
}

func TestFormatSummaryEdges(t *testing.T) {
	d := FormatSummary(TodaysSummary{
		HasData:       true,
		DominantMood:  "",
		TopActivities: []string{},
		MoodTrend:     "unexpected",
	})
	if d.MoodText != "Mixed" {
		t.Errorf("mood text = %q, want Mixed for unknown dominant", d.MoodText)
	}
	if d.ActivityText != "No activities tagged" {
		t.Errorf("activity text = %q", d.ActivityText)
	}
	if d.TrendText != "Holding steady" {
		t.Errorf("trend text = %q, want the stable fallback", d.TrendText)
	}
	if d.IntensityText != "-" {
		t.Errorf("intensity text = %q, want - at zero", d.IntensityText)
	}
}

func TestIntensityLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "-"},
		{0.2, "Gentle"},
		{0.5, "Moderate"},
		{0.9, "Strong"},
	}
	for _, tt := range tests {
		if got := intensityLabel(tt.in); got != tt.want {
			t.Errorf("intensityLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
