package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/ninthwave/moodlog/internal/entry"
)

// summaryMoodScores is the summary engine's own 1-7 scale. It deliberately
// differs from correlationMoodScores in scale and ordering; the two trend
// detectors were tuned against their own tables and must stay separate.
var summaryMoodScores = map[string]float64{
	entry.MoodSadness:  1,
	entry.MoodAnger:    2,
	entry.MoodFear:     3,
	entry.MoodNeutral:  4,
	entry.MoodSurprise: 5,
	entry.MoodCalm:     6,
	entry.MoodJoy:      7,
}

// TodaysSummary is the dashboard rollup for one calendar date.
type TodaysSummary struct {
	MoodEntryCount    int
	JournalEntryCount int
	DominantMood      string // "" when nothing logged
	TopActivities     []string
	MoodTrend         string
	AverageIntensity  float64
	HasData           bool
}

// Summarize rolls up today's entries using the current clock. Entries are
// stamped in UTC, so today is the UTC date.
func Summarize(moods []entry.MoodEntry, journals []entry.JournalEntry) TodaysSummary {
	return SummaryAt(time.Now().UTC(), moods, journals)
}

// SummaryAt computes the rollup for the calendar date of now. Pure
// function of its arguments; the wrapper above supplies the clock.
func SummaryAt(now time.Time, moods []entry.MoodEntry, journals []entry.JournalEntry) TodaysSummary {
	today := now.Format("2006-01-02")

	var todayMoods []entry.MoodEntry
	for _, m := range moods {
		if entry.DatePortion(m.Timestamp) == today {
			todayMoods = append(todayMoods, m)
		}
	}
	var todayJournals []entry.JournalEntry
	for _, j := range journals {
		if entry.DatePortion(j.CreatedAt) == today {
			todayJournals = append(todayJournals, j)
		}
	}

	if len(todayMoods) == 0 && len(todayJournals) == 0 {
		return TodaysSummary{
			TopActivities: []string{},
			MoodTrend:     TrendInsufficientData,
		}
	}

	return TodaysSummary{
		MoodEntryCount:    len(todayMoods),
		JournalEntryCount: len(todayJournals),
		DominantMood:      dominantMood(todayMoods, todayJournals),
		TopActivities:     topActivities(todayMoods, todayJournals),
		MoodTrend:         summaryTrend(todayMoods),
		AverageIntensity:  averageIntensity(todayMoods),
		HasData:           true,
	}
}

// dominantMood tallies one vote per entry of either type into the fixed
// seven-category counter. Ties fall to the earlier canonical category.
func dominantMood(moods []entry.MoodEntry, journals []entry.JournalEntry) string {
	counts := make(map[string]int, len(entry.CanonicalMoods))
	for _, m := range moods {
		counts[entry.CanonicalMood(m.Mood)]++
	}
	for _, j := range journals {
		counts[entry.CanonicalMood(j.Mood)]++
	}

	dominant := ""
	best := 0
	for _, mood := range entry.CanonicalMoods {
		if counts[mood] > best {
			best = counts[mood]
			dominant = mood
		}
	}
	return dominant
}

// topActivities ranks tags by occurrence count across both entry types,
// duplicates included; ties keep insertion order. Returns at most 3.
func topActivities(moods []entry.MoodEntry, journals []entry.JournalEntry) []string {
	counts := make(map[string]int)
	var order []string
	tally := func(tags []string) {
		for _, tag := range tags {
			if _, ok := counts[tag]; !ok {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	for _, m := range moods {
		tally(m.Activities)
	}
	for _, j := range journals {
		tally(j.Activities)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	top := make([]string, 0, 3)
	for i := 0; i < len(order) && i < 3; i++ {
		top = append(top, order[i])
	}
	return top
}

func averageIntensity(moods []entry.MoodEntry) float64 {
	vals := make([]float64, len(moods))
	for i, m := range moods {
		vals[i] = m.Intensity
	}
	avg, ok := meanFinite(vals)
	if !ok {
		return 0
	}
	return avg
}

// summaryTrend splits the day's mood entries into two windows and
// compares mean moodScore×intensity. Under 2 entries there is nothing to
// compare, so insufficient_data; the correlation engine's parallel
// detector reads stable below its own threshold instead.
func summaryTrend(moods []entry.MoodEntry) string {
	if len(moods) < 2 {
		return TrendInsufficientData
	}

	sorted := make([]entry.MoodEntry, len(moods))
	copy(sorted, moods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return timestampBefore(sorted[i].Timestamp, sorted[j].Timestamp)
	})

	// Ceil split: an odd-length day gives the extra entry to the morning.
	half := (len(sorted) + 1) / 2
	first, firstOK := meanFinite(moodValues(sorted[:half]))
	second, secondOK := meanFinite(moodValues(sorted[half:]))
	if !firstOK || !secondOK {
		return TrendStable
	}

	diff := second - first
	switch {
	case math.Abs(diff) < 0.5:
		return TrendStable
	case diff > 0:
		return TrendImproving
	default:
		return TrendDeclining
	}
}

func moodValues(moods []entry.MoodEntry) []float64 {
	out := make([]float64, len(moods))
	for i, m := range moods {
		out[i] = summaryMoodScores[entry.CanonicalMood(m.Mood)] * m.Intensity
	}
	return out
}
