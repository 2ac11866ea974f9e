package analysis

import (
	"sort"
	"strings"

	"github.com/ninthwave/moodlog/internal/entry"
)

// Confidence tiers derived from sample size.
const (
	ConfidenceLow    = "Low"
	ConfidenceMedium = "Medium"
	ConfidenceHigh   = "High"
)

// Trend labels shared by the correlation and summary engines.
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// correlationMoodScores maps raw mood strings onto the correlation
// engine's 2-9 base scale. Legacy vocabulary keys score directly without
// alias normalization; unlisted values (including "angry") take the
// neutral default. Distinct from summaryMoodScores, which uses a
// different scale. Keep the two tables separate.
var correlationMoodScores = map[string]float64{
	"sadness":  2,
	"anger":    3,
	"fear":     3,
	"neutral":  5,
	"surprise": 6,
	"calm":     7,
	"joy":      9,
	"sad":      2,
	"happy":    9,
	"stress":   3,
	"excited":  8,
	"anxious":  3,
	"peaceful": 7,
}

const defaultMoodScore = 5

// ActivityCorrelation aggregates the mood effect of one activity tag.
type ActivityCorrelation struct {
	Activity         string
	EntryCount       int
	AverageMoodScore float64            // 1-10 combined scale
	AverageIntensity float64            // 0-10
	MoodDistribution map[string]float64 // canonical mood -> % of group entries
	ImprovementScore float64            // group average minus baseline
	Frequency        float64            // group size / activity-bearing entries; can exceed 1.0 with duplicate tags
	Confidence       string
	Trend            string
}

type scoredEntry struct {
	e     entry.MoodEntry
	score float64
}

func correlationMoodScore(mood string) float64 {
	if s, ok := correlationMoodScores[strings.ToLower(strings.TrimSpace(mood))]; ok {
		return s
	}
	return defaultMoodScore
}

// combinedScore folds mood category and intensity into one 1-10 value.
// Non-finite intensities propagate here and get filtered at aggregation.
func combinedScore(e entry.MoodEntry) float64 {
	return (correlationMoodScore(e.Mood) + e.Intensity*10) / 2
}

// AnalyzeActivityCorrelations groups mood entries by activity tag and
// scores each tag's effect relative to the baseline over all
// activity-bearing entries. Results sort by improvement descending.
// Activity-less entries contribute to nothing, baseline included.
func AnalyzeActivityCorrelations(entries []entry.MoodEntry) []ActivityCorrelation {
	if len(entries) == 0 {
		return nil
	}

	var bearing []scoredEntry
	for _, e := range entries {
		if len(e.Activities) == 0 {
			continue
		}
		bearing = append(bearing, scoredEntry{e: e, score: combinedScore(e)})
	}
	if len(bearing) == 0 {
		return nil
	}

	scores := make([]float64, len(bearing))
	for i, s := range bearing {
		scores[i] = s.score
	}
	baseline, baselineOK := meanFinite(scores)
	if !baselineOK {
		baseline = defaultMoodScore
	}

	// One append per tag occurrence: an entry tagged [Run, Run] lands in
	// the Run group twice, inflating its count, averages, and frequency
	// numerator. Known quirk, kept.
	groups := make(map[string][]scoredEntry)
	var order []string
	for _, s := range bearing {
		for _, tag := range s.e.Activities {
			if _, ok := groups[tag]; !ok {
				order = append(order, tag)
			}
			groups[tag] = append(groups[tag], s)
		}
	}

	out := make([]ActivityCorrelation, 0, len(order))
	for _, tag := range order {
		out = append(out, correlateGroup(tag, groups[tag], len(bearing), baseline, baselineOK))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return sortScore(out[i].ImprovementScore) > sortScore(out[j].ImprovementScore)
	})
	return out
}

func correlateGroup(tag string, group []scoredEntry, totalBearing int, baseline float64, baselineOK bool) ActivityCorrelation {
	groupScores := make([]float64, len(group))
	intensities := make([]float64, len(group))
	for i, s := range group {
		groupScores[i] = s.score
		intensities[i] = s.e.Intensity * 10
	}

	avg, avgOK := meanFinite(groupScores)
	avgScore := 0.0
	if avgOK {
		avgScore = round1(avg)
	}

	avgIntensity := 0.0
	if v, ok := meanFinite(intensities); ok {
		avgIntensity = round1(v)
	}

	improvement := 0.0
	if avgOK && baselineOK {
		improvement = round2(avg - baseline)
	}

	dist := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range group {
		counts[entry.CanonicalMood(s.e.Mood)]++
	}
	for mood, n := range counts {
		dist[mood] = round1(float64(n) / float64(len(group)) * 100)
	}

	confidence := ConfidenceHigh
	switch {
	case len(group) < 3:
		confidence = ConfidenceLow
	case len(group) < 8:
		confidence = ConfidenceMedium
	}

	return ActivityCorrelation{
		Activity:         tag,
		EntryCount:       len(group),
		AverageMoodScore: avgScore,
		AverageIntensity: avgIntensity,
		MoodDistribution: dist,
		ImprovementScore: improvement,
		Frequency:        round2(float64(len(group)) / float64(totalBearing)),
		Confidence:       confidence,
		Trend:            correlationTrend(group),
	}
}

// correlationTrend compares the first and second half of a group's
// chronology. Groups under 3 entries read stable, not insufficient; the
// summary engine draws that line differently and the asymmetry is kept.
func correlationTrend(group []scoredEntry) string {
	if len(group) < 3 {
		return TrendStable
	}
	sorted := make([]scoredEntry, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return timestampBefore(sorted[i].e.Timestamp, sorted[j].e.Timestamp)
	})

	half := len(sorted) / 2
	first, firstOK := meanFinite(scoresOf(sorted[:half]))
	second, secondOK := meanFinite(scoresOf(sorted[half:]))
	if !firstOK || !secondOK {
		return TrendStable
	}

	diff := second - first
	switch {
	case diff > 0.2:
		return TrendImproving
	case diff < -0.2:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func scoresOf(group []scoredEntry) []float64 {
	out := make([]float64, len(group))
	for i, s := range group {
		out[i] = s.score
	}
	return out
}

// sortScore orders improvement values; non-finite sorts last.
func sortScore(v float64) float64 {
	if !isFinite(v) {
		return -999
	}
	return v
}
