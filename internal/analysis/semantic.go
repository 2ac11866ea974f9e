package analysis

import (
	"strings"

	"github.com/ninthwave/moodlog/internal/entry"
	"github.com/ninthwave/moodlog/internal/lexicon"
)

// Analyzer runs lexicon-based emotion analysis over journal text. It holds
// no mutable state; one instance serves any number of concurrent callers.
type Analyzer struct {
	lex *lexicon.Lexicon
}

func NewAnalyzer(lex *lexicon.Lexicon) *Analyzer {
	return &Analyzer{lex: lex}
}

// EmotionAnalysis is the result of analyzing one piece of text.
type EmotionAnalysis struct {
	DominantEmotion string
	Distribution    map[string]float64 // category -> percentage, sums to ~100
	MatchedWords    []string           // lexicon hits in encounter order, duplicates kept
	MoodAlignment   float64            // 0..1, detected text vs self-reported mood
	SuggestedTags   []string
}

// EmotionTrendPoint is one dated distribution in a timeline.
type EmotionTrendPoint struct {
	Date     string
	Emotions map[string]float64
}

// EmotionTimeline is the per-date emotion history for a period.
type EmotionTimeline struct {
	Period string
	Trends []EmotionTrendPoint
}

// punctStripper removes the fixed punctuation class before tokenizing.
var punctStripper = strings.NewReplacer(
	".", "", ",", "", "!", "", "?", "", ";", "", ":", "",
	"'", "", `"`, "", "(", "", ")", "", "[", "", "]", "", "{", "", "}", "",
)

// moodBuckets folds the seven-value mood vocabulary onto the six analysis
// categories for alignment scoring. Calm text reads as neutral here.
var moodBuckets = map[string]string{
	entry.MoodJoy:      "joy",
	entry.MoodSadness:  "sadness",
	entry.MoodAnger:    "anger",
	entry.MoodFear:     "fear",
	entry.MoodSurprise: "surprise",
	entry.MoodCalm:     "neutral",
	entry.MoodNeutral:  "neutral",
}

func tokenize(content string) []string {
	return strings.Fields(punctStripper.Replace(strings.ToLower(content)))
}

// AnalyzeEntry computes the emotion distribution of content and scores it
// against the user's self-reported mood. It never fails: empty, huge, or
// non-text input degrades to a 100% neutral reading.
func (a *Analyzer) AnalyzeEntry(content, mood string) EmotionAnalysis {
	var matched []string
	totals := make(map[string]float64, len(lexicon.Categories))
	for _, tok := range tokenize(content) {
		ew, ok := a.lex.Lookup(tok)
		if !ok {
			continue
		}
		matched = append(matched, ew.Word)
		totals[ew.Category] += ew.Intensity
	}

	dist := normalizeDistribution(totals)
	dominant := dominantEmotion(dist)

	bucket := moodBuckets[entry.CanonicalMood(mood)]
	alignment := dist[bucket] / 100

	return EmotionAnalysis{
		DominantEmotion: dominant,
		Distribution:    dist,
		MatchedWords:    matched,
		MoodAlignment:   alignment,
		SuggestedTags:   a.lex.SuggestedActivities(dominant),
	}
}

// AnalyzeTimeline computes one distribution per distinct calendar date of
// CreatedAt. The first entry seen for a date supplies its text; later
// same-day entries do not average in. Dates keep first-encounter order.
func (a *Analyzer) AnalyzeTimeline(entries []entry.JournalEntry, period string) EmotionTimeline {
	tl := EmotionTimeline{Period: period}
	seen := make(map[string]bool, len(entries))
	for _, j := range entries {
		date := entry.DatePortion(j.CreatedAt)
		if seen[date] {
			continue
		}
		seen[date] = true
		res := a.AnalyzeEntry(j.Content, j.Mood)
		tl.Trends = append(tl.Trends, EmotionTrendPoint{Date: date, Emotions: res.Distribution})
	}
	return tl
}

// normalizeDistribution converts raw per-category weight sums into
// percentages over the full category set. Zero matches resolve to an
// explicit 100% neutral reading, not an all-zero distribution.
func normalizeDistribution(totals map[string]float64) map[string]float64 {
	dist := make(map[string]float64, len(lexicon.Categories))
	var sum float64
	for _, cat := range lexicon.Categories {
		sum += totals[cat]
	}
	if sum <= 0 || !isFinite(sum) {
		for _, cat := range lexicon.Categories {
			dist[cat] = 0
		}
		dist["neutral"] = 100
		return dist
	}
	for _, cat := range lexicon.Categories {
		dist[cat] = round1(totals[cat] / sum * 100)
	}
	return dist
}

// dominantEmotion picks the strictly greatest share; ties fall to the
// earlier category in the fixed order.
func dominantEmotion(dist map[string]float64) string {
	dominant := "neutral"
	best := -1.0
	for _, cat := range lexicon.Categories {
		if dist[cat] > best {
			best = dist[cat]
			dominant = cat
		}
	}
	return dominant
}
