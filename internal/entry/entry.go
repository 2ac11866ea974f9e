package entry

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Canonical mood categories. Every mood read from user input or storage
// normalizes onto this seven-value set.
const (
	MoodJoy      = "joy"
	MoodSadness  = "sadness"
	MoodAnger    = "anger"
	MoodFear     = "fear"
	MoodSurprise = "surprise"
	MoodCalm     = "calm"
	MoodNeutral  = "neutral"
)

// CanonicalMoods is the fixed category order used for tie-breaking in
// dominant-mood votes.
var CanonicalMoods = []string{
	MoodJoy,
	MoodSadness,
	MoodAnger,
	MoodFear,
	MoodSurprise,
	MoodCalm,
	MoodNeutral,
}

// moodAliases folds the legacy five-value vocabulary, plus variants seen in
// old exports, onto the canonical set.
var moodAliases = map[string]string{
	"happy":    MoodJoy,
	"excited":  MoodJoy,
	"sad":      MoodSadness,
	"angry":    MoodAnger,
	"stress":   MoodAnger,
	"anxious":  MoodFear,
	"peaceful": MoodCalm,
}

// CanonicalMood maps any mood string to its canonical category. Unknown
// values map to neutral.
func CanonicalMood(mood string) string {
	m := strings.ToLower(strings.TrimSpace(mood))
	switch m {
	case MoodJoy, MoodSadness, MoodAnger, MoodFear, MoodSurprise, MoodCalm, MoodNeutral:
		return m
	}
	if canonical, ok := moodAliases[m]; ok {
		return canonical
	}
	return MoodNeutral
}

// KnownMood reports whether mood is a canonical value or a recognized alias.
func KnownMood(mood string) bool {
	m := strings.ToLower(strings.TrimSpace(mood))
	switch m {
	case MoodJoy, MoodSadness, MoodAnger, MoodFear, MoodSurprise, MoodCalm, MoodNeutral:
		return true
	}
	_, ok := moodAliases[m]
	return ok
}

// MoodEntry is a quick-logged emotional state. Timestamp is the semantic
// "when this mood occurred" field; all date filtering and trend ordering
// read it, never CreatedAt.
type MoodEntry struct {
	ID         string
	Mood       string
	Intensity  float64
	Activities []string
	Notes      string
	Timestamp  string
	CreatedAt  string
	UpdatedAt  string
}

// JournalEntry is a free-text reflective entry with a self-reported mood.
// Content is the only field semantic analysis reads.
type JournalEntry struct {
	ID         string
	Title      string
	Content    string
	Mood       string
	Activities []string
	Tags       []string
	CreatedAt  string
	UpdatedAt  string
}

// NewMoodEntry stamps a fresh entry with a generated ID and the current time.
func NewMoodEntry(mood string, intensity float64, activities []string, notes string) MoodEntry {
	now := Now()
	return MoodEntry{
		ID:         uuid.NewString(),
		Mood:       mood,
		Intensity:  intensity,
		Activities: activities,
		Notes:      notes,
		Timestamp:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewJournalEntry stamps a fresh journal entry with a generated ID and the
// current time.
func NewJournalEntry(title, content, mood string, activities, tags []string) JournalEntry {
	now := Now()
	return JournalEntry{
		ID:         uuid.NewString(),
		Title:      title,
		Content:    content,
		Mood:       mood,
		Activities: activities,
		Tags:       tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Now returns the current UTC moment in the storage timestamp format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// DatePortion extracts the YYYY-MM-DD prefix of an ISO-8601 timestamp.
// Shorter or malformed strings come back unchanged so comparisons stay
// consistent without ever failing.
func DatePortion(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}
