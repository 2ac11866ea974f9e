package entry

import (
	"strings"
	"testing"
)

func TestCanonicalMood(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"joy", "joy"},
		{"sadness", "sadness"},
		{"anger", "anger"},
		{"fear", "fear"},
		{"surprise", "surprise"},
		{"calm", "calm"},
		{"neutral", "neutral"},
		{"happy", "joy"},
		{"excited", "joy"},
		{"sad", "sadness"},
		{"angry", "anger"},
		{"stress", "anger"},
		{"anxious", "fear"},
		{"peaceful", "calm"},
		{"HAPPY", "joy"},
		{"  Calm  ", "calm"},
		{"", "neutral"},
		{"melancholy", "neutral"},
	}
	for _, tt := range tests {
		if got := CanonicalMood(tt.in); got != tt.want {
			t.Errorf("CanonicalMood(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKnownMood(t *testing.T) {
	for _, m := range CanonicalMoods {
		if !KnownMood(m) {
			t.Errorf("KnownMood(%q) = false, want true", m)
		}
	}
	if !KnownMood("peaceful") {
		t.Error("KnownMood(peaceful) = false, want true")
	}
	if KnownMood("melancholy") {
		t.Error("KnownMood(melancholy) = true, want false")
	}
}

func TestNewMoodEntry(t *testing.T) {
	e := NewMoodEntry("joy", 0.8, []string{"Exercise"}, "morning run")
	if e.ID == "" {
		t.Error("ID should not be empty")
	}
	if e.Mood != "joy" {
		t.Errorf("mood = %q, want joy", e.Mood)
	}
	if e.Intensity != 0.8 {
		t.Errorf("intensity = %v, want 0.8", e.Intensity)
	}
	if e.Timestamp == "" || e.Timestamp != e.CreatedAt {
		t.Errorf("timestamp = %q, createdAt = %q, want equal and non-empty", e.Timestamp, e.CreatedAt)
	}

	other := NewMoodEntry("calm", 0.5, nil, "")
	if other.ID == e.ID {
		t.Error("two entries should not share an ID")
	}
}

func TestNewJournalEntry(t *testing.T) {
	j := NewJournalEntry("Morning", "Feeling good today", "joy", []string{"Exercise"}, []string{"gratitude"})
	if j.ID == "" {
		t.Error("ID should not be empty")
	}
	if j.Content != "Feeling good today" {
		t.Errorf("content = %q", j.Content)
	}
	if j.CreatedAt != j.UpdatedAt {
		t.Errorf("createdAt = %q, updatedAt = %q, want equal", j.CreatedAt, j.UpdatedAt)
	}
	if !strings.Contains(j.CreatedAt, "T") {
		t.Errorf("createdAt %q should be RFC 3339", j.CreatedAt)
	}
}

func TestDatePortion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-08-22T10:30:00Z", "2026-08-22"},
		{"2026-08-22", "2026-08-22"},
		{"garbage", "garbage"},
		{"", ""},
		{"2026-08-22T10:30:00+09:00", "2026-08-22"},
	}
	for _, tt := range tests {
		if got := DatePortion(tt.in); got != tt.want {
			t.Errorf("DatePortion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
