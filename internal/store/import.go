package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ninthwave/moodlog/internal/entry"
)

// importFile is the legacy app export layout: camelCase fields, both entry
// kinds in one document.
type importFile struct {
	MoodEntries    []importMood    `json:"moodEntries"`
	JournalEntries []importJournal `json:"journalEntries"`
}

type importMood struct {
	ID         string   `json:"id"`
	Mood       string   `json:"mood"`
	Intensity  float64  `json:"intensity"`
	Activities []string `json:"activities"`
	Notes      string   `json:"notes"`
	Timestamp  string   `json:"timestamp"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

type importJournal struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Mood       string   `json:"mood"`
	Activities []string `json:"activities"`
	Tags       []string `json:"tags"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

// ImportResult reports how many rows an import actually added.
type ImportResult struct {
	Moods    int
	Journals int
}

// ImportJSON loads a legacy JSON export into the store. Rows whose IDs
// already exist are left untouched, so re-running an import is harmless.
func (s *Store) ImportJSON(path string) (ImportResult, error) {
	var result ImportResult

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("read import file: %w", err)
	}
	var doc importFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return result, fmt.Errorf("parse import file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range doc.MoodEntries {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		now := entry.Now()
		if m.Timestamp == "" {
			m.Timestamp = now
		}
		if m.CreatedAt == "" {
			m.CreatedAt = now
		}
		if m.UpdatedAt == "" {
			m.UpdatedAt = now
		}
		activities, err := encodeStrings(m.Activities)
		if err != nil {
			return result, fmt.Errorf("encode activities for %s: %w", m.ID, err)
		}
		res, err := s.db.Exec(`
			INSERT OR IGNORE INTO mood_entries (id, mood, intensity, activities, notes, timestamp, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, m.Mood, m.Intensity, activities, m.Notes, m.Timestamp, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return result, fmt.Errorf("import mood %s: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.Moods++
		}
	}

	for _, j := range doc.JournalEntries {
		if j.ID == "" {
			j.ID = uuid.NewString()
		}
		now := entry.Now()
		if j.CreatedAt == "" {
			j.CreatedAt = now
		}
		if j.UpdatedAt == "" {
			j.UpdatedAt = now
		}
		if j.Mood == "" {
			j.Mood = entry.MoodNeutral
		}
		activities, err := encodeStrings(j.Activities)
		if err != nil {
			return result, fmt.Errorf("encode activities for %s: %w", j.ID, err)
		}
		tags, err := encodeStrings(j.Tags)
		if err != nil {
			return result, fmt.Errorf("encode tags for %s: %w", j.ID, err)
		}
		res, err := s.db.Exec(`
			INSERT OR IGNORE INTO journal_entries (id, title, content, mood, activities, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, j.ID, j.Title, j.Content, j.Mood, activities, tags, j.CreatedAt, j.UpdatedAt)
		if err != nil {
			return result, fmt.Errorf("import journal %s: %w", j.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.Journals++
		}
	}

	return result, nil
}
