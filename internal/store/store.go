package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ninthwave/moodlog/internal/entry"
)

// Store persists mood and journal entries in one SQLite database file.
// Reads go through database/sql's pool; a mutex serializes writes.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.configure(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mood_entries (
			id TEXT PRIMARY KEY,
			mood TEXT NOT NULL,
			intensity REAL NOT NULL DEFAULT 0,
			activities TEXT NOT NULL DEFAULT '[]',
			notes TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_entries_timestamp ON mood_entries(timestamp)`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			mood TEXT NOT NULL DEFAULT 'neutral',
			activities TEXT NOT NULL DEFAULT '[]',
			tags TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_created ON journal_entries(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMood inserts or replaces an entry by ID. A missing ID is minted and
// missing timestamps fill with the current moment; UpdatedAt always
// refreshes.
func (s *Store) SaveMood(e *entry.MoodEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := entry.Now()
	if e.Timestamp == "" {
		e.Timestamp = now
	}
	if e.CreatedAt == "" {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	activities, err := encodeStrings(e.Activities)
	if err != nil {
		return fmt.Errorf("encode activities: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO mood_entries (id, mood, intensity, activities, notes, timestamp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mood = excluded.mood,
			intensity = excluded.intensity,
			activities = excluded.activities,
			notes = excluded.notes,
			timestamp = excluded.timestamp,
			updated_at = excluded.updated_at
	`, e.ID, e.Mood, e.Intensity, activities, e.Notes, e.Timestamp, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save mood entry: %w", err)
	}
	return nil
}

// MoodByID fetches one entry, or nil when absent.
func (s *Store) MoodByID(id string) (*entry.MoodEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, mood, intensity, activities, notes, timestamp, created_at, updated_at
		FROM mood_entries WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query mood entry: %w", err)
	}
	defer rows.Close()

	entries, err := scanMoods(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// ListMoods returns all entries, newest timestamp first.
func (s *Store) ListMoods() ([]entry.MoodEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, mood, intensity, activities, notes, timestamp, created_at, updated_at
		FROM mood_entries ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	defer rows.Close()
	return scanMoods(rows)
}

// MoodsByDateRange returns entries whose timestamp date falls in
// [from, to], both YYYY-MM-DD inclusive, newest first. Empty bounds leave
// that side open.
func (s *Store) MoodsByDateRange(from, to string) ([]entry.MoodEntry, error) {
	q := `
		SELECT id, mood, intensity, activities, notes, timestamp, created_at, updated_at
		FROM mood_entries
	`
	var conds []string
	args := []any{}
	if from != "" {
		conds = append(conds, `substr(timestamp, 1, 10) >= ?`)
		args = append(args, from)
	}
	if to != "" {
		conds = append(conds, `substr(timestamp, 1, 10) <= ?`)
		args = append(args, to)
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query mood range: %w", err)
	}
	defer rows.Close()
	return scanMoods(rows)
}

// DeleteMood removes one entry, reporting whether it existed.
func (s *Store) DeleteMood(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM mood_entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete mood entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteAllMoods clears the mood table.
func (s *Store) DeleteAllMoods() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM mood_entries`); err != nil {
		return fmt.Errorf("delete mood entries: %w", err)
	}
	return nil
}

// SaveJournal inserts or replaces a journal entry by ID, minting IDs and
// filling timestamps the same way SaveMood does.
func (s *Store) SaveJournal(j *entry.JournalEntry) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := entry.Now()
	if j.CreatedAt == "" {
		j.CreatedAt = now
	}
	j.UpdatedAt = now

	activities, err := encodeStrings(j.Activities)
	if err != nil {
		return fmt.Errorf("encode activities: %w", err)
	}
	tags, err := encodeStrings(j.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO journal_entries (id, title, content, mood, activities, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			mood = excluded.mood,
			activities = excluded.activities,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`, j.ID, j.Title, j.Content, j.Mood, activities, tags, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

// JournalByID fetches one journal entry, or nil when absent.
func (s *Store) JournalByID(id string) (*entry.JournalEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, title, content, mood, activities, tags, created_at, updated_at
		FROM journal_entries WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query journal entry: %w", err)
	}
	defer rows.Close()

	entries, err := scanJournals(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// ListJournals returns all journal entries, newest first.
func (s *Store) ListJournals() ([]entry.JournalEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, title, content, mood, activities, tags, created_at, updated_at
		FROM journal_entries ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()
	return scanJournals(rows)
}

// DeleteJournal removes one journal entry, reporting whether it existed.
func (s *Store) DeleteJournal(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete journal entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteAllJournals clears the journal table.
func (s *Store) DeleteAllJournals() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM journal_entries`); err != nil {
		return fmt.Errorf("delete journal entries: %w", err)
	}
	return nil
}

// Stats is a compact snapshot for status reporting.
type Stats struct {
	MoodEntries    int
	JournalEntries int
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM mood_entries`).Scan(&st.MoodEntries); err != nil {
		return st, fmt.Errorf("count mood entries: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM journal_entries`).Scan(&st.JournalEntries); err != nil {
		return st, fmt.Errorf("count journal entries: %w", err)
	}
	return st, nil
}

func scanMoods(rows *sql.Rows) ([]entry.MoodEntry, error) {
	var entries []entry.MoodEntry
	for rows.Next() {
		var e entry.MoodEntry
		var intensity sql.NullFloat64
		var activities string
		if err := rows.Scan(&e.ID, &e.Mood, &intensity, &activities, &e.Notes, &e.Timestamp, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		e.Intensity = intensity.Float64
		e.Activities = decodeStrings(activities)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood entries: %w", err)
	}
	return entries, nil
}

func scanJournals(rows *sql.Rows) ([]entry.JournalEntry, error) {
	var entries []entry.JournalEntry
	for rows.Next() {
		var j entry.JournalEntry
		var activities, tags string
		if err := rows.Scan(&j.ID, &j.Title, &j.Content, &j.Mood, &activities, &tags, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		j.Activities = decodeStrings(activities)
		j.Tags = decodeStrings(tags)
		entries = append(entries, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}

func encodeStrings(vals []string) (string, error) {
	if len(vals) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(vals)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("[store] warning: bad string list %q: %v", raw, err)
		return nil
	}
	return out
}
