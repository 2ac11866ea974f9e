package store

import (
	"fmt"
	"strings"

	"github.com/ninthwave/moodlog/internal/entry"
)

// JournalFilter narrows a journal search. Zero-value fields are ignored;
// set fields combine with AND. Moods match through canonical aliases, so
// searching "happy" finds entries saved as "joy" and vice versa. Tags and
// Activities match any entry sharing at least one of the wanted values.
type JournalFilter struct {
	Query      string
	Moods      []string
	Tags       []string
	Activities []string
	From       string
	To         string
}

// SearchJournals returns entries matching the filter, newest first. Text
// and date narrowing happen in SQL; mood aliasing and tag or activity
// intersection happen on the scanned rows.
func (s *Store) SearchJournals(f JournalFilter) ([]entry.JournalEntry, error) {
	q := `
		SELECT id, title, content, mood, activities, tags, created_at, updated_at
		FROM journal_entries
	`
	var conds []string
	args := []any{}
	if f.Query != "" {
		needle := "%" + strings.ToLower(f.Query) + "%"
		conds = append(conds, `(LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(tags) LIKE ?)`)
		args = append(args, needle, needle, needle)
	}
	if f.From != "" {
		conds = append(conds, `substr(created_at, 1, 10) >= ?`)
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, `substr(created_at, 1, 10) <= ?`)
		args = append(args, f.To)
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search journal entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanJournals(rows)
	if err != nil {
		return nil, err
	}

	var out []entry.JournalEntry
	for _, j := range entries {
		if !moodMatches(j.Mood, f.Moods) {
			continue
		}
		if !intersectsFold(j.Tags, f.Tags) {
			continue
		}
		if !intersectsFold(j.Activities, f.Activities) {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

// moodMatches reports whether the entry mood's canonical bucket is one of
// the wanted moods. An empty want list matches everything.
func moodMatches(mood string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	canon := entry.CanonicalMood(mood)
	for _, w := range want {
		if entry.CanonicalMood(w) == canon {
			return true
		}
	}
	return false
}

// intersectsFold reports whether have and want share at least one string,
// compared case-insensitively. An empty want list matches everything.
func intersectsFold(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
