package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed base.yaml
var baseData []byte

// Categories is the fixed emotion category set, in the iteration order the
// analysis engines use for tie-breaking.
var Categories = []string{"joy", "sadness", "anger", "fear", "surprise", "neutral"}

// suggestedActivities maps a dominant emotion to curated activity tags.
var suggestedActivities = map[string][]string{
	"joy":      {"Exercise", "Social", "Creative"},
	"sadness":  {"Rest", "Nature", "Social"},
	"anger":    {"Exercise", "Meditation", "Music"},
	"fear":     {"Meditation", "Reading", "Rest"},
	"surprise": {"Creative", "Social", "Adventure"},
	"neutral":  {"Reading", "Walk", "Music"},
}

// EmotionWord is one lexicon row: a lowercase word, its emotion category,
// and an intensity weight in [0,1].
type EmotionWord struct {
	Word      string
	Category  string
	Intensity float64
}

// PackInfo describes one loaded lexicon source for status listings.
type PackInfo struct {
	Name  string
	File  string
	Words int
}

// Lexicon is the merged word table. Immutable after Load; safe for
// concurrent readers.
type Lexicon struct {
	words map[string]EmotionWord
	packs []PackInfo
}

// packFile is the YAML shape shared by the embedded base table and user
// packs: category name -> word -> intensity.
type packFile struct {
	Name       string                        `yaml:"name"`
	Categories map[string]map[string]float64 `yaml:"categories"`
}

// ValidCategory reports whether c is one of the six analysis categories.
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Load parses the embedded base table and merges any user packs found in
// packDir (*.yaml / *.yml, lexicographic order, later packs win per word).
// An empty or missing packDir yields the base table alone. Malformed packs
// are skipped with a warning, never fatal.
func Load(packDir string) (*Lexicon, error) {
	_, base, err := parsePack(baseData)
	if err != nil {
		return nil, fmt.Errorf("parse embedded lexicon: %w", err)
	}

	lex := &Lexicon{
		words: base,
		packs: []PackInfo{{Name: "base", File: "embedded", Words: len(base)}},
	}

	packDir = strings.TrimSpace(packDir)
	if packDir == "" {
		return lex, nil
	}

	info, err := os.Stat(packDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lex, nil
		}
		return nil, fmt.Errorf("stat lexicon dir %q: %w", packDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lexicon path is not a directory: %s", packDir)
	}

	entries, err := os.ReadDir(packDir)
	if err != nil {
		return nil, fmt.Errorf("read lexicon dir %q: %w", packDir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(packDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[lexicon] warning: skip unreadable pack %s: %v", path, err)
			continue
		}
		pf, words, err := parsePack(data)
		if err != nil {
			log.Printf("[lexicon] warning: skip invalid pack %s: %v", path, err)
			continue
		}
		if len(words) == 0 {
			log.Printf("[lexicon] warning: skip pack %s: no valid words", path)
			continue
		}
		for w, ew := range words {
			lex.words[w] = ew
		}
		name := strings.TrimSpace(pf.Name)
		if name == "" {
			name = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		}
		lex.packs = append(lex.packs, PackInfo{Name: name, File: path, Words: len(words)})
	}

	return lex, nil
}

func parsePack(data []byte) (packFile, map[string]EmotionWord, error) {
	var pf packFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return packFile{}, nil, err
	}
	return pf, buildTable(pf.Categories), nil
}

// buildTable flattens category maps into a single word table. Categories
// iterate in the fixed order, words sorted, so merges are deterministic.
func buildTable(categories map[string]map[string]float64) map[string]EmotionWord {
	out := make(map[string]EmotionWord)
	for _, cat := range Categories {
		entries, ok := categories[cat]
		if !ok {
			continue
		}
		words := make([]string, 0, len(entries))
		for w := range entries {
			words = append(words, w)
		}
		sort.Strings(words)
		for _, w := range words {
			word := strings.ToLower(strings.TrimSpace(w))
			if word == "" {
				continue
			}
			intensity := entries[w]
			if intensity < 0 {
				intensity = 0
			}
			if intensity > 1 {
				intensity = 1
			}
			out[word] = EmotionWord{Word: word, Category: cat, Intensity: intensity}
		}
	}
	return out
}

// Lookup returns the lexicon row for a lowercase token.
func (l *Lexicon) Lookup(word string) (EmotionWord, bool) {
	ew, ok := l.words[word]
	return ew, ok
}

// Size returns the number of distinct words in the merged table.
func (l *Lexicon) Size() int {
	return len(l.words)
}

// Packs lists the loaded sources, embedded base first.
func (l *Lexicon) Packs() []PackInfo {
	out := make([]PackInfo, len(l.packs))
	copy(out, l.packs)
	return out
}

// SuggestedActivities returns the curated activity tags for a dominant
// emotion. Unknown categories get the neutral list.
func (l *Lexicon) SuggestedActivities(category string) []string {
	tags, ok := suggestedActivities[category]
	if !ok {
		tags = suggestedActivities["neutral"]
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
