package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninthwave/moodlog/internal/analysis"
	"github.com/ninthwave/moodlog/internal/config"
	"github.com/ninthwave/moodlog/internal/entry"
	"github.com/ninthwave/moodlog/internal/gateway"
	"github.com/ninthwave/moodlog/internal/lexicon"
	"github.com/ninthwave/moodlog/internal/store"
)

var (
	moodNotesFlag         string
	journalTagsFlag       []string
	journalActivitiesFlag []string
	journalMoodFlag       string
	timelinePeriodFlag    string
	searchTextFlag        string
	searchMoodFlag        []string
	searchTagFlag         []string
	searchActivityFlag    []string
	searchFromFlag        string
	searchToFlag          string
)

var rootCmd = &cobra.Command{
	Use:   "moodlog",
	Short: "Mood tracking and journaling with lexical emotion analysis",
	Long:  "moodlog logs moods and journal entries, analyzes them against emotion lexicons, and surfaces activity patterns. Run it as a one-shot CLI or as a long-lived gateway with chat channels.",
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create the default config and workspace",
	RunE:  runOnboard,
}

var moodCmd = &cobra.Command{
	Use:   "mood <mood> <intensity> [activities...]",
	Short: "Log a mood with optional activities",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMood,
}

var journalCmd = &cobra.Command{
	Use:   "journal [title:] <text>",
	Short: "Save a journal entry",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runJournal,
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's summary",
	RunE:  runToday,
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show activity patterns and what they do to your mood",
	RunE:  runInsights,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Analyze text without saving anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the per-day emotion timeline from journal entries",
	RunE:  runTimeline,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search journal entries",
	RunE:  runSearch,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import entries from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "List loaded lexicon packs",
	RunE:  runLexicon,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show config, workspace and store status",
	RunE:  runStatus,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the long-lived gateway (channels, cron, daily summary)",
	RunE:  runGateway,
}

func init() {
	moodCmd.Flags().StringVarP(&moodNotesFlag, "notes", "n", "", "Free-form note stored with the entry")
	journalCmd.Flags().StringSliceVar(&journalTagsFlag, "tags", nil, "Tags for the entry")
	journalCmd.Flags().StringSliceVar(&journalActivitiesFlag, "activities", nil, "Activities for the entry")
	journalCmd.Flags().StringVar(&journalMoodFlag, "mood", "", "Self-reported mood (detected from the text when omitted)")
	timelineCmd.Flags().StringVar(&timelinePeriodFlag, "period", "week", "week, month or all")
	searchCmd.Flags().StringVar(&searchTextFlag, "text", "", "Substring match across title, content and tags")
	searchCmd.Flags().StringSliceVar(&searchMoodFlag, "mood", nil, "Only entries with one of these moods (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchTagFlag, "tag", nil, "Only entries with one of these tags (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchActivityFlag, "activity", nil, "Only entries with one of these activities (repeatable)")
	searchCmd.Flags().StringVar(&searchFromFlag, "from", "", "Start date, YYYY-MM-DD")
	searchCmd.Flags().StringVar(&searchToFlag, "to", "", "End date, YYYY-MM-DD")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(moodCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(lexiconCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(gatewayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runOnboard(cmd *cobra.Command, args []string) error {
	return runOnboardWithWriter(os.Stdout)
}

func runOnboardWithWriter(w io.Writer) error {
	cfgPath := config.ConfigPath()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(w, "Created config: %s\n", cfgPath)
	} else {
		fmt.Fprintf(w, "Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.LexiconDir(), 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	if err := writeIfNotExists(w, filepath.Join(cfg.LexiconDir(), "example.yaml"), exampleLexiconYAML); err != nil {
		return err
	}
	fmt.Fprintf(w, "Workspace ready: %s\n", cfg.Workspace)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. Log a mood:        moodlog mood joy 0.8 Exercise")
	fmt.Fprintln(w, "  2. Write an entry:    moodlog journal Long day: meetings ran over but the walk helped")
	fmt.Fprintln(w, "  3. See today's rollup: moodlog today")
	return nil
}

func runMood(cmd *cobra.Command, args []string) error {
	return runMoodWithWriter(os.Stdout, args)
}

func runMoodWithWriter(w io.Writer, args []string) error {
	mood := strings.ToLower(args[0])
	if !entry.KnownMood(mood) {
		return fmt.Errorf("unknown mood %q (try: %s)", args[0], strings.Join(entry.CanonicalMoods, ", "))
	}
	intensity, err := strconv.ParseFloat(args[1], 64)
	if err != nil || math.IsNaN(intensity) || math.IsInf(intensity, 0) || intensity < 0 || intensity > 1 {
		return fmt.Errorf("intensity must be a number between 0 and 1, got %q", args[1])
	}

	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	e := entry.NewMoodEntry(mood, intensity, args[2:], moodNotesFlag)
	if err := st.SaveMood(&e); err != nil {
		return fmt.Errorf("save mood: %w", err)
	}
	fmt.Fprintf(w, "Logged %s at %.1f", e.Mood, e.Intensity)
	if len(e.Activities) > 0 {
		fmt.Fprintf(w, " with %s", strings.Join(e.Activities, ", "))
	}
	fmt.Fprintln(w, ".")
	return nil
}

func runJournal(cmd *cobra.Command, args []string) error {
	return runJournalWithWriter(os.Stdout, args)
}

func runJournalWithWriter(w io.Writer, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("the entry needs some text")
	}
	title, content := splitTitle(text)
	if content == "" {
		return fmt.Errorf("the entry needs some text after the title")
	}

	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	mood := strings.ToLower(strings.TrimSpace(journalMoodFlag))
	detected := false
	if mood == "" {
		lex, err := lexicon.Load(cfg.LexiconDir())
		if err != nil {
			return fmt.Errorf("load lexicon: %w", err)
		}
		res := analysis.NewAnalyzer(lex).AnalyzeEntry(content, "")
		mood = res.DominantEmotion
		detected = true
	} else if !entry.KnownMood(mood) {
		return fmt.Errorf("unknown mood %q (try: %s)", journalMoodFlag, strings.Join(entry.CanonicalMoods, ", "))
	}

	j := entry.NewJournalEntry(title, content, mood, journalActivitiesFlag, journalTagsFlag)
	if err := st.SaveJournal(&j); err != nil {
		return fmt.Errorf("save journal: %w", err)
	}
	if detected {
		fmt.Fprintf(w, "Saved. Reads as %s.\n", mood)
	} else {
		fmt.Fprintln(w, "Saved.")
	}
	return nil
}

func runToday(cmd *cobra.Command, args []string) error {
	return runTodayWithWriter(os.Stdout)
}

func runTodayWithWriter(w io.Writer) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	moods, journals, err := loadRecent(cfg, st)
	if err != nil {
		return err
	}
	summary := analysis.Summarize(moods, journals)
	if !summary.HasData {
		fmt.Fprintln(w, "No entries today. Log one with: moodlog mood joy 0.8")
		return nil
	}
	display := analysis.FormatSummary(summary)
	fmt.Fprintf(w, "Today: %d mood %s, %d journal %s\n",
		summary.MoodEntryCount, plural(summary.MoodEntryCount, "entry", "entries"),
		summary.JournalEntryCount, plural(summary.JournalEntryCount, "entry", "entries"))
	fmt.Fprintf(w, "  Mood:       %s\n", display.MoodText)
	fmt.Fprintf(w, "  Activities: %s\n", display.ActivityText)
	fmt.Fprintf(w, "  Trend:      %s\n", display.TrendText)
	fmt.Fprintf(w, "  Intensity:  %s\n", display.IntensityText)
	return nil
}

func runInsights(cmd *cobra.Command, args []string) error {
	return runInsightsWithWriter(os.Stdout)
}

func runInsightsWithWriter(w io.Writer) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	moods, _, err := loadRecent(cfg, st)
	if err != nil {
		return err
	}
	correlations := analysis.AnalyzeActivityCorrelations(moods)
	if len(correlations) == 0 {
		fmt.Fprintln(w, "No activity data yet. Tag moods with activities to see patterns: moodlog mood joy 0.8 Exercise")
		return nil
	}

	for _, in := range analysis.GenerateInsights(correlations) {
		fmt.Fprintf(w, "- %s\n", in.Message)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Activity breakdown:")
	for _, c := range correlations {
		fmt.Fprintf(w, "  %-16s avg %.1f  lift %+.2f  n=%d  %s confidence, %s\n",
			c.Activity, c.AverageMoodScore, c.ImprovementScore, c.EntryCount, strings.ToLower(c.Confidence), c.Trend)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return runAnalyzeWithWriter(os.Stdout, args)
}

func runAnalyzeWithWriter(w io.Writer, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("nothing to analyze")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lex, err := lexicon.Load(cfg.LexiconDir())
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}

	res := analysis.NewAnalyzer(lex).AnalyzeEntry(text, "")
	fmt.Fprintf(w, "Dominant: %s\n", res.DominantEmotion)
	fmt.Fprintln(w, "Distribution:")
	for _, cat := range lexicon.Categories {
		if share := res.Distribution[cat]; share > 0 {
			fmt.Fprintf(w, "  %-9s %5.1f%%\n", cat, share)
		}
	}
	if len(res.MatchedWords) > 0 {
		fmt.Fprintf(w, "Matched: %s\n", strings.Join(res.MatchedWords, ", "))
	}
	if len(res.SuggestedTags) > 0 {
		fmt.Fprintf(w, "Suggested: %s\n", strings.Join(res.SuggestedTags, ", "))
	}
	return nil
}

func runTimeline(cmd *cobra.Command, args []string) error {
	return runTimelineWithWriter(os.Stdout)
}

func runTimelineWithWriter(w io.Writer) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	filter := store.JournalFilter{From: periodStart(timelinePeriodFlag, time.Now().UTC())}
	journals, err := st.SearchJournals(filter)
	if err != nil {
		return fmt.Errorf("search journals: %w", err)
	}
	if max := cfg.Analysis.MaxEntries; max > 0 && len(journals) > max {
		journals = journals[:max]
	}

	lex, err := lexicon.Load(cfg.LexiconDir())
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}
	tl := analysis.NewAnalyzer(lex).AnalyzeTimeline(journals, timelinePeriodFlag)
	if len(tl.Trends) == 0 {
		fmt.Fprintln(w, "No journal entries in this period.")
		return nil
	}
	fmt.Fprintf(w, "Emotion timeline (%s):\n", tl.Period)
	for _, point := range tl.Trends {
		cat, share := topEmotion(point.Emotions)
		fmt.Fprintf(w, "  %s  %s (%.0f%%)\n", point.Date, cat, share)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	return runSearchWithWriter(os.Stdout)
}

func runSearchWithWriter(w io.Writer) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.SearchJournals(store.JournalFilter{
		Query:      searchTextFlag,
		Moods:      searchMoodFlag,
		Tags:       searchTagFlag,
		Activities: searchActivityFlag,
		From:       searchFromFlag,
		To:         searchToFlag,
	})
	if err != nil {
		return fmt.Errorf("search journals: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching entries.")
		return nil
	}
	for _, j := range results {
		label := j.Title
		if label == "" {
			label = truncate(j.Content, 48)
		}
		fmt.Fprintf(w, "  %s  [%s]  %s\n", entry.DatePortion(j.CreatedAt), j.Mood, label)
	}
	fmt.Fprintf(w, "%d %s\n", len(results), plural(len(results), "entry", "entries"))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	return runImportWithWriter(os.Stdout, args[0])
}

func runImportWithWriter(w io.Writer, path string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := st.ImportJSON(path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Fprintf(w, "Imported %d mood %s and %d journal %s.\n",
		res.Moods, plural(res.Moods, "entry", "entries"),
		res.Journals, plural(res.Journals, "entry", "entries"))
	return nil
}

func runLexicon(cmd *cobra.Command, args []string) error {
	return runLexiconWithWriter(os.Stdout)
}

func runLexiconWithWriter(w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lex, err := lexicon.Load(cfg.LexiconDir())
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}
	fmt.Fprintf(w, "Lexicon: %d words across %d packs\n", lex.Size(), len(lex.Packs()))
	for _, p := range lex.Packs() {
		fmt.Fprintf(w, "  %-14s %4d words  %s\n", p.Name, p.Words, p.File)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	return runStatusWithWriter(os.Stdout)
}

func runStatusWithWriter(w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(w, "Config: %s\n", config.ConfigPath())
	fmt.Fprintf(w, "Workspace: %s\n", cfg.Workspace)
	fmt.Fprintf(w, "Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	fmt.Fprintf(w, "WhatsApp: enabled=%v\n", cfg.Channels.WhatsApp.Enabled)
	fmt.Fprintf(w, "WebUI: enabled=%v\n", cfg.Channels.WebUI.Enabled)
	fmt.Fprintf(w, "Daily summary: enabled=%v hour=%d\n", cfg.Summary.Enabled, cfg.Summary.Hour)

	if lex, err := lexicon.Load(cfg.LexiconDir()); err == nil {
		fmt.Fprintf(w, "Lexicon: %d words across %d packs\n", lex.Size(), len(lex.Packs()))
	}

	if _, err := os.Stat(cfg.DBPath()); err != nil {
		fmt.Fprintln(w, "Database: not created yet")
		return nil
	}
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	fmt.Fprintf(w, "Database: %d mood entries, %d journal entries\n", stats.MoodEntries, stats.JournalEntries)
	return nil
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	return gw.Run(context.Background())
}

// openStore loads the config and opens the SQLite store, creating the
// workspace directory on first use.
func openStore() (*config.Config, *store.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	dbPath := cfg.DBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create workspace: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, st, nil
}

func loadRecent(cfg *config.Config, st *store.Store) ([]entry.MoodEntry, []entry.JournalEntry, error) {
	moods, err := st.ListMoods()
	if err != nil {
		return nil, nil, fmt.Errorf("list moods: %w", err)
	}
	journals, err := st.ListJournals()
	if err != nil {
		return nil, nil, fmt.Errorf("list journals: %w", err)
	}
	if max := cfg.Analysis.MaxEntries; max > 0 {
		if len(moods) > max {
			moods = moods[:max]
		}
		if len(journals) > max {
			journals = journals[:max]
		}
	}
	return moods, journals, nil
}

// periodStart maps a timeline period to its inclusive start date.
// "all" and unknown values mean no lower bound.
func periodStart(period string, now time.Time) string {
	switch period {
	case "week":
		return now.AddDate(0, 0, -6).Format("2006-01-02")
	case "month":
		return now.AddDate(0, -1, 0).Format("2006-01-02")
	default:
		return ""
	}
}

func topEmotion(emotions map[string]float64) (string, float64) {
	best := "neutral"
	bestShare := 0.0
	for _, cat := range lexicon.Categories {
		if share := emotions[cat]; share > bestShare {
			best = cat
			bestShare = share
		}
	}
	return best, bestShare
}

// splitTitle peels an optional "title:" prefix off journal text. The colon
// must come early; entry bodies routinely contain colons of their own.
func splitTitle(text string) (title, content string) {
	idx := strings.Index(text, ":")
	if idx <= 0 || idx > 80 {
		return "", text
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func writeIfNotExists(w io.Writer, path, content string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(w, "  Created: %s\n", path)
	}
	return nil
}

const exampleLexiconYAML = `# Example user lexicon pack. Packs load in filename order and later
# packs override earlier ones word by word. Weights are 0 to 1.
name: example
categories:
  joy:
    stoked: 0.8
    chuffed: 0.7
  sadness:
    gutted: 0.8
  fear:
    jittery: 0.6
`
