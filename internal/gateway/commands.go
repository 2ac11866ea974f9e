package gateway

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ninthwave/moodlog/internal/analysis"
	"github.com/ninthwave/moodlog/internal/bus"
	"github.com/ninthwave/moodlog/internal/cron"
	"github.com/ninthwave/moodlog/internal/entry"
	"github.com/ninthwave/moodlog/internal/lexicon"
)

const helpText = `I track how you feel. Commands:
mood <mood> <0-1> [activities...] - log how you feel right now
journal [title:] <text> - write a longer entry
today - today's summary
insights - activity patterns from your moods
analyze <text> - score any text without saving it
remind <HH:MM> <message> - daily reminder on this channel
remind - list reminders, remind off <id> to remove one
Anything else is captured as a journal entry.
Moods: joy, sadness, anger, fear, surprise, calm, neutral`

// handleCommand parses one inbound message and returns the reply text.
// It never errors outward; failures become apologetic replies and a log
// line, so one bad message cannot take the loop down.
func (g *Gateway) handleCommand(msg bus.InboundMessage) string {
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return ""
	}

	fields := strings.Fields(text)
	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	rest := strings.TrimSpace(text[len(fields[0]):])

	switch verb {
	case "mood":
		return g.cmdMood(fields[1:])
	case "journal", "note":
		return g.cmdJournal(rest)
	case "today", "summary":
		return g.cmdToday()
	case "insights", "patterns":
		return g.cmdInsights()
	case "analyze":
		return g.cmdAnalyze(rest)
	case "remind":
		return g.cmdRemind(fields[1:], rest, msg)
	case "help", "start":
		return helpText
	default:
		return g.saveJournal("", text)
	}
}

func (g *Gateway) cmdMood(args []string) string {
	if len(args) < 2 {
		return "Usage: mood <mood> <0-1> [activities...]\nExample: mood joy 0.8 Exercise"
	}

	mood := strings.ToLower(args[0])
	if !entry.KnownMood(mood) {
		return fmt.Sprintf("I don't know the mood %q. Try one of: %s.", args[0], strings.Join(entry.CanonicalMoods, ", "))
	}

	intensity, err := strconv.ParseFloat(args[1], 64)
	if err != nil || math.IsNaN(intensity) || math.IsInf(intensity, 0) || intensity < 0 || intensity > 1 {
		return "Intensity must be a number between 0 and 1, like 0.7."
	}

	e := entry.NewMoodEntry(mood, intensity, args[2:], "")
	if err := g.store.SaveMood(&e); err != nil {
		log.Printf("[gateway] save mood: %v", err)
		return "Could not save that mood entry. Try again in a moment."
	}

	reply := fmt.Sprintf("Logged %s at %.1f.", mood, intensity)
	if len(e.Activities) > 0 {
		reply += fmt.Sprintf(" Activities: %s.", strings.Join(e.Activities, ", "))
	}
	return reply
}

func (g *Gateway) cmdJournal(text string) string {
	if strings.TrimSpace(text) == "" {
		return "Usage: journal [title:] <text>\nExample: journal Rough day: meetings ran long but the evening walk helped"
	}
	title, content := splitTitle(text)
	if content == "" {
		return "The entry needs some text after the title."
	}
	return g.saveJournal(title, content)
}

// saveJournal captures content with the detected dominant emotion as the
// stored mood, since channel input has no mood field of its own.
func (g *Gateway) saveJournal(title, content string) string {
	res := g.analyzer.AnalyzeEntry(content, "")

	j := entry.NewJournalEntry(title, content, res.DominantEmotion, nil, nil)
	if err := g.store.SaveJournal(&j); err != nil {
		log.Printf("[gateway] save journal: %v", err)
		return "Could not save that entry. Try again in a moment."
	}

	reply := fmt.Sprintf("Noted. Reads as %s.", res.DominantEmotion)
	if len(res.SuggestedTags) > 0 {
		reply += fmt.Sprintf(" Might help: %s.", strings.Join(res.SuggestedTags, ", "))
	}
	return reply
}

func (g *Gateway) cmdToday() string {
	text, err := g.renderToday()
	if err != nil {
		log.Printf("[gateway] render today: %v", err)
		return "Could not read your entries right now."
	}
	return text
}

func (g *Gateway) renderToday() (string, error) {
	moods, journals, err := g.recentEntries()
	if err != nil {
		return "", err
	}

	s := analysis.Summarize(moods, journals)
	if !s.HasData {
		return "Nothing logged today yet. Log a mood or just tell me about your day.", nil
	}
	d := analysis.FormatSummary(s)

	var b strings.Builder
	fmt.Fprintf(&b, "Today: %d %s, %d journal %s\n",
		s.MoodEntryCount, plural(s.MoodEntryCount, "mood", "moods"),
		s.JournalEntryCount, plural(s.JournalEntryCount, "entry", "entries"))
	fmt.Fprintf(&b, "Mood: %s\n", d.MoodText)
	fmt.Fprintf(&b, "Activities: %s\n", d.ActivityText)
	fmt.Fprintf(&b, "Trend: %s\n", d.TrendText)
	fmt.Fprintf(&b, "Intensity: %s", d.IntensityText)
	return b.String(), nil
}

func (g *Gateway) cmdInsights() string {
	moods, _, err := g.recentEntries()
	if err != nil {
		log.Printf("[gateway] list moods for insights: %v", err)
		return "Could not read your entries right now."
	}

	correlations := analysis.AnalyzeActivityCorrelations(moods)
	insights := analysis.GenerateInsights(correlations)
	if len(insights) == 0 {
		return "Not enough activity data yet. Log moods with activities, like: mood joy 0.8 Exercise"
	}

	var b strings.Builder
	b.WriteString("What stands out:\n")
	for _, in := range insights {
		b.WriteString("- ")
		b.WriteString(in.Message)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (g *Gateway) cmdAnalyze(text string) string {
	if strings.TrimSpace(text) == "" {
		return "Usage: analyze <text>\nExample: analyze rough morning but the afternoon turned around"
	}

	res := g.analyzer.AnalyzeEntry(text, "")

	var b strings.Builder
	fmt.Fprintf(&b, "Reads as %s.\n", res.DominantEmotion)
	b.WriteString("Breakdown: ")
	b.WriteString(formatDistribution(res.Distribution))
	if len(res.MatchedWords) > 0 {
		fmt.Fprintf(&b, "\nMatched: %s", strings.Join(res.MatchedWords, ", "))
	}
	if len(res.SuggestedTags) > 0 {
		fmt.Fprintf(&b, "\nMight help: %s", strings.Join(res.SuggestedTags, ", "))
	}
	return b.String()
}

func (g *Gateway) cmdRemind(args []string, rest string, msg bus.InboundMessage) string {
	if len(args) == 0 {
		return g.listReminders()
	}

	if strings.EqualFold(args[0], "off") {
		if len(args) < 2 {
			return "Usage: remind off <id>"
		}
		return g.removeReminder(args[1])
	}

	at, err := time.Parse("15:04", args[0])
	if err != nil {
		return "Usage: remind <HH:MM> <message>\nExample: remind 21:00 Evening check-in"
	}

	message := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
	expr := fmt.Sprintf("0 %d %d * * *", at.Minute(), at.Hour())

	job, err := g.cron.AddJob("reminder-"+args[0],
		cron.Schedule{Kind: cron.KindCron, Expr: expr},
		cron.Payload{
			Deliver: cron.DeliverReminder,
			Message: message,
			Channel: msg.Channel,
			To:      msg.ChatID,
		})
	if err != nil {
		log.Printf("[gateway] add reminder: %v", err)
		return "Could not save the reminder."
	}
	return fmt.Sprintf("Daily reminder set for %s (id %s).", args[0], shortID(job.ID))
}

func (g *Gateway) listReminders() string {
	var b strings.Builder
	count := 0
	for _, job := range g.cron.ListJobs() {
		if job.Payload.Deliver != cron.DeliverReminder {
			continue
		}
		count++
		fmt.Fprintf(&b, "%s  %s  %s\n", shortID(job.ID), reminderTime(job.Schedule.Expr), job.Payload.Message)
	}
	if count == 0 {
		return "No reminders set. Try: remind 21:00 Evening check-in"
	}
	return "Your reminders:\n" + strings.TrimRight(b.String(), "\n")
}

func (g *Gateway) removeReminder(prefix string) string {
	for _, job := range g.cron.ListJobs() {
		if job.Payload.Deliver != cron.DeliverReminder {
			continue
		}
		if strings.HasPrefix(job.ID, prefix) {
			g.cron.RemoveJob(job.ID)
			return fmt.Sprintf("Removed reminder %s.", shortID(job.ID))
		}
	}
	return "No reminder matches that id."
}

// recentEntries loads both stores newest first and applies the analysis
// input cap so unbounded history cannot blow up engine work.
func (g *Gateway) recentEntries() ([]entry.MoodEntry, []entry.JournalEntry, error) {
	moods, err := g.store.ListMoods()
	if err != nil {
		return nil, nil, fmt.Errorf("list moods: %w", err)
	}
	journals, err := g.store.ListJournals()
	if err != nil {
		return nil, nil, fmt.Errorf("list journals: %w", err)
	}

	if n := g.cfg.Analysis.MaxEntries; n > 0 {
		if len(moods) > n {
			moods = moods[:n]
		}
		if len(journals) > n {
			journals = journals[:n]
		}
	}
	return moods, journals, nil
}

// splitTitle peels an optional "title:" prefix off journal text. The colon
// must come early; entry bodies routinely contain colons of their own.
func splitTitle(text string) (title, content string) {
	text = strings.TrimSpace(text)
	idx := strings.Index(text, ":")
	if idx > 0 && idx <= 80 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:])
	}
	return "", text
}

func formatDistribution(dist map[string]float64) string {
	parts := make([]string, 0, len(lexicon.Categories))
	for _, cat := range lexicon.Categories {
		if share := dist[cat]; share > 0 {
			parts = append(parts, fmt.Sprintf("%s %.0f%%", cat, share))
		}
	}
	if len(parts) == 0 {
		return "neutral 100%"
	}
	return strings.Join(parts, ", ")
}

func reminderTime(expr string) string {
	f := strings.Fields(expr)
	if len(f) != 6 {
		return expr
	}
	min, err1 := strconv.Atoi(f[1])
	hour, err2 := strconv.Atoi(f[2])
	if err1 != nil || err2 != nil {
		return expr
	}
	return fmt.Sprintf("%02d:%02d", hour, min)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
