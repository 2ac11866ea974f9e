package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ninthwave/moodlog/internal/analysis"
	"github.com/ninthwave/moodlog/internal/bus"
	"github.com/ninthwave/moodlog/internal/channel"
	"github.com/ninthwave/moodlog/internal/config"
	"github.com/ninthwave/moodlog/internal/cron"
	"github.com/ninthwave/moodlog/internal/lexicon"
	"github.com/ninthwave/moodlog/internal/store"
)

const summaryJobName = "daily-summary"

// Options for creating a Gateway
type Options struct {
	SignalChan chan os.Signal // for testing signal handling
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	store      *store.Store
	lex        *lexicon.Lexicon
	analyzer   *analysis.Analyzer
	channels   *channel.ChannelManager
	cron       *cron.Service
	signalChan chan os.Signal // for testing
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	// Message bus
	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	// Store
	dbPath := cfg.DBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	g.store = st

	// Lexicon + analyzer
	lex, err := lexicon.Load(cfg.LexiconDir())
	if err != nil {
		_ = g.store.Close()
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	g.lex = lex
	g.analyzer = analysis.NewAnalyzer(lex)

	// Signal channel for testing
	g.signalChan = opts.SignalChan

	// Cron
	g.cron = cron.NewService(cfg.CronStorePath())
	g.cron.OnJob = g.handleCronJob

	// Channels (with gateway config for WebUI port)
	chMgr, err := channel.NewChannelManager(cfg.Channels, cfg.Gateway, g.bus)
	if err != nil {
		_ = g.store.Close()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	return g, nil
}

// handleCronJob routes persisted job firings. Summary jobs re-render from
// the store at delivery time so they never serve stale text.
func (g *Gateway) handleCronJob(job cron.CronJob) (string, error) {
	switch job.Payload.Deliver {
	case cron.DeliverSummary:
		return g.deliverSummary(job)
	case cron.DeliverReminder:
		return g.deliverReminder(job)
	}
	return "", fmt.Errorf("job %s: unknown deliver kind %q", job.ID, job.Payload.Deliver)
}

func (g *Gateway) deliverSummary(job cron.CronJob) (string, error) {
	text, err := g.renderToday()
	if err != nil {
		return "", err
	}

	ch, to := job.Payload.Channel, job.Payload.To
	if ch == "" {
		ch, to = g.cfg.Summary.Channel, g.cfg.Summary.To
	}
	if ch == "" {
		return "skipped: no summary channel configured", nil
	}

	g.bus.Outbound <- bus.OutboundMessage{Channel: ch, ChatID: to, Content: text}
	return "delivered", nil
}

func (g *Gateway) deliverReminder(job cron.CronJob) (string, error) {
	msg := strings.TrimSpace(job.Payload.Message)
	if msg == "" {
		msg = "Time to check in. How are you feeling?"
	}

	ch, to := job.Payload.Channel, job.Payload.To
	if ch == "" {
		ch, to = g.cfg.Summary.Channel, g.cfg.Summary.To
	}
	if ch == "" {
		return "", fmt.Errorf("job %s: no reminder channel", job.ID)
	}

	g.bus.Outbound <- bus.OutboundMessage{Channel: ch, ChatID: to, Content: msg}
	return "delivered", nil
}

// ensureDailySummaryJob keeps exactly one internal summary job in the cron
// store, rescheduled when the configured hour changes. The job payload
// carries no target; delivery reads the live config.
func (g *Gateway) ensureDailySummaryJob() error {
	if !g.cfg.Summary.Enabled {
		return nil
	}

	expr := fmt.Sprintf("0 0 %d * * *", g.cfg.Summary.Hour)

	for _, job := range g.cron.ListJobs() {
		if job.Name != summaryJobName {
			continue
		}
		if job.Schedule.Expr == expr {
			return nil
		}
		g.cron.RemoveJob(job.ID)
	}

	_, err := g.cron.AddJob(summaryJobName,
		cron.Schedule{Kind: cron.KindCron, Expr: expr},
		cron.Payload{Deliver: cron.DeliverSummary})
	return err
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	if err := g.cron.Start(ctx); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}
	if err := g.ensureDailySummaryJob(); err != nil {
		log.Printf("[gateway] ensure daily summary job warning: %v", err)
	}

	go g.processLoop(ctx)

	log.Printf("[gateway] running on %s:%d, lexicon %d words",
		g.cfg.Gateway.Host, g.cfg.Gateway.Port, g.lex.Size())

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))

			reply := g.handleCommand(msg)
			if reply != "" {
				g.bus.Outbound <- bus.OutboundMessage{
					Channel: msg.Channel,
					ChatID:  msg.ChatID,
					Content: reply,
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	_ = g.channels.StopAll()
	if g.store != nil {
		if err := g.store.Close(); err != nil {
			log.Printf("[gateway] close store warning: %v", err)
		}
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
