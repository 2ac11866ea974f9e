package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 18790
	DefaultBufSize     = 100
	DefaultMaxEntries  = 1000
	DefaultSummaryHour = 21
)

type Config struct {
	Workspace string         `json:"workspace"`
	Channels  ChannelsConfig `json:"channels"`
	Gateway   GatewayConfig  `json:"gateway"`
	Summary   SummaryConfig  `json:"summary"`
	Analysis  AnalysisConfig `json:"analysis"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	WebUI    WebUIConfig    `json:"webui"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

type WhatsAppConfig struct {
	Enabled   bool     `json:"enabled"`
	StorePath string   `json:"storePath,omitempty"`
	JID       string   `json:"jid,omitempty"`
	AllowFrom []string `json:"allowFrom"`
}

type WebUIConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token,omitempty"`
	AllowFrom []string `json:"allowFrom"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SummaryConfig drives the evening check-in: at Hour (local time) the
// gateway renders today's summary and delivers it to Channel/To.
type SummaryConfig struct {
	Enabled bool   `json:"enabled"`
	Hour    int    `json:"hour"`
	Channel string `json:"channel,omitempty"`
	To      string `json:"to,omitempty"`
}

type AnalysisConfig struct {
	// MaxEntries caps how many recent entries feed the engines.
	MaxEntries int    `json:"maxEntries"`
	LexiconDir string `json:"lexiconDir,omitempty"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Workspace: filepath.Join(home, ".moodlog", "workspace"),
		Channels:  ChannelsConfig{},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Summary: SummaryConfig{
			Enabled: false,
			Hour:    DefaultSummaryHour,
		},
		Analysis: AnalysisConfig{
			MaxEntries: DefaultMaxEntries,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".moodlog")
}

func ConfigPath() string {
	if path := os.Getenv("MOODLOG_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(ConfigDir(), "config.json")
}

// DBPath is the SQLite file for entries, under the workspace.
func (c *Config) DBPath() string {
	return filepath.Join(c.Workspace, "moodlog.db")
}

// LexiconDir is where user emotion packs live; defaults to
// <workspace>/lexicons.
func (c *Config) LexiconDir() string {
	if c.Analysis.LexiconDir != "" {
		return c.Analysis.LexiconDir
	}
	return filepath.Join(c.Workspace, "lexicons")
}

// CronStorePath holds the persisted scheduler jobs.
func (c *Config) CronStorePath() string {
	return filepath.Join(c.Workspace, "cron", "jobs.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if ws := os.Getenv("MOODLOG_WORKSPACE"); ws != "" {
		cfg.Workspace = ws
	}
	if token := os.Getenv("MOODLOG_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if jid := os.Getenv("MOODLOG_WHATSAPP_JID"); jid != "" {
		cfg.Channels.WhatsApp.JID = jid
	}
	if token := os.Getenv("MOODLOG_WEBUI_TOKEN"); token != "" {
		cfg.Channels.WebUI.Token = token
	}
	if port := os.Getenv("MOODLOG_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Gateway.Port = parsed
		}
	}
	if maxEntries := os.Getenv("MOODLOG_MAX_ENTRIES"); maxEntries != "" {
		if parsed, err := strconv.Atoi(maxEntries); err == nil {
			cfg.Analysis.MaxEntries = parsed
		}
	}

	if cfg.Workspace == "" {
		cfg.Workspace = DefaultConfig().Workspace
	}
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = DefaultHost
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
	if cfg.Summary.Hour < 0 || cfg.Summary.Hour > 23 {
		cfg.Summary.Hour = DefaultSummaryHour
	}
	if cfg.Analysis.MaxEntries <= 0 {
		cfg.Analysis.MaxEntries = DefaultMaxEntries
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := filepath.Dir(ConfigPath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
