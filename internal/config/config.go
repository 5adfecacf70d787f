package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "REVIEWDESK_CONFIG"
	backendURLEnv     = "BACKEND_URL"
	backendTokenEnv   = "BACKEND_TOKEN"
	storeDriverEnv    = "STORE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	httpAddrEnv       = "HTTP_ADDR"
	apiKeysEnv        = "API_KEYS"
	logLevelEnv       = "LOG_LEVEL"

	StoreREST     = "rest"
	StorePostgres = "postgres"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Backend       BackendConfig      `yaml:"backend"`
	Store         StoreConfig        `yaml:"store"`
	Feed          FeedConfig         `yaml:"feed"`
	Sources       []SourceConfig     `yaml:"sources"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	HTTP          HTTPConfig         `yaml:"http"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BackendConfig describes the association REST backend shared by providers,
// the submission store and the notification endpoint.
type BackendConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig picks the submission store implementation.
type StoreConfig struct {
	Driver    string `yaml:"driver"`
	DSN       string `yaml:"dsn"`
	Migration string `yaml:"migration"`
}

// FeedConfig bounds the aggregated feed.
type FeedConfig struct {
	Limit         int           `yaml:"limit"`
	SourceTimeout time.Duration `yaml:"sourceTimeout"`
}

// SourceConfig enables a catalog provider and optionally overrides its endpoints.
type SourceConfig struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	ChildPath string `yaml:"childPath"`
	Disabled  bool   `yaml:"disabled"`
}

// SchedulerConfig defines how often the feed is refreshed in the background.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// HTTPConfig configures the exposed API.
type HTTPConfig struct {
	Addr    string   `yaml:"addr"`
	APIKeys []string `yaml:"apiKeys"`
}

// NotificationConfig encapsulates staff channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	APIBase  string `yaml:"apiBase"`
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether the digest channel is configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads YAML configuration from path (or the env-provided path), if present,
// and applies environment overrides.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(backendURLEnv); v != "" {
		c.Backend.BaseURL = v
	}

	if v := os.Getenv(backendTokenEnv); v != "" {
		c.Backend.Token = v
	}

	if v := os.Getenv(storeDriverEnv); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Store.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(apiKeysEnv); v != "" {
		c.HTTP.APIKeys = splitKeys(v)
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Backend.BaseURL != "" {
		base.Backend.BaseURL = override.Backend.BaseURL
	}
	if override.Backend.Token != "" {
		base.Backend.Token = override.Backend.Token
	}
	if override.Backend.Timeout > 0 {
		base.Backend.Timeout = override.Backend.Timeout
	}

	if override.Store.Driver != "" {
		base.Store.Driver = strings.ToLower(override.Store.Driver)
	}
	if override.Store.DSN != "" {
		base.Store.DSN = override.Store.DSN
	}
	if override.Store.Migration != "" {
		base.Store.Migration = override.Store.Migration
	}

	if override.Feed.Limit > 0 {
		base.Feed.Limit = override.Feed.Limit
	}
	if override.Feed.SourceTimeout > 0 {
		base.Feed.SourceTimeout = override.Feed.SourceTimeout
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if len(override.HTTP.APIKeys) > 0 {
		base.HTTP.APIKeys = override.HTTP.APIKeys
	}

	if override.Notifications.Telegram.APIBase != "" {
		base.Notifications.Telegram.APIBase = override.Notifications.Telegram.APIBase
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func splitKeys(csv string) []string {
	var keys []string
	for _, k := range strings.Split(csv, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Backend: BackendConfig{BaseURL: "https://api.example.org/api", Timeout: 10 * time.Second},
		Store:   StoreConfig{Driver: StoreREST, Migration: "migrations/0001_init.sql"},
		Feed:    FeedConfig{Limit: 20, SourceTimeout: 8 * time.Second},
		Sources: []SourceConfig{
			{Name: "abstracts"},
			{Name: "careers"},
			{Name: "workshops"},
			{Name: "webinars"},
			{Name: "conferences"},
			{Name: "contacts"},
			{Name: "newsletter"},
			{Name: "publications"},
			{Name: "trainings"},
			{Name: "educational"},
			{Name: "memberships"},
		},
		Scheduler: SchedulerConfig{Interval: 15 * time.Minute, Timezone: defaultTimezone, location: tz},
		HTTP:      HTTPConfig{Addr: ":8080"},
	}
}
