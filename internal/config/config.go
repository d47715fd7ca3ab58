package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "ENGAGEMENT_SYNC_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	statsBaseURLEnv   = "STATS_BASE_URL"
	httpAddrEnv       = "HTTP_ADDR"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	// maxBatchLimit is the stats service's own cap; it drops URLs beyond it.
	maxBatchLimit = 10
)

// Database drivers understood by the storage layer.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Stats         StatsConfig        `yaml:"stats"`
	Sync          SyncConfig         `yaml:"sync"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	HTTP          HTTPConfig         `yaml:"http"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig sets the slog level (debug, info, warn, error).
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the item/cursor store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// StatsConfig describes how to reach the remote stats service.
type StatsConfig struct {
	BaseURL           string        `yaml:"baseUrl"`
	Timeout           string        `yaml:"timeout"`
	ProbeTimeout      string        `yaml:"probeTimeout"`
	MaxBatch          int           `yaml:"maxBatch"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// TimeoutDuration is the per-request deadline for scrape calls.
func (s StatsConfig) TimeoutDuration() time.Duration {
	return parseDuration(s.Timeout, 2*time.Minute, "stats.timeout")
}

// ProbeTimeoutDuration is the deadline of the /health probe.
func (s StatsConfig) ProbeTimeoutDuration() time.Duration {
	return parseDuration(s.ProbeTimeout, 5*time.Second, "stats.probeTimeout")
}

// BreakerConfig tunes the circuit breaker around fetches.
type BreakerConfig struct {
	Disabled    bool   `yaml:"disabled"`
	MaxFailures int    `yaml:"maxFailures"`
	OpenTimeout string `yaml:"openTimeout"`
}

// OpenTimeoutDuration is how long the breaker stays open.
func (b BreakerConfig) OpenTimeoutDuration() time.Duration {
	return parseDuration(b.OpenTimeout, 5*time.Minute, "stats.breaker.openTimeout")
}

// SyncConfig holds cycle cadence and pacing.
type SyncConfig struct {
	Interval string       `yaml:"interval"`
	Pacing   PacingConfig `yaml:"pacing"`
}

// IntervalDuration is the minimum spacing between completed cycles.
func (s SyncConfig) IntervalDuration() time.Duration {
	return parseDuration(s.Interval, 24*time.Hour, "sync.interval")
}

// PacingConfig sets the delay between item fetches.
type PacingConfig struct {
	Mode     string `yaml:"mode"`
	Delay    string `yaml:"delay"`
	MinDelay string `yaml:"minDelay"`
	MaxDelay string `yaml:"maxDelay"`
}

// Durations resolves delay, minDelay and maxDelay.
func (p PacingConfig) Durations() (delay, minDelay, maxDelay time.Duration) {
	return parseDuration(p.Delay, 2*time.Second, "sync.pacing.delay"),
		parseDuration(p.MinDelay, 3*time.Second, "sync.pacing.minDelay"),
		parseDuration(p.MaxDelay, 5*time.Second, "sync.pacing.maxDelay")
}

// SchedulerConfig defines how often the daemon asks the gate whether a cycle is due.
type SchedulerConfig struct {
	CheckInterval string         `yaml:"checkInterval"`
	Timezone      string         `yaml:"timezone"`
	location      *time.Location `yaml:"-"`
}

// CheckIntervalDuration is the tick period of the daemon scheduler.
func (s SchedulerConfig) CheckIntervalDuration() time.Duration {
	return parseDuration(s.CheckInterval, 15*time.Minute, "scheduler.checkInterval")
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// HTTPConfig configures the ops server of the daemon.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken   string `yaml:"botToken"`
	ChatID     string `yaml:"chatId"`
	APIBaseURL string `yaml:"apiBaseUrl"`
}

// Enabled reports whether reports should be sent.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads the file named by ENGAGEMENT_SYNC_CONFIG (if set) and applies
// environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads YAML configuration from path (if non-empty) over the
// defaults and applies environment overrides.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.normalize()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(statsBaseURLEnv); v != "" {
		c.Stats.BaseURL = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
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

func (c *Config) normalize() {
	defaults := defaultConfig()

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	case "sqlite":
		c.Database.Driver = DriverSQLite
	default:
		log.Printf("config: unknown database driver %q, using %s", c.Database.Driver, DriverMemory)
		c.Database.Driver = DriverMemory
	}

	c.Stats.BaseURL = strings.TrimRight(strings.TrimSpace(c.Stats.BaseURL), "/")
	if c.Stats.BaseURL == "" {
		c.Stats.BaseURL = defaults.Stats.BaseURL
	}
	if c.Stats.MaxBatch <= 0 {
		c.Stats.MaxBatch = defaults.Stats.MaxBatch
	}
	if c.Stats.MaxBatch > maxBatchLimit {
		log.Printf("config: stats.maxBatch=%d exceeds the service limit, using %d", c.Stats.MaxBatch, maxBatchLimit)
		c.Stats.MaxBatch = maxBatchLimit
	}
	if c.Stats.RequestsPerMinute < 0 {
		c.Stats.RequestsPerMinute = 0
	}
	if c.Stats.Breaker.MaxFailures <= 0 {
		c.Stats.Breaker.MaxFailures = defaults.Stats.Breaker.MaxFailures
	}

	switch c.Sync.Pacing.Mode {
	case "fixed", "jitter", "none":
	default:
		log.Printf("config: unknown pacing mode %q, using fixed", c.Sync.Pacing.Mode)
		c.Sync.Pacing.Mode = "fixed"
	}

	if c.Notifications.Telegram.APIBaseURL == "" {
		c.Notifications.Telegram.APIBaseURL = defaults.Notifications.Telegram.APIBaseURL
	}
}

func parseDuration(value string, fallback time.Duration, field string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config: invalid duration %s=%q, using %s", field, value, fallback)
	return fallback
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Driver: DriverMemory},
		Stats: StatsConfig{
			BaseURL:      "http://localhost:5000",
			Timeout:      "2m",
			ProbeTimeout: "5s",
			MaxBatch:     maxBatchLimit,
			Breaker:      BreakerConfig{MaxFailures: 5, OpenTimeout: "5m"},
		},
		Sync: SyncConfig{
			Interval: "24h",
			Pacing:   PacingConfig{Mode: "fixed", Delay: "2s", MinDelay: "3s", MaxDelay: "5s"},
		},
		Scheduler: SchedulerConfig{CheckInterval: "15m", Timezone: defaultTimezone, location: tz},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBaseURL: "https://api.telegram.org"},
		},
	}
}
