package config

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts accepted for start_date. State files always use DateLayout.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = time.RFC3339
)

// Config is the tap configuration. The four top-level credentials and the
// start date are required; every section carries defaults from NewDefault.
type Config struct {
	Domain       string `yaml:"domain" json:"domain" mapstructure:"domain"`
	ClientID     string `yaml:"client_id" json:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret" mapstructure:"client_secret"`
	StartDate    string `yaml:"start_date" json:"start_date" mapstructure:"start_date"`

	// PageSize is sent with every paginated request
	PageSize int `yaml:"page_size" json:"page_size" mapstructure:"page_size"`
	// ScheduleLookaheadWeeks extends user_schedule past today
	ScheduleLookaheadWeeks int `yaml:"schedule_lookahead_weeks" json:"schedule_lookahead_weeks" mapstructure:"schedule_lookahead_weeks"`

	Reliability   ReliabilityConfig   `yaml:"reliability" json:"reliability" mapstructure:"reliability"`
	Timeouts      TimeoutConfig       `yaml:"timeouts" json:"timeouts" mapstructure:"timeouts"`
	Notifications NotificationConfig  `yaml:"notifications" json:"notifications" mapstructure:"notifications"`
	Output        OutputConfig        `yaml:"output" json:"output" mapstructure:"output"`
	State         StateConfig         `yaml:"state" json:"state" mapstructure:"state"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// ReliabilityConfig controls rate-limit retries and client-side pacing.
type ReliabilityConfig struct {
	// RetryAttempts is the total number of tries per page, first call included
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts" mapstructure:"retry_attempts"`
	// RetryInterval is the constant wait between tries
	RetryInterval time.Duration `yaml:"retry_interval" json:"retry_interval" mapstructure:"retry_interval"`
	// RetryJitter is the upper bound of random time added to each wait
	RetryJitter time.Duration `yaml:"retry_jitter" json:"retry_jitter" mapstructure:"retry_jitter"`
	// RateLimitPerSec paces outgoing requests (0 = unlimited)
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	// RateLimitBurst is the token bucket size when pacing is on
	RateLimitBurst int `yaml:"rate_limit_burst" json:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// TimeoutConfig contains timeout settings.
type TimeoutConfig struct {
	// Request bounds a single HTTP exchange
	Request time.Duration `yaml:"request" json:"request" mapstructure:"request"`
	// Notification bounds one notification-triggered fetch
	Notification time.Duration `yaml:"notification" json:"notification" mapstructure:"notification"`
}

// NotificationConfig tunes the websocket rendezvous.
type NotificationConfig struct {
	// MaxMessages is how many non-matching messages are read before giving up
	MaxMessages int `yaml:"max_messages" json:"max_messages" mapstructure:"max_messages"`
	// SettleDelay is waited after subscribing and before triggering the query
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay" mapstructure:"settle_delay"`
}

// OutputConfig selects where the Singer stream goes.
type OutputConfig struct {
	// Path of the output file; empty means stdout
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// Compression is one of none, gzip, zstd (file output only)
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
}

// StateConfig selects the sync-cursor store.
type StateConfig struct {
	// Backend is file or postgres
	Backend string `yaml:"backend" json:"backend" mapstructure:"backend"`
	// Path of the state file for the file backend
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// DSN for the postgres backend
	DSN string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	// Key identifies this tap's row in the postgres backend
	Key string `yaml:"key" json:"key" mapstructure:"key"`
}

// ObservabilityConfig contains logging, metrics and tracing settings.
type ObservabilityConfig struct {
	LogLevel      string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogEncoding   string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
	MetricsAddr   string `yaml:"metrics_addr" json:"metrics_addr" mapstructure:"metrics_addr"`
	EnableTracing bool   `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
}

// NewDefault returns a configuration with every optional setting filled in.
func NewDefault() *Config {
	return &Config{
		PageSize:               100,
		ScheduleLookaheadWeeks: 5,
		Reliability: ReliabilityConfig{
			RetryAttempts:   5,
			RetryInterval:   30 * time.Second,
			RetryJitter:     time.Second,
			RateLimitPerSec: 0,
			RateLimitBurst:  1,
		},
		Timeouts: TimeoutConfig{
			Request:      60 * time.Second,
			Notification: 5 * time.Minute,
		},
		Notifications: NotificationConfig{
			MaxMessages: 12,
			SettleDelay: 5 * time.Second,
		},
		Output: OutputConfig{
			Compression: "none",
		},
		State: StateConfig{
			Backend: "file",
			Key:     "tap-purecloud",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogEncoding: "json",
		},
	}
}

// Validate checks value ranges. Presence of required keys is checked by Load.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("domain is required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret are required")
	}
	if _, err := ParseDate(c.StartDate); err != nil {
		return err
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	if c.ScheduleLookaheadWeeks < 0 {
		return fmt.Errorf("schedule_lookahead_weeks cannot be negative")
	}
	if c.Reliability.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	if c.Reliability.RetryInterval < 0 || c.Reliability.RetryJitter < 0 {
		return fmt.Errorf("retry_interval and retry_jitter cannot be negative")
	}
	if c.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("rate_limit_per_sec cannot be negative")
	}
	if c.Notifications.MaxMessages < 1 {
		return fmt.Errorf("notifications.max_messages must be at least 1")
	}
	switch c.Output.Compression {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("unsupported output compression %q", c.Output.Compression)
	}
	switch c.State.Backend {
	case "", "file":
	case "postgres":
		if c.State.DSN == "" {
			return fmt.Errorf("state.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unsupported state backend %q", c.State.Backend)
	}
	return nil
}

// StartTime returns the configured start date at midnight UTC.
func (c *Config) StartTime() (time.Time, error) {
	return ParseDate(c.StartDate)
}

// APIHost returns the REST base URL for the configured domain.
func (c *Config) APIHost() string {
	return "https://api." + c.Domain
}

// LoginHost returns the OAuth base URL for the configured domain.
func (c *Config) LoginHost() string {
	return "https://login." + c.Domain
}

// IsRateLimited returns true if client-side pacing is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and truncates to the UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_date %q: expected %s", s, DateLayout)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
