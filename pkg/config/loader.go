package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. TAP_PURECLOUD_CLIENT_SECRET
// or TAP_PURECLOUD_RELIABILITY_RETRY_ATTEMPTS.
const EnvPrefix = "TAP_PURECLOUD"

// RequiredKeys must be present and non-null in the config file or environment.
var RequiredKeys = []string{"domain", "client_id", "client_secret", "start_date"}

// Load reads a JSON or YAML config file, substitutes ${VAR} references,
// applies TAP_PURECLOUD_* overrides and defaults, and validates the result.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the CLI flag
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", filePath)
	}
	return Parse(data, configType(filePath))
}

// Parse is Load without the file read. format is "json" or "yaml".
func Parse(data []byte, format string) (*Config, error) {
	content := []byte(substituteEnvVars(string(data)))

	// JSON is a YAML subset, so one decoder reports presence for both formats.
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode config file, is it valid "+format+"?")
	}
	if err := checkRequired(raw); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType(format)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, NewDefault())

	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config")
	}

	cfg := NewDefault()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid config")
	}
	return cfg, nil
}

// checkRequired reports missing keys and null keys separately.
func checkRequired(raw map[string]interface{}) error {
	var missing, null []string
	for _, key := range RequiredKeys {
		if _, ok := os.LookupEnv(envName(key)); ok {
			continue
		}
		value, present := raw[key]
		switch {
		case !present:
			missing = append(missing, key)
		case value == nil:
			null = append(null, key)
		}
	}
	if len(missing) == 0 && len(null) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "config is missing keys: "+strings.Join(missing, ", "))
	}
	if len(null) > 0 {
		parts = append(parts, "config has null keys: "+strings.Join(null, ", "))
	}
	return errors.New(errors.ErrorTypeConfig, strings.Join(parts, "; ")).
		WithDetail("missing_keys", missing).
		WithDetail("null_keys", null)
}

func setDefaults(v *viper.Viper, d *Config) {
	for _, key := range RequiredKeys {
		v.SetDefault(key, "")
	}
	defaults := map[string]interface{}{
		"page_size":                      d.PageSize,
		"schedule_lookahead_weeks":       d.ScheduleLookaheadWeeks,
		"reliability.retry_attempts":     d.Reliability.RetryAttempts,
		"reliability.retry_interval":     d.Reliability.RetryInterval,
		"reliability.retry_jitter":       d.Reliability.RetryJitter,
		"reliability.rate_limit_per_sec": d.Reliability.RateLimitPerSec,
		"reliability.rate_limit_burst":   d.Reliability.RateLimitBurst,
		"timeouts.request":               d.Timeouts.Request,
		"timeouts.notification":          d.Timeouts.Notification,
		"notifications.max_messages":     d.Notifications.MaxMessages,
		"notifications.settle_delay":     d.Notifications.SettleDelay,
		"output.path":                    d.Output.Path,
		"output.compression":             d.Output.Compression,
		"state.backend":                  d.State.Backend,
		"state.path":                     d.State.Path,
		"state.dsn":                      d.State.DSN,
		"state.key":                      d.State.Key,
		"observability.log_level":        d.Observability.LogLevel,
		"observability.log_encoding":     d.Observability.LogEncoding,
		"observability.metrics_addr":     d.Observability.MetricsAddr,
		"observability.enable_tracing":   d.Observability.EnableTracing,
	}
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.SetDefault(k, defaults[k])
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func configType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

// String renders the config with secrets masked, for debug logging.
func (c *Config) String() string {
	masked := *c
	if masked.ClientSecret != "" {
		masked.ClientSecret = "****"
	}
	if masked.State.DSN != "" {
		masked.State.DSN = "****"
	}
	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("config(domain=%s)", c.Domain)
	}
	return string(out)
}
