package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMissingCredential means the upstream bearer token is not configured.
var ErrMissingCredential = errors.New("missing credential")

// Load builds the configuration: defaults, then the optional file at path
// (YAML or JSON, unknown keys rejected), then environment variables. The
// result is validated.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overlays non-empty environment variables onto cfg.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}
	setStr := func(dst *string, keys ...string) {
		if v, ok := get(keys...); ok {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, v)
		}
		*dst = n
		return nil
	}

	setStr(&cfg.X.BearerToken, "X_BEARER_TOKEN", "TWITTER_BEARER_TOKEN")
	setStr(&cfg.X.APIURL, "X_API_URL")
	setStr(&cfg.X.Timeout, "HTTP_TIMEOUT")

	setStr(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	if v, ok := get("TELEGRAM_CHAT_ID"); ok {
		cfg.Telegram.ChatID = ChatID(v)
	}
	setStr(&cfg.Telegram.APIURL, "TELEGRAM_API_URL")
	if v, ok := get("TELEGRAM_RATE_PER_SEC"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_RATE_PER_SEC: %q is not a number", v)
		}
		cfg.Telegram.RatePerSec = f
	}

	if v, ok := get("SEARCH_QUERIES"); ok {
		cfg.Search.Queries = SplitQueries(v)
	}
	if err := setInt(&cfg.Search.IntervalSeconds, "POLL_INTERVAL_SECONDS"); err != nil {
		return err
	}
	if err := setInt(&cfg.Search.MaxResults, "MAX_RESULTS"); err != nil {
		return err
	}

	setStr(&cfg.Storage.Driver, "SEEN_STORE_DRIVER")
	setStr(&cfg.Storage.Path, "SEEN_STORE_PATH")

	setStr(&cfg.Render.OutputPath, "OUTPUT_PATH")
	if err := setInt(&cfg.Render.Window, "RENDER_WINDOW"); err != nil {
		return err
	}

	setStr(&cfg.Logging.Level, "LOG_LEVEL")
	setStr(&cfg.Logging.File, "LOG_FILE")
	setStr(&cfg.Metrics.Addr, "METRICS_ADDR")
	if v, ok := get("METRICS_PPROF"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_PPROF: %q is not a boolean", v)
		}
		cfg.Metrics.Pprof = b
	}
	return nil
}

// SplitQueries splits a comma separated list, trimming entries and dropping
// empty ones.
func SplitQueries(s string) []string {
	var out []string
	for _, q := range strings.Split(s, ",") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// Validate reports the first invalid setting. A missing bearer token wraps
// ErrMissingCredential.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.X.BearerToken) == "" {
		return fmt.Errorf("%w: set X_BEARER_TOKEN to an X API v2 app bearer token", ErrMissingCredential)
	}
	if _, err := duration(keyHTTPTimeout, c.X.Timeout, DefaultHTTPTimeout); err != nil {
		return err
	}

	c.Search.Queries = SplitQueries(strings.Join(c.Search.Queries, ","))
	if len(c.Search.Queries) == 0 {
		return errors.New("no search queries configured: set SEARCH_QUERIES (comma separated)")
	}
	if c.Search.IntervalSeconds < 1 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be >= 1, got %d", c.Search.IntervalSeconds)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("MAX_RESULTS must be >= 1, got %d", c.Search.MaxResults)
	}
	if c.Render.Window < 1 {
		return fmt.Errorf("RENDER_WINDOW must be >= 1, got %d", c.Render.Window)
	}
	if c.Telegram.RatePerSec < 0 {
		return fmt.Errorf("TELEGRAM_RATE_PER_SEC must be >= 0, got %v", c.Telegram.RatePerSec)
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "file", "json", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unknown seen store driver %q (want file or sqlite)", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("SEEN_STORE_PATH must not be empty")
	}
	if _, err := duration(keyBusyTimeout, c.Storage.BusyTimeout, 0); err != nil {
		return err
	}
	if strings.TrimSpace(c.Render.OutputPath) == "" {
		return errors.New("OUTPUT_PATH must not be empty")
	}
	return nil
}
