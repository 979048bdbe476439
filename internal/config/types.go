package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and passed by value; nothing reads it
// from globals. Field tags are the config file keys.
type Config struct {
	X        XConfig        `json:"x"`
	Telegram TelegramConfig `json:"telegram"`
	Search   SearchConfig   `json:"search"`
	Storage  StorageConfig  `json:"storage"`
	Render   RenderConfig   `json:"render"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type XConfig struct {
	BearerToken string `json:"bearer_token,omitempty"`
	APIURL      string `json:"api_url,omitempty"`
	// Timeout is a Go duration string applied per request (e.g. "15s").
	Timeout string `json:"timeout,omitempty"`
}

// RequestTimeout is the per-request timeout; unset or "0s" means
// DefaultHTTPTimeout. Validate rejects strings that do not parse.
func (c XConfig) RequestTimeout() time.Duration {
	d, _ := duration(keyHTTPTimeout, c.Timeout, DefaultHTTPTimeout)
	return d
}

// TelegramConfig enables the Telegram notifier when both Token and ChatID
// are set.
type TelegramConfig struct {
	Token      string  `json:"token,omitempty"`
	ChatID     ChatID  `json:"chat_id,omitempty"`
	APIURL     string  `json:"api_url,omitempty"`
	RatePerSec float64 `json:"rate_per_sec,omitempty"`
}

func (c TelegramConfig) Enabled() bool { return c.Token != "" && c.ChatID != "" }

// ChatID is a numeric chat id or an @channel username. Config files may
// give a numeric id unquoted.
type ChatID string

func (c *ChatID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = ChatID(strings.TrimSpace(s))
		return nil
	}
	raw := string(bytes.TrimSpace(b))
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return fmt.Errorf("telegram.chat_id: want an integer or a string, got %s", raw)
	}
	*c = ChatID(raw)
	return nil
}

type SearchConfig struct {
	Queries         []string `json:"queries"`
	IntervalSeconds int      `json:"interval_seconds,omitempty"`
	MaxResults      int      `json:"max_results,omitempty"`
}

func (c SearchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// StorageConfig selects the seen-item store.
//
// Driver values:
//   - "file" (default): JSON snapshot
//   - "sqlite": SQLite database
type StorageConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// Busy is the sqlite busy timeout, 0 when unset.
func (c StorageConfig) Busy() time.Duration {
	d, _ := duration(keyBusyTimeout, c.BusyTimeout, 0)
	return d
}

type RenderConfig struct {
	OutputPath string `json:"output_path,omitempty"`
	Window     int    `json:"window,omitempty"`
	Title      string `json:"title,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"`
	// File enables an additional JSON log file when set.
	File string `json:"file,omitempty"`
}

type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `json:"addr,omitempty"`
	// Pprof additionally mounts net/http/pprof under /debug/pprof/.
	Pprof bool `json:"pprof,omitempty"`
}
