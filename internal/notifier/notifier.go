// Package notifier delivers one item at a time to a human-facing channel.
//
// Notify never returns an error and never panics into the caller: a failed
// chat delivery degrades to console output instead of dropping the item.
package notifier

import (
	"context"
	"io"
	"strings"
	"time"

	"tweetpulse/internal/feed"
	"tweetpulse/internal/metrics"
	logx "tweetpulse/pkg/logx"
)

type Notifier interface {
	Notify(ctx context.Context, it feed.Item)
}

// Config selects and configures the notifier variant.
// Telegram is used only when both Token and ChatID are set.
type Config struct {
	Token      string
	ChatID     string
	APIURL     string
	RatePerSec float64
	Timeout    time.Duration

	// Out is the console sink (stdout when nil).
	Out io.Writer
}

func (c Config) telegramEnabled() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.ChatID) != ""
}

// New picks the variant once. If the Telegram bot cannot be constructed the
// console variant is returned and the reason is logged.
func New(cfg Config, log logx.Logger, m *metrics.Metrics) Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	console := NewConsole(cfg.Out)
	if !cfg.telegramEnabled() {
		log.Info("notifier: console")
		return console
	}
	tg, err := NewTelegram(cfg, console, log, m)
	if err != nil {
		log.Warn("telegram notifier unavailable, using console", logx.Err(err))
		return console
	}
	log.Info("notifier: telegram", logx.String("chat_id", cfg.ChatID))
	return tg
}
