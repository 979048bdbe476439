package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"tweetpulse/internal/feed"
	"tweetpulse/internal/metrics"
	logx "tweetpulse/pkg/logx"
)

const (
	DefaultTelegramURL = "https://api.telegram.org"
	telegramTextLimit  = 4000
)

// chatRecipient accepts numeric chat ids as well as "@channel" usernames.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

// Telegram sends items through a bot. Failed sends fall back to the console.
type Telegram struct {
	bot      *tele.Bot
	chat     chatRecipient
	limiter  *rate.Limiter
	fallback *Console
	log      logx.Logger
	metrics  *metrics.Metrics
}

func NewTelegram(cfg Config, fallback *Console, log logx.Logger, m *metrics.Metrics) (*Telegram, error) {
	if !cfg.telegramEnabled() {
		return nil, errors.New("telegram token or chat id is empty")
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultTelegramURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// Offline: no getMe round-trip at construction, the bot is send-only.
	b, err := tele.NewBot(tele.Settings{
		URL:     apiURL,
		Token:   strings.TrimSpace(cfg.Token),
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		fallback = NewConsole(nil)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Telegram{
		bot:      b,
		chat:     chatRecipient(strings.TrimSpace(cfg.ChatID)),
		limiter:  rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		fallback: fallback,
		log:      log.With(logx.String("comp", "notifier.telegram")),
		metrics:  m,
	}, nil
}

func (t *Telegram) Notify(ctx context.Context, it feed.Item) {
	defer func() {
		if r := recover(); r != nil {
			t.degrade(ctx, it, fmt.Errorf("panic: %v", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	if err := t.send(ctx, it); err != nil {
		t.degrade(ctx, it, err)
		return
	}
	t.log.Debug("delivered", it.LogFields()...)
}

func (t *Telegram) send(ctx context.Context, it feed.Item) error {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	text := truncate(FormatMessage(it), telegramTextLimit)
	_, err := t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("send to %s after %s: %w", t.chat, since(start), err)
	}
	return nil
}

func (t *Telegram) degrade(ctx context.Context, it feed.Item, err error, extra ...logx.Field) {
	fields := append(append(it.LogFields(), logx.Err(err)), extra...)
	t.log.Warn("telegram delivery failed, falling back to console", fields...)
	t.metrics.NotifyFallback()
	t.fallback.Notify(ctx, it)
}

func truncate(s string, maxN int) string {
	rs := []rune(s)
	if maxN <= 0 || len(rs) <= maxN {
		return s
	}
	return string(rs[:maxN-3]) + "..."
}
