package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tweetpulse/internal/feed"
	"tweetpulse/internal/metrics"
	logx "tweetpulse/pkg/logx"
)

var sample = feed.Item{
	ID:        "1790",
	Text:      "Go 1.23 ships range-over-func",
	AuthorID:  "42",
	CreatedAt: time.Date(2024, 8, 13, 17, 0, 0, 0, time.UTC),
	Query:     "golang",
}

// syncBuffer guards writes from the notifier against reads in the test.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestConsoleWritesBlock(t *testing.T) {
	var out syncBuffer
	NewConsole(&out).Notify(context.Background(), sample)

	got := out.String()
	for _, want := range []string{"[golang]", "author 42", "2024-08-13 17:00 UTC", sample.Text, sample.URL()} {
		if !strings.Contains(got, want) {
			t.Fatalf("console output missing %q:\n%s", want, got)
		}
	}
}

func TestNewSelectsVariant(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		telegram bool
	}{
		{name: "no credentials", cfg: Config{}, telegram: false},
		{name: "token only", cfg: Config{Token: "123:abc"}, telegram: false},
		{name: "chat only", cfg: Config{ChatID: "99"}, telegram: false},
		{name: "both", cfg: Config{Token: "123:abc", ChatID: "99"}, telegram: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.cfg, logx.Nop(), nil)
			_, isTelegram := n.(*Telegram)
			if isTelegram != tt.telegram {
				t.Fatalf("telegram = %v, want %v (%T)", isTelegram, tt.telegram, n)
			}
		})
	}
}

func TestTelegramSends(t *testing.T) {
	var (
		mu   sync.Mutex
		got  map[string]any
		path string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1723568400,"chat":{"id":99,"type":"private"},"text":"ok"}}`))
	}))
	defer srv.Close()

	var out syncBuffer
	m := metrics.New()
	n := New(Config{Token: "123:abc", ChatID: "99", APIURL: srv.URL, Out: &out}, logx.Nop(), m)
	n.Notify(context.Background(), sample)

	mu.Lock()
	defer mu.Unlock()
	if !strings.HasSuffix(path, "/bot123:abc/sendMessage") {
		t.Fatalf("unexpected path %q", path)
	}
	if got["chat_id"] != "99" {
		t.Fatalf("chat_id = %v", got["chat_id"])
	}
	text, _ := got["text"].(string)
	if !strings.Contains(text, sample.Text) || !strings.Contains(text, `"golang"`) {
		t.Fatalf("text missing item content: %q", text)
	}
	if out.String() != "" {
		t.Fatalf("successful send should not print to console, got %q", out.String())
	}
}

func TestTelegramFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	var out syncBuffer
	m := metrics.New()
	n := New(Config{Token: "123:abc", ChatID: "99", APIURL: srv.URL, Out: &out}, logx.Nop(), m)
	n.Notify(context.Background(), sample)

	if !strings.Contains(out.String(), sample.Text) {
		t.Fatalf("expected console fallback with item text, got %q", out.String())
	}
	want := `
# HELP tweetpulse_notify_fallbacks_total Deliveries that fell back to console output.
# TYPE tweetpulse_notify_fallbacks_total counter
tweetpulse_notify_fallbacks_total 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "tweetpulse_notify_fallbacks_total"); err != nil {
		t.Fatalf("fallback metric: %v", err)
	}
}

func TestTelegramFallsBackOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var out syncBuffer
	n := New(Config{Token: "123:abc", ChatID: "@pulse", APIURL: url, Timeout: time.Second, Out: &out}, logx.Nop(), nil)
	n.Notify(context.Background(), sample)

	if !strings.Contains(out.String(), sample.Text) {
		t.Fatalf("expected console fallback with item text, got %q", out.String())
	}
}

func TestTelegramFallsBackOnCancelledContext(t *testing.T) {
	var out syncBuffer
	n := New(Config{Token: "123:abc", ChatID: "99", APIURL: "http://127.0.0.1:1", Out: &out}, logx.Nop(), nil)
	tg := n.(*Telegram)
	// Drain the burst so the next Wait has to block.
	tg.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tg.Notify(ctx, sample)

	if !strings.Contains(out.String(), sample.Text) {
		t.Fatalf("expected console fallback with item text, got %q", out.String())
	}
}

func TestTruncateRunes(t *testing.T) {
	s := strings.Repeat("é", 10)
	if got := truncate(s, 5); got != "éé..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
