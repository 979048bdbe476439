package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tweetpulse/internal/feed"
	logx "tweetpulse/pkg/logx"
)

func newTestFetcher(t *testing.T, h http.HandlerFunc) *XSearch {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	x, err := New(Config{BaseURL: srv.URL, BearerToken: "tok", Timeout: 2 * time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return x
}

func TestFetchParsesItems(t *testing.T) {
	x := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != searchPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("query") != "golang -is:retweet" {
			t.Errorf("query = %q", q.Get("query"))
		}
		if q.Get("max_results") != "10" {
			t.Errorf("max_results = %q, want clamped 10", q.Get("max_results"))
		}
		if q.Get("tweet.fields") != "created_at,author_id" {
			t.Errorf("tweet.fields = %q", q.Get("tweet.fields"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": "3", "text": "newest", "author_id": "7", "created_at": "2024-05-01T10:00:00.000Z"},
				{"id": "2", "text": "older", "author_id": "8"},
				{"id": "1", "text": "oldest", "author_id": "9", "created_at": "2024-05-01T08:00:00.000Z"}
			],
			"meta": {"result_count": 3}
		}`))
	})

	items, err := x.Fetch(context.Background(), "golang -is:retweet", 2)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want truncation to 2", len(items))
	}
	if items[0].ID != "3" || items[1].ID != "2" {
		t.Fatalf("order not preserved: %+v", items)
	}
	if items[0].Query != "golang -is:retweet" || items[0].AuthorID != "7" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !items[0].CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %v, want %v", items[0].CreatedAt, want)
	}
	if !items[1].CreatedAt.IsZero() {
		t.Fatalf("absent created_at should be zero")
	}
}

func TestFetchEmptyResult(t *testing.T) {
	x := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta": {"result_count": 0}}`))
	})
	items, err := x.Fetch(context.Background(), "nothing", 50)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"title":"Too Many Requests"}`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"title":"Unauthorized"}`},
		{name: "bad json", status: http.StatusOK, body: `{"data": [`},
		{name: "api errors only", status: http.StatusOK, body: `{"errors":[{"title":"Invalid Request","detail":"bad query"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := x.Fetch(context.Background(), "q", 10)
			var fe *feed.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *feed.FetchError, got %v", err)
			}
			if fe.Query != "q" || fe.Status != tt.status {
				t.Fatalf("unexpected fetch error: %+v", fe)
			}
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	x, err := New(Config{BaseURL: url, BearerToken: "tok", Timeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_, err = x.Fetch(context.Background(), "q", 10)
	var fe *feed.FetchError
	if !errors.As(err, &fe) || fe.Status != 0 {
		t.Fatalf("expected transport FetchError, got %v", err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Config{BearerToken: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}
