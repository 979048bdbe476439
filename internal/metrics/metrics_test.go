package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Fetched("golang", 3)
	m.Fetched("golang", 2)
	m.FetchFailed("rust")
	m.ObserveCycle(0.2, 4)
	m.NotifyFallback()
	m.SetSeen(12)

	if got := testutil.ToFloat64(m.fetched.WithLabelValues("golang")); got != 5 {
		t.Fatalf("fetched = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.fetchErrors.WithLabelValues("rust")); got != 1 {
		t.Fatalf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.newItems); got != 4 {
		t.Fatalf("new items = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.cycles); got != 1 {
		t.Fatalf("cycles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.seenItems); got != 12 {
		t.Fatalf("seen = %v, want 12", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Fetched("q", 1)
	m.FetchFailed("q")
	m.ObserveCycle(1, 1)
	m.NotifyFallback()
	m.SetSeen(1)
	if m.Registry() != nil {
		t.Fatal("nil metrics should have nil registry")
	}
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.ObserveCycle(0.1, 2)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "tweetpulse_items_new_total 2") {
		t.Fatalf("metric missing from output:\n%s", body)
	}
}
