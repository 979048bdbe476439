package observability

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tweetpulse/internal/metrics"
	logx "tweetpulse/pkg/logx"
)

func TestHandlerRoutes(t *testing.T) {
	m := metrics.New()
	m.ObserveCycle(0.1, 2)
	s := New(Config{}, logx.Nop(), m.Handler(), func() string { return "sleeping" })
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := get(t, srv.URL+"/healthz", http.StatusOK)
	if body != "ok sleeping" {
		t.Fatalf("healthz body = %q", body)
	}
	if !strings.Contains(get(t, srv.URL+"/metrics", http.StatusOK), "tweetpulse_cycles_total 1") {
		t.Fatal("metrics missing cycles counter")
	}
	get(t, srv.URL+"/debug/pprof/", http.StatusNotFound)
}

func TestHandlerPprof(t *testing.T) {
	s := New(Config{Pprof: true}, logx.Nop(), nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if get(t, srv.URL+"/healthz", http.StatusOK) != "ok" {
		t.Fatal("unexpected healthz body")
	}
	get(t, srv.URL+"/debug/pprof/cmdline", http.StatusOK)
	get(t, srv.URL+"/metrics", http.StatusNotFound)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New(Config{Addr: ln.Addr().String()}, logx.Nop(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	get(t, "http://"+ln.Addr().String()+"/healthz", http.StatusOK)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeRejectsEmptyAddr(t *testing.T) {
	if err := New(Config{}, logx.Nop(), nil, nil).Serve(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsLoopbackAddr(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:9090": true,
		"localhost:9090": true,
		"[::1]:9090":     true,
		":9090":          false,
		"0.0.0.0:9090":   false,
		"10.0.0.5:9090":  false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackAddr(addr); got != want {
			t.Errorf("isLoopbackAddr(%q) = %v, want %v", addr, got, want)
		}
	}
}

func get(t *testing.T, url string, wantStatus int) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	return string(b)
}
