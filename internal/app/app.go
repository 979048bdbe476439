// Package app wires the configured components and runs them.
package app

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"tweetpulse/internal/config"
	"tweetpulse/internal/feed"
	"tweetpulse/internal/fetcher"
	"tweetpulse/internal/metrics"
	"tweetpulse/internal/notifier"
	"tweetpulse/internal/observability"
	"tweetpulse/internal/pulse"
	"tweetpulse/internal/render"
	"tweetpulse/internal/storage"
	logx "tweetpulse/pkg/logx"
)

type App struct {
	cfg config.Config
	log logx.Logger

	logs    *logx.Sinks
	store   storage.Store
	metrics *metrics.Metrics
	loop    *pulse.Loop
	ops     *observability.Server

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	fetcher  feed.Fetcher
	notifier notifier.Notifier
	renderer render.Renderer
	out      io.Writer
	logs     *logx.Sinks
}

type Option func(*options)

// WithFetcher replaces the X search client.
func WithFetcher(f feed.Fetcher) Option { return func(o *options) { o.fetcher = f } }

// WithNotifier replaces the configured notifier.
func WithNotifier(n notifier.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithRenderer replaces the HTML renderer.
func WithRenderer(r render.Renderer) Option { return func(o *options) { o.renderer = r } }

// WithConsole sets the console notifier sink (stdout by default).
func WithConsole(w io.Writer) Option { return func(o *options) { o.out = w } }

// WithLogSinks hands ownership of the log sinks to the app; Close closes them.
func WithLogSinks(s *logx.Sinks) Option { return func(o *options) { o.logs = s } }

// New opens the seen store and builds every component from cfg.
func New(cfg config.Config, log logx.Logger, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	m := metrics.New()

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.Busy(),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if n, err := store.Len(context.Background()); err == nil {
		m.SetSeen(n)
	}

	f := o.fetcher
	if f == nil {
		x, err := fetcher.New(fetcher.Config{
			BaseURL:     cfg.X.APIURL,
			BearerToken: cfg.X.BearerToken,
			Timeout:     cfg.X.RequestTimeout(),
		}, log.With(logx.String("comp", "fetcher")))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		f = x
	}

	n := o.notifier
	if n == nil {
		n = notifier.New(notifier.Config{
			Token:      cfg.Telegram.Token,
			ChatID:     string(cfg.Telegram.ChatID),
			APIURL:     cfg.Telegram.APIURL,
			RatePerSec: cfg.Telegram.RatePerSec,
			Timeout:    cfg.X.RequestTimeout(),
			Out:        o.out,
		}, log.With(logx.String("comp", "notifier")), m)
	}

	r := o.renderer
	if r == nil {
		h, err := render.NewHTML(cfg.Render.OutputPath, cfg.Render.Title)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		r = h
	}

	loop, err := pulse.New(pulse.Config{
		Queries:    cfg.Search.Queries,
		MaxResults: cfg.Search.MaxResults,
		Interval:   cfg.Search.Interval(),
		Window:     cfg.Render.Window,
	}, pulse.Deps{
		Fetcher:  f,
		Store:    store,
		Notifier: n,
		Renderer: r,
		Metrics:  m,
		Log:      log,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		log:     log.With(logx.String("comp", "app")),
		logs:    o.logs,
		store:   store,
		metrics: m,
		loop:    loop,
	}
	if cfg.Metrics.Addr != "" {
		a.ops = observability.New(observability.Config{
			Addr:  cfg.Metrics.Addr,
			Pprof: cfg.Metrics.Pprof,
		}, log.With(logx.String("comp", "ops")), m.Handler(), func() string {
			return loop.State().String()
		})
	}
	return a, nil
}

func (a *App) Metrics() *metrics.Metrics { return a.metrics }

func (a *App) Store() storage.Store { return a.store }

// Run blocks until ctx is cancelled or the loop hits a persistence error.
// The ops server is optional: if it fails the loop keeps running.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("tweetpulse started", a.cfg.LogFields()...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.loop.Run(gctx) })
	if a.ops != nil {
		g.Go(func() error {
			if err := a.ops.Serve(gctx); err != nil {
				a.log.Error("ops server failed", logx.Err(err))
			}
			return nil
		})
	}

	a.sdNotify(daemon.SdNotifyReady)
	err := g.Wait()
	a.sdNotify(daemon.SdNotifyStopping)

	if err != nil {
		a.log.Error("tweetpulse stopped", logx.Err(err))
		return err
	}
	a.log.Info("tweetpulse stopped")
	return nil
}

// RunOnce runs a single cycle.
func (a *App) RunOnce(ctx context.Context) (pulse.Report, error) {
	a.log.Info("tweetpulse single cycle", a.cfg.LogFields()...)
	return a.loop.RunCycle(ctx)
}

// Close releases the store and, when owned, the log sinks. Safe to call twice.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.store != nil {
			errs = append(errs, a.store.Close())
		}
		if a.logs != nil {
			errs = append(errs, a.logs.Close())
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// sdNotify reports state to systemd; outside a unit it is a no-op.
func (a *App) sdNotify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		a.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		a.log.Debug("sd_notify sent", logx.String("state", state))
	}
}
