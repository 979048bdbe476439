// Package pulse runs the polling cycle: fetch every query, keep only items the
// seen store has not recorded, persist them, deliver them and refresh the
// rendered window.
package pulse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tweetpulse/internal/feed"
	"tweetpulse/internal/metrics"
	"tweetpulse/internal/notifier"
	"tweetpulse/internal/render"
	"tweetpulse/internal/storage"
	logx "tweetpulse/pkg/logx"
)

const DefaultWindow = 100

type Config struct {
	Queries    []string
	MaxResults int
	Interval   time.Duration
	// Window is how many of the most recent stored items are rendered.
	Window int
}

// Deps are the loop's collaborators. Metrics may be nil.
type Deps struct {
	Fetcher  feed.Fetcher
	Store    storage.Store
	Notifier notifier.Notifier
	Renderer render.Renderer
	Metrics  *metrics.Metrics
	Log      logx.Logger
}

// Loop is a single sequential worker; it is not meant to run cycles concurrently.
type Loop struct {
	cfg Config
	d   Deps
	log logx.Logger

	state atomic.Int32
}

// Report summarizes one cycle.
type Report struct {
	CycleID       string
	Fetched       int
	New           []feed.Item // novel items, in delivery order
	FailedQueries []string
	Rendered      bool
	Duration      time.Duration
}

func New(cfg Config, d Deps) (*Loop, error) {
	if d.Fetcher == nil || d.Store == nil || d.Notifier == nil || d.Renderer == nil {
		return nil, errors.New("pulse: fetcher, store, notifier and renderer are required")
	}
	queries := make([]string, 0, len(cfg.Queries))
	for _, q := range cfg.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	cfg.Queries = queries
	if cfg.MaxResults < 1 {
		cfg.MaxResults = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	log := d.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Loop{cfg: cfg, d: d, log: log.With(logx.String("comp", "pulse"))}, nil
}

func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) { l.state.Store(int32(s)) }

// Run executes cycles until ctx is cancelled: work, then sleep for the full
// interval. It returns nil on cancellation and the error of a cycle that
// could not persist, even if that cycle also saw the cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("pulse loop started",
		logx.Strings("queries", l.cfg.Queries),
		logx.Duration("interval", l.cfg.Interval),
		logx.Int("max_results", l.cfg.MaxResults))

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			l.log.Info("pulse loop stopped")
			return nil
		case <-timer.C:
		}

		if _, err := l.RunCycle(ctx); err != nil {
			if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
				l.log.Info("pulse loop stopped")
				return nil
			}
			return err
		}
		l.setState(StateSleeping)
		timer.Reset(l.cfg.Interval)
	}
}

// RunCycle performs one sweep over all queries.
//
// A fetch failure only drops that query's contribution. A seen-store failure
// stops filtering, but items already recorded in this cycle are still
// delivered before the error is returned.
func (l *Loop) RunCycle(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{CycleID: uuid.NewString()}
	log := l.log.With(logx.String("cycle", rep.CycleID))
	defer l.setState(StateIdle)

	var stopErr error
queries:
	for _, q := range l.cfg.Queries {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}

		l.setState(StateFetching)
		items, err := l.d.Fetcher.Fetch(ctx, q, l.cfg.MaxResults)
		if err != nil {
			log.Warn("fetch failed, skipping query until next cycle", logx.String("query", q), logx.Err(err))
			rep.FailedQueries = append(rep.FailedQueries, q)
			l.d.Metrics.FetchFailed(q)
			continue
		}
		rep.Fetched += len(items)
		l.d.Metrics.Fetched(q, len(items))

		l.setState(StateFiltering)
		for _, it := range items {
			if it.Query == "" {
				it.Query = q
			}
			fresh, err := l.admit(ctx, it)
			if err != nil {
				stopErr = err
				break queries
			}
			if fresh {
				rep.New = append(rep.New, it)
			}
		}
	}

	if len(rep.New) > 0 {
		l.setState(StateDelivering)
		for _, it := range rep.New {
			l.d.Notifier.Notify(ctx, it)
		}

		l.setState(StateRendering)
		window, err := l.d.Store.Recent(ctx, l.cfg.Window)
		if err != nil {
			if stopErr == nil {
				stopErr = fmt.Errorf("seen store: %w", err)
			}
		} else if err := l.d.Renderer.Render(ctx, window); err != nil {
			log.Error("render failed", logx.Err(err))
		} else {
			rep.Rendered = true
		}
	}

	rep.Duration = time.Since(start)
	l.d.Metrics.ObserveCycle(rep.Duration.Seconds(), len(rep.New))
	if n, err := l.d.Store.Len(ctx); err == nil {
		l.d.Metrics.SetSeen(n)
	}

	fields := []logx.Field{
		logx.Int("fetched", rep.Fetched),
		logx.Int("new", len(rep.New)),
		logx.Int("failed_queries", len(rep.FailedQueries)),
		logx.Duration("took", rep.Duration),
	}
	if stopErr != nil {
		log.Error("cycle aborted", append(fields, logx.Err(stopErr))...)
		return rep, stopErr
	}
	if len(rep.New) > 0 {
		log.Info("cycle done", fields...)
	} else {
		log.Debug("cycle done, nothing new", fields...)
	}
	return rep, nil
}

// admit records it in the seen store if it is novel and reports whether it was.
func (l *Loop) admit(ctx context.Context, it feed.Item) (bool, error) {
	if strings.TrimSpace(it.ID) == "" {
		l.log.Debug("dropping item without id", logx.String("query", it.Query))
		return false, nil
	}
	seen, err := l.d.Store.IsSeen(ctx, it.ID)
	if err != nil {
		return false, fmt.Errorf("seen store: %w", err)
	}
	if seen {
		return false, nil
	}
	if err := l.d.Store.MarkSeen(ctx, it); err != nil {
		if errors.Is(err, storage.ErrAlreadySeen) {
			return false, nil
		}
		return false, fmt.Errorf("seen store: %w", err)
	}
	l.log.Debug("new item recorded", it.LogFields()...)
	return true, nil
}
