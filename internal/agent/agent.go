// Package agent keeps a device synchronized in the background. It runs the
// sync engine on an interval and shortly after the local store changes, and
// serves a small HTTP API for status, manual sync, purge and metrics.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	rostersync "github.com/marcus/roster/internal/sync"
)

// Trigger sources recorded with each sync.
const (
	TriggerInterval = "interval"
	TriggerChange   = "change"
	TriggerManual   = "manual"
)

// Syncer runs one synchronization attempt.
type Syncer interface {
	Synchronize(ctx context.Context) (rostersync.Outcome, error)
}

// Purger deletes synchronized records.
type Purger interface {
	PurgeSynchronized(ctx context.Context) (rostersync.PurgeOutcome, error)
}

// Reporter reads the pending/synchronized split.
type Reporter interface {
	Snapshot(ctx context.Context) (rostersync.Snapshot, error)
}

// Config controls the agent loops and listener.
type Config struct {
	Listen string
	// Interval between scheduled syncs; zero disables the schedule.
	Interval time.Duration
	// Debounce delays a change-triggered sync until writes settle.
	Debounce time.Duration
	// WatchDir is the data directory to watch; empty disables watching.
	WatchDir string
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// LastSync describes the most recent attempt.
type LastSync struct {
	Outcome *rostersync.Outcome `json:"outcome,omitempty"`
	Error   string              `json:"error,omitempty"`
	Trigger string              `json:"trigger"`
	At      time.Time           `json:"at"`
}

// Agent owns the background loops and HTTP server.
type Agent struct {
	cfg      Config
	syncer   Syncer
	purger   Purger
	reporter Reporter
	logger   *slog.Logger

	trigger chan struct{}

	mu   sync.Mutex
	last *LastSync
}

// New creates an agent. A nil logger uses slog.Default().
func New(cfg Config, syncer Syncer, purger Purger, reporter Reporter, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		cfg:      cfg,
		syncer:   syncer,
		purger:   purger,
		reporter: reporter,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Run listens on cfg.Listen and serves until ctx is canceled.
func (a *Agent) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln together with the sync loop and, when
// configured, the store watcher. It returns after all of them have stopped.
func (a *Agent) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("agent: listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.loop(ctx)
	})
	if a.cfg.WatchDir != "" {
		w, err := newStoreWatcher(a.cfg.WatchDir, a.cfg.Debounce, a.Trigger, a.logger)
		if err != nil {
			a.logger.Warn("agent: store watch disabled", "dir", a.cfg.WatchDir, "err", err)
		} else {
			g.Go(func() error {
				return w.run(ctx)
			})
		}
	}

	return g.Wait()
}

// Trigger requests a sync soon. Requests made while one is queued coalesce.
func (a *Agent) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Last returns the most recent sync attempt, or nil before the first one.
func (a *Agent) Last() *LastSync {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}
	cp := *a.last
	return &cp
}

func (a *Agent) loop(ctx context.Context) error {
	var tick <-chan time.Time
	if a.cfg.Interval > 0 {
		ticker := time.NewTicker(a.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			a.syncOnce(ctx, TriggerInterval)
		case <-a.trigger:
			a.syncOnce(ctx, TriggerChange)
		}
	}
}

// syncOnce runs the engine and records the result. Failures are logged and
// kept for /status; they never stop the agent.
func (a *Agent) syncOnce(ctx context.Context, trigger string) (rostersync.Outcome, error) {
	out, err := a.syncer.Synchronize(ctx)

	last := &LastSync{Trigger: trigger, At: time.Now().UTC()}
	if err != nil {
		last.Error = err.Error()
		a.logger.Error("agent: sync failed", "trigger", trigger, "err", err)
	} else {
		last.Outcome = &out
		if out.Failed() {
			a.logger.Warn("agent: sync attempt failed", "trigger", trigger, "outcome", out.String())
		} else {
			a.logger.Debug("agent: sync", "trigger", trigger, "outcome", out.String())
		}
	}

	a.mu.Lock()
	a.last = last
	a.mu.Unlock()
	return out, err
}
