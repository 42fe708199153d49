package gradebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNoSnapshot is returned before the first successful refresh.
var ErrNoSnapshot = errors.New("no snapshot yet")

// Refresher keeps the latest RunResult for a fixed selection in memory and
// refreshes it on a cron schedule.
type Refresher struct {
	runner  *Runner
	sel     Selection
	timeout time.Duration
	log     *slog.Logger

	runMu sync.Mutex // serializes refreshes
	mu    sync.RWMutex
	cur   *RunResult

	cron  *cron.Cron
	purge Purger
}

// Purger drops expired cache entries. *cache.SQLCache satisfies it.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

func NewRefresher(r *Runner, sel Selection, timeout time.Duration) *Refresher {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Refresher{runner: r, sel: sel, timeout: timeout, log: r.log}
}

// SweepAfterRefresh purges p after every successful refresh.
func (f *Refresher) SweepAfterRefresh(p Purger) { f.purge = p }

// Refresh runs the selection now and swaps in the result. A failed selection
// keeps the previous snapshot.
func (f *Refresher) Refresh(ctx context.Context) (*RunResult, error) {
	f.runMu.Lock()
	defer f.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	courses, err := f.runner.Select(ctx, f.sel)
	if err != nil {
		f.log.Error("refresh failed", "err", err)
		return nil, fmt.Errorf("refresh: %w", err)
	}
	res := f.runner.Run(ctx, courses)

	f.mu.Lock()
	f.cur = &res
	f.mu.Unlock()

	if f.purge != nil {
		if n, err := f.purge.Purge(ctx); err != nil {
			f.log.Warn("cache purge failed", "err", err)
		} else if n > 0 {
			f.log.Debug("cache purged", "removed", n)
		}
	}
	return &res, nil
}

// Current returns the latest snapshot or ErrNoSnapshot.
func (f *Refresher) Current() (*RunResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.cur == nil {
		return nil, ErrNoSnapshot
	}
	return f.cur, nil
}

// Start schedules Refresh with a standard cron spec or descriptor such as
// "@every 15m". Overlapping ticks are skipped.
func (f *Refresher) Start(spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if _, err := f.Refresh(context.Background()); err == nil {
			f.log.Info("snapshot refreshed")
		}
	}); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	f.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (f *Refresher) Stop() {
	if f.cron != nil {
		<-f.cron.Stop().Done()
	}
}
