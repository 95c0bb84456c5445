// Package retention prunes old ingestion history on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// HistoryPruner deletes history rows created before a cutoff.
// Implemented by repository.IngestionHistoryRepo.
type HistoryPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner runs PruneNow on a cron schedule.
type Pruner struct {
	cron      *cron.Cron
	history   HistoryPruner
	retention time.Duration
	schedule  string
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
}

// NewPruner creates a pruner that keeps history for the retention period.
func NewPruner(history HistoryPruner, retention time.Duration, schedule string, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		cron:      cron.New(),
		history:   history,
		retention: retention,
		schedule:  schedule,
		logger:    logger.With("component", "retention"),
		now:       time.Now,
	}
}

// Start registers the schedule and starts the cron runner. An invalid
// schedule is an error.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if p.retention <= 0 {
		p.logger.Info("history retention disabled")
		return nil
	}

	entry, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.PruneNow(context.WithoutCancel(ctx)); err != nil {
			p.logger.Warn("scheduled prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.schedule, err)
	}
	p.entry = entry
	p.started = true
	p.cron.Start()
	p.logger.Info("history pruner started", "schedule", p.schedule, "retention", p.retention)
	return nil
}

// Stop stops the cron runner and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	<-p.cron.Stop().Done()
	p.started = false
	p.logger.Info("history pruner stopped")
}

// PruneNow deletes history older than the retention period.
func (p *Pruner) PruneNow(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.history.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		p.logger.Info("pruned ingestion history", "rows", n, "cutoff", cutoff)
	}
	return n, nil
}
