// Package activity schedules retention of the listing activity log.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Store is satisfied by *store.MongoStore.
type Store interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner deletes activity older than the retention window on a cron schedule.
type Pruner struct {
	store     Store
	retention time.Duration
	timeout   time.Duration
	log       *zap.Logger
	now       func() time.Time
	cron      *cron.Cron
}

func NewPruner(store Store, retention, timeout time.Duration, log *zap.Logger) *Pruner {
	return &Pruner{store: store, retention: retention, timeout: timeout, log: log, now: time.Now}
}

// Start schedules the job. schedule is a standard five-field cron expression.
func (p *Pruner) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { p.Run(context.Background()) }); err != nil {
		return fmt.Errorf("schedule activity prune %q: %w", schedule, err)
	}
	p.cron = c
	c.Start()
	p.log.Info("activity pruner scheduled", zap.String("schedule", schedule), zap.Duration("retention", p.retention))
	return nil
}

// Stop waits for a running job to finish or ctx to end.
func (p *Pruner) Stop(ctx context.Context) {
	if p.cron == nil {
		return
	}
	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run prunes once.
func (p *Pruner) Run(ctx context.Context) (int64, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.PruneBefore(ctx, cutoff)
	if err != nil {
		p.log.Error("activity prune failed", zap.Error(err))
		return 0, err
	}
	p.log.Info("activity pruned", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}
