package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rune-settle.backend/pkg/logger"
)

// Recoverer re-attaches tracking to settlements stranded by a restart.
type Recoverer interface {
	Recover(ctx context.Context) error
}

// WindowCloser closes batch windows whose max wait has elapsed.
type WindowCloser interface {
	CloseDue(ctx context.Context)
}

// SettlementRecoveryJob periodically re-attaches confirmation tracking to
// in-flight settlements and closes batch windows whose max wait elapsed
// while the process was down.
type SettlementRecoveryJob struct {
	engine   Recoverer
	batches  WindowCloser
	interval time.Duration
	stop     chan struct{}
}

func NewSettlementRecoveryJob(engine Recoverer, batches WindowCloser, interval time.Duration) *SettlementRecoveryJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SettlementRecoveryJob{
		engine:   engine,
		batches:  batches,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *SettlementRecoveryJob) Start(ctx context.Context) {
	logger.Info(ctx, "starting settlement recovery job", zap.Duration("interval", j.interval))

	// Run once immediately so stranded work is picked up right after boot.
	j.runOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "settlement recovery job stopped")
			return
		case <-j.stop:
			logger.Info(ctx, "settlement recovery job stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *SettlementRecoveryJob) Stop() {
	close(j.stop)
}

func (j *SettlementRecoveryJob) runOnce(ctx context.Context) {
	if err := j.engine.Recover(ctx); err != nil {
		logger.Error(ctx, "settlement recovery sweep failed", zap.Error(err))
	}
	j.batches.CloseDue(ctx)
}
