package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/usecase"
)

// ExpiryWorker drives the subscription monitor on a fixed interval.
type ExpiryWorker struct {
	interval time.Duration
	monitor  usecase.SubscriptionMonitor
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, monitor usecase.SubscriptionMonitor, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		monitor:  monitor,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	// Run once on startup, then on every tick
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	if n, err := w.monitor.WarnExpiring(ctx); err != nil {
		w.log.Error().Err(err).Msg("expiry warning sweep failed")
	} else if n > 0 {
		w.log.Info().Int("count", n).Msg("expiry warnings sent")
	}

	if n, err := w.monitor.ProcessLapsed(ctx); err != nil {
		w.log.Error().Err(err).Msg("lapse sweep failed")
	} else if n > 0 {
		w.log.Info().Int("count", n).Msg("lapsed subscribers processed")
	}

	if n, err := w.monitor.CancelStalePending(ctx); err != nil {
		w.log.Error().Err(err).Msg("stale transaction sweep failed")
	} else if n > 0 {
		w.log.Info().Int("count", n).Msg("stale transactions canceled")
	}
}
