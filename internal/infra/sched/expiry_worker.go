package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-creative-suite/internal/infra/metrics"
	"ai-creative-suite/internal/usecase"
)

// ExpiryWorker flips subscriptions past their expiry to expired.
type ExpiryWorker struct {
	subs     usecase.SubscriptionUseCase
	interval time.Duration
	log      *zerolog.Logger
}

func NewExpiryWorker(subs usecase.SubscriptionUseCase, interval time.Duration, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	compLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{subs: subs, interval: interval, log: &compLog}
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := w.subs.ExpireDue(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				metrics.IncReconcilerSweep("expiry_worker", "error")
				continue
			}
			if n > 0 {
				w.log.Info().Int64("expired", n).Msg("subscriptions expired")
			}
			metrics.IncReconcilerSweep("expiry_worker", "ok")
		}
	}
}
