package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
	"ai-creative-suite/internal/infra/metrics"
	"ai-creative-suite/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and polls
// the gateway for a verdict. This covers callbacks that never arrived or a
// process that crashed mid-settlement. A poll without a verdict leaves the
// payment pending for the next sweep.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to poll
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{uc: uc, payments: payments, interval: interval, staleAfter: staleAfter, log: &compLog}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending failed")
		metrics.IncReconcilerSweep("payment_reconciler", "error")
		return
	}
	for _, p := range pending {
		res, err := w.uc.CheckStatus(ctx, p.MerchantTxID)
		if err != nil {
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconcile poll failed")
			metrics.IncReconcilerSweep("payment_reconciler", "error")
			continue
		}
		if res.Status == model.PaymentStatusPending {
			metrics.IncReconcilerSweep("payment_reconciler", "still_pending")
			continue
		}
		metrics.IncReconcilerSweep("payment_reconciler", "settled")
		w.log.Info().Str("payment_id", p.ID).Str("status", string(res.Status)).Msg("reconciled stale payment")
	}
}
