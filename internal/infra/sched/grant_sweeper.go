package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
	"ai-creative-suite/internal/domain/ports/repository"
	"ai-creative-suite/internal/infra/metrics"
	"ai-creative-suite/internal/usecase"
)

// GrantSweeper re-drives entitlement for payments that settled completed but
// whose grant failed (completed-but-ungranted). The grant path is idempotent
// per payment, so re-driving a payment that got its credits in the meantime
// is harmless.
type GrantSweeper struct {
	payments repository.PaymentRepository
	packages repository.CreditPackageRepository
	credits  usecase.CreditUseCase
	subs     usecase.SubscriptionUseCase
	notifier adapter.AdminNotifier
	interval time.Duration
	log      *zerolog.Logger
}

func NewGrantSweeper(
	payments repository.PaymentRepository,
	packages repository.CreditPackageRepository,
	credits usecase.CreditUseCase,
	subs usecase.SubscriptionUseCase,
	notifier adapter.AdminNotifier,
	interval time.Duration,
	logger *zerolog.Logger,
) *GrantSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	compLog := logger.With().Str("component", "GrantSweeper").Logger()
	return &GrantSweeper{
		payments: payments,
		packages: packages,
		credits:  credits,
		subs:     subs,
		notifier: notifier,
		interval: interval,
		log:      &compLog,
	}
}

func (w *GrantSweeper) Start(ctx context.Context) {
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

func (w *GrantSweeper) tick(ctx context.Context) {
	ungranted, err := w.payments.ListCompletedWithoutGrant(ctx, repository.NoTX, 100)
	if err != nil {
		w.log.Error().Err(err).Msg("list ungranted failed")
		metrics.IncReconcilerSweep("grant_sweeper", "error")
		return
	}
	for _, p := range ungranted {
		if err := w.regrant(ctx, p); err != nil {
			metrics.IncReconcilerSweep("grant_sweeper", "error")
			w.log.Error().Err(err).Str("payment_id", p.ID).Msg("re-grant failed")
			w.alert(ctx, fmt.Sprintf("grant sweeper: payment %s completed but grant keeps failing: %v", p.ID, err))
			continue
		}
		metrics.IncReconcilerSweep("grant_sweeper", "granted")
		w.log.Info().Str("payment_id", p.ID).Msg("re-granted completed payment")
	}
}

func (w *GrantSweeper) regrant(ctx context.Context, p *model.Payment) error {
	switch p.Type {
	case model.PaymentTypeCredits:
		if p.PackageID == nil {
			return fmt.Errorf("completed credits payment %s has no package", p.ID)
		}
		pkg, err := w.packages.FindByID(ctx, repository.NoTX, *p.PackageID)
		if err != nil {
			return err
		}
		_, err = w.credits.AddCredits(ctx, p.UserID, pkg.Credits, "credit package purchase: "+pkg.Name, model.TransactionTypePurchase, &p.ID)
		return err
	case model.PaymentTypeSubscription:
		if p.PlanID == nil {
			return fmt.Errorf("completed subscription payment %s has no plan", p.ID)
		}
		_, err := w.subs.ActivateFromPayment(ctx, p.UserID, *p.PlanID, p.ID)
		return err
	}
	return fmt.Errorf("payment %s has unknown type %q", p.ID, p.Type)
}

func (w *GrantSweeper) alert(ctx context.Context, msg string) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.NotifyAdmins(ctx, msg); err != nil {
		w.log.Warn().Err(err).Msg("admin alert failed")
	}
}
