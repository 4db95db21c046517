package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const payCols = `id, user_id, merchant_tx_id, amount, currency, type, status, plan_id, package_id, gateway_response, meta, description, created_at, updated_at, completed_at`

func scanPayment(row interface {
	Scan(dest ...interface{}) error
}) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.MerchantTxID, &p.Amount, &p.Currency, &p.Type, &p.Status, &p.PlanID, &p.PackageID, &p.GatewayResponse, &p.Meta, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, merchant_tx_id, amount, currency, type, status, plan_id, package_id, gateway_response, meta, description, created_at, updated_at, completed_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
) ON CONFLICT (id) DO UPDATE SET
  gateway_response=$10, meta=$11, updated_at=$14, completed_at=$15;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.MerchantTxID, p.Amount, p.Currency, p.Type, p.Status, p.PlanID, p.PackageID, p.GatewayResponse, p.Meta, p.Description, p.CreatedAt, p.UpdatedAt, p.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	const q = `SELECT ` + payCols + ` FROM payments WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *paymentRepo) FindByMerchantTxID(ctx context.Context, tx repository.Tx, merchantTxID string) (*model.Payment, error) {
	const q = `SELECT ` + payCols + ` FROM payments WHERE merchant_tx_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, merchantTxID)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

// UpdateStatusIfPending atomically transitions status only when the row is
// still 'pending'. The affected-row count decides which caller runs the
// grant; everyone else must treat the event as a redelivery.
func (r *paymentRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayResponse map[string]interface{}, completedAt *time.Time,
) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       gateway_response = COALESCE($3, gateway_response),
       completed_at = COALESCE($4, completed_at),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), gatewayResponse, completedAt)
	if err != nil {
		if err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + payCols + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, olderThan, limit)
}

// ListCompletedWithoutGrant finds completed payments whose grant never landed:
// credit payments with no ledger entry referencing them, subscription payments
// with no entitlement row. That is the "payment completed, grant pending"
// window the sweeper re-drives.
func (r *paymentRepo) ListCompletedWithoutGrant(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + payCols + `
  FROM payments p
 WHERE p.status='completed'
   AND (
         (p.type='credits'
          AND NOT EXISTS (SELECT 1 FROM transactions t WHERE t.source_payment_id = p.id))
      OR (p.type='subscription'
          AND NOT EXISTS (SELECT 1 FROM user_subscriptions s WHERE s.payment_id = p.id))
       )
 ORDER BY p.completed_at ASC
 LIMIT $1;`
	return r.list(ctx, tx, q, limit)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit, offset int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + payCols + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3;`
	return r.list(ctx, tx, q, userID, limit, offset)
}

func (r *paymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='completed' AND completed_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func (r *paymentRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
