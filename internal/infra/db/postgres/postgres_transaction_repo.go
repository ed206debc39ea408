package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

// transactionRepo persists the payment ledger. Uniqueness of
// (provider, external_id) and the partial unique index on open (user_id,
// plan_id) pairs are enforced by the schema; conflicts surface as
// domain.ErrAlreadyExists.
type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const txnColumns = `id, provider, external_id, user_id, plan_id, amount, amount_unit, status, state, prepare_id, reason, perform_time, cancel_time, created_at, updated_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	err := row.Scan(
		&t.ID, &t.Provider, &t.ExternalID, &t.UserID, &t.PlanID,
		&t.Amount.Value, &t.Amount.Unit, &t.Status, &t.State,
		&t.PrepareID, &t.Reason, &t.PerformTime, &t.CancelTime,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *transactionRepo) Create(ctx context.Context, qx any, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (
  id, provider, external_id, user_id, plan_id, amount, amount_unit, status, state, prepare_id, reason, perform_time, cancel_time, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
);`
	_, err := execSQL(ctx, r.pool, qx, q,
		t.ID, t.Provider, t.ExternalID, t.UserID, t.PlanID,
		t.Amount.Value, t.Amount.Unit, t.Status, t.State,
		t.PrepareID, t.Reason, t.PerformTime, t.CancelTime,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByExternalID(ctx context.Context, qx any, provider model.Provider, externalID string) (*model.Transaction, error) {
	q := `SELECT ` + txnColumns + ` FROM transactions WHERE provider=$1 AND external_id=$2`
	if _, ok := qx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, qx, q, provider, externalID)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) FindByPrepareID(ctx context.Context, qx any, provider model.Provider, prepareID int64, userID, planID string) (*model.Transaction, error) {
	const q = `SELECT ` + txnColumns + ` FROM transactions WHERE provider=$1 AND prepare_id=$2 AND user_id=$3 AND plan_id=$4 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, qx, q, provider, prepareID, userID, planID)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) FindByUserPlanStatus(ctx context.Context, qx any, userID, planID string, status model.TransactionStatus) (*model.Transaction, error) {
	const q = `SELECT ` + txnColumns + ` FROM transactions WHERE user_id=$1 AND plan_id=$2 AND status=$3 ORDER BY created_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, qx, q, userID, planID, status)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

// MarkPaidIfPending atomically transitions PENDING -> PAID.
func (r *transactionRepo) MarkPaidIfPending(ctx context.Context, qx any, id string, state int, performTime time.Time) (bool, error) {
	const q = `
UPDATE transactions
   SET status = 'PAID',
       state = $2,
       perform_time = $3,
       updated_at = NOW()
 WHERE id = $1
   AND status = 'PENDING';`
	cmd, err := execSQL(ctx, r.pool, qx, q, id, state, performTime)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// CancelIfStatus atomically transitions the expected status -> CANCELED.
func (r *transactionRepo) CancelIfStatus(ctx context.Context, qx any, id string, expect model.TransactionStatus, state int, reason int, cancelTime time.Time) (bool, error) {
	const q = `
UPDATE transactions
   SET status = 'CANCELED',
       state = $3,
       reason = $4,
       cancel_time = COALESCE(cancel_time, $5),
       updated_at = NOW()
 WHERE id = $1
   AND status = $2;`
	cmd, err := execSQL(ctx, r.pool, qx, q, id, expect, state, reason, cancelTime)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) ListPendingOlderThan(ctx context.Context, qx any, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + txnColumns + ` FROM transactions WHERE status='PENDING' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, qx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *transactionRepo) ListByProviderBetween(ctx context.Context, qx any, provider model.Provider, from, to time.Time) ([]*model.Transaction, error) {
	const q = `SELECT ` + txnColumns + ` FROM transactions WHERE provider=$1 AND created_at BETWEEN $2 AND $3 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, qx, q, provider, from, to)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *transactionRepo) CountPendingByPlan(ctx context.Context, qx any, planID string) (int, error) {
	const q = `SELECT COUNT(*) FROM transactions WHERE plan_id=$1 AND status='PENDING';`
	row, err := pickRow(ctx, r.pool, qx, q, planID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
