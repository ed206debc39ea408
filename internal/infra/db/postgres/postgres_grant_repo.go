package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"
)

var _ repository.GrantRepository = (*grantRepo)(nil)

// grantRepo persists the extension audit trail. The unique index on
// transaction_id is the exactly-once guard for subscription extension.
type grantRepo struct{ pool *pgxpool.Pool }

func NewGrantRepo(pool *pgxpool.Pool) *grantRepo {
	return &grantRepo{pool: pool}
}

func (r *grantRepo) Insert(ctx context.Context, qx any, g *model.Grant) error {
	const q = `
INSERT INTO subscription_grants (id, user_id, plan_id, transaction_id, created_at)
VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, qx, q, g.ID, g.UserID, g.PlanID, g.TransactionID, g.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyGranted
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *grantRepo) ListByUser(ctx context.Context, qx any, userID string) ([]*model.Grant, error) {
	const q = `SELECT id, user_id, plan_id, transaction_id, created_at FROM subscription_grants WHERE user_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, qx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Grant
	for rows.Next() {
		g := new(model.Grant)
		if err := rows.Scan(&g.ID, &g.UserID, &g.PlanID, &g.TransactionID, &g.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, g)
	}
	return out, nil
}
