package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, telegram_id, username, subscription_start, subscription_end, is_active, is_kicked_out, registered_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Username,
		&u.SubscriptionStart, &u.SubscriptionEnd,
		&u.IsActive, &u.IsKickedOut, &u.RegisteredAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}

func (r *userRepo) Save(ctx context.Context, qx any, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, username, subscription_start, subscription_end, is_active, is_kicked_out, registered_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
) ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, username=$3, subscription_start=$4, subscription_end=$5, is_active=$6, is_kicked_out=$7;`
	_, err := execSQL(ctx, r.pool, qx, q,
		u.ID, u.TelegramID, u.Username,
		u.SubscriptionStart, u.SubscriptionEnd,
		u.IsActive, u.IsKickedOut, u.RegisteredAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, qx any, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	if _, ok := qx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, qx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByTelegramID(ctx context.Context, qx any, tgID int64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE telegram_id=$1;`
	row, err := pickRow(ctx, r.pool, qx, q, tgID)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) ListExpiringBetween(ctx context.Context, qx any, from, to time.Time) ([]*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE is_active=true AND subscription_end BETWEEN $1 AND $2 ORDER BY subscription_end ASC;`
	return r.list(ctx, qx, q, from, to)
}

func (r *userRepo) ListLapsed(ctx context.Context, qx any, asOf time.Time) ([]*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE is_active=true AND is_kicked_out=false AND subscription_end < $1 ORDER BY subscription_end ASC;`
	return r.list(ctx, qx, q, asOf)
}

// MarkKickedOut flips an active user to inactive/kicked. The status guard
// keeps two overlapping sweeps from kicking the same user twice.
func (r *userRepo) MarkKickedOut(ctx context.Context, qx any, id string) (bool, error) {
	const q = `
UPDATE users
   SET is_active = false,
       is_kicked_out = true
 WHERE id = $1
   AND is_active = true
   AND is_kicked_out = false;`
	cmd, err := execSQL(ctx, r.pool, qx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *userRepo) list(ctx context.Context, qx any, q string, args ...interface{}) ([]*model.User, error) {
	rows, err := queryRows(ctx, r.pool, qx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
