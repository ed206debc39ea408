package postgres

import (
	"context"
	"fmt"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

func (r *PostgresPlanRepo) Save(ctx context.Context, plan *model.Plan) error {
	const sql = `
INSERT INTO subscription_plans (id, name, duration_days, price_som, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
  SET name          = EXCLUDED.name,
      duration_days = EXCLUDED.duration_days,
      price_som     = EXCLUDED.price_som;
`
	_, err := r.pool.Exec(ctx, sql,
		plan.ID, plan.Name, plan.DurationDays, plan.Price.Value, plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Save plan: %w", err)
	}
	return nil
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	const sql = `
SELECT id, name, duration_days, price_som, created_at
  FROM subscription_plans
 WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, sql, id)
	var p model.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.DurationDays, &p.Price.Value, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID plan: %w", err)
	}
	p.Price.Unit = model.UnitSom
	return &p, nil
}

func (r *PostgresPlanRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	const sql = `
SELECT id, name, duration_days, price_som, created_at
  FROM subscription_plans
 ORDER BY price_som ASC;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("ListAll plans: %w", err)
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.DurationDays, &p.Price.Value, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Price.Unit = model.UnitSom
		out = append(out, &p)
	}
	return out, nil
}

func (r *PostgresPlanRepo) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM subscription_plans WHERE id = $1;`
	ct, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("Delete plan: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
