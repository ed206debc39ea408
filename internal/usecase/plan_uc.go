// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"
)

// PlanUseCase manages the subscription plan catalog behind the admin API.
type PlanUseCase struct {
	plans repository.PlanRepository
	txns  repository.TransactionRepository
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, txns repository.TransactionRepository, logger *zerolog.Logger) *PlanUseCase {
	l := logger.With().Str("component", "PlanUseCase").Logger()
	return &PlanUseCase{plans: plans, txns: txns, log: &l}
}

// Create validates and saves a new plan.
func (uc *PlanUseCase) Create(ctx context.Context, name string, durationDays int, priceSom int64) (*model.Plan, error) {
	plan, err := model.NewPlan(uuid.NewString(), name, durationDays, priceSom)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan_id", plan.ID).Str("name", name).Msg("plan created")
	return plan, nil
}

// Update overwrites an existing plan's fields. Price changes only affect
// transactions created afterwards; open transactions keep the amount they
// were created with.
func (uc *PlanUseCase) Update(ctx context.Context, id, name string, durationDays int, priceSom int64) (*model.Plan, error) {
	existing, err := uc.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := model.NewPlan(existing.ID, name, durationDays, priceSom)
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = existing.CreatedAt
	if err := uc.plans.Save(ctx, updated); err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan_id", id).Msg("plan updated")
	return updated, nil
}

// Get retrieves a plan by ID.
func (uc *PlanUseCase) Get(ctx context.Context, id string) (*model.Plan, error) {
	return uc.plans.FindByID(ctx, id)
}

// List returns all plans.
func (uc *PlanUseCase) List(ctx context.Context) ([]*model.Plan, error) {
	return uc.plans.ListAll(ctx)
}

// Delete removes a plan unless open transactions still reference it.
func (uc *PlanUseCase) Delete(ctx context.Context, id string) error {
	pending, err := uc.txns.CountPendingByPlan(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if pending > 0 {
		return fmt.Errorf("%w: %d pending transactions reference plan %s", domain.ErrOperationFailed, pending, id)
	}
	if err := uc.plans.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("plan_id", id).Msg("plan deleted")
	return nil
}
