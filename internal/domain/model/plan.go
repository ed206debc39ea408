package model

import (
	"time"

	"telegram-subscription-payments/internal/domain"
)

// Plan is a purchasable subscription plan with a fixed duration and a price
// in so'm. Plans are immutable after creation except through the admin API.
type Plan struct {
	ID           string
	Name         string
	DurationDays int
	Price        Amount // UnitSom
	CreatedAt    time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// Duration returns the subscription window this plan grants.
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, durationDays int, priceSom int64) (*Plan, error) {
	if id == "" || name == "" || durationDays <= 0 || priceSom <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:           id,
		Name:         name,
		DurationDays: durationDays,
		Price:        NewAmount(priceSom, UnitSom),
		CreatedAt:    time.Now(),
	}, nil
}
