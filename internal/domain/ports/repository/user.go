package repository

import (
	"context"
	"time"

	"telegram-subscription-payments/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	// Save persists a new or existing user (upsert by id).
	Save(ctx context.Context, qx any, u *model.User) error
	// FindByID returns domain.ErrNotFound if missing. When qx carries a tx
	// handle the row is locked FOR UPDATE.
	FindByID(ctx context.Context, qx any, id string) (*model.User, error)
	FindByTelegramID(ctx context.Context, qx any, tgID int64) (*model.User, error)

	// ListExpiringBetween returns active users whose window ends within
	// [from, to] — input for expiry warnings.
	ListExpiringBetween(ctx context.Context, qx any, from, to time.Time) ([]*model.User, error)

	// ListLapsed returns active, not-yet-kicked users whose window ended
	// before asOf.
	ListLapsed(ctx context.Context, qx any, asOf time.Time) ([]*model.User, error)

	// MarkKickedOut atomically flips an active user to inactive/kicked.
	// Returns false when another sweep already did it.
	MarkKickedOut(ctx context.Context, qx any, id string) (bool, error)
}
