package repository

import (
	"context"
	"time"

	"telegram-subscription-payments/internal/domain/model"
)

// -----------------------------
// Transactions (payment ledger)
// -----------------------------

// TransactionRepository persists the payment ledger. All state transitions
// are conditional atomic updates: a transition whose expected prior status no
// longer matches affects zero rows and returns false, never an error — the
// caller re-reads and returns the cached result.
type TransactionRepository interface {
	// Create inserts a new pending transaction. Returns domain.ErrAlreadyExists
	// when the (provider, external_id) pair is already taken.
	Create(ctx context.Context, qx any, t *model.Transaction) error

	FindByExternalID(ctx context.Context, qx any, provider model.Provider, externalID string) (*model.Transaction, error)

	// FindByPrepareID locates the Click transaction minted by a prior prepare
	// call for this (user, plan) pair.
	FindByPrepareID(ctx context.Context, qx any, provider model.Provider, prepareID int64, userID, planID string) (*model.Transaction, error)

	// FindByUserPlanStatus returns the first transaction for the pair in the
	// given status, or domain.ErrNotFound.
	FindByUserPlanStatus(ctx context.Context, qx any, userID, planID string, status model.TransactionStatus) (*model.Transaction, error)

	// MarkPaidIfPending transitions PENDING -> PAID, stamping performTime and
	// the provider state code. Returns false when the row was not pending.
	MarkPaidIfPending(ctx context.Context, qx any, id string, state int, performTime time.Time) (bool, error)

	// CancelIfStatus transitions from the expected status to CANCELED with the
	// given state code and reason, stamping cancelTime first-writer-wins.
	// Returns false when the row was not in the expected status.
	CancelIfStatus(ctx context.Context, qx any, id string, expect model.TransactionStatus, state int, reason int, cancelTime time.Time) (bool, error)

	// ListPendingOlderThan returns pending transactions created before the
	// cutoff, oldest first. Input for the stale-transaction sweep.
	ListPendingOlderThan(ctx context.Context, qx any, olderThan time.Time, limit int) ([]*model.Transaction, error)

	// ListByProviderBetween returns the provider's transactions created within
	// [from, to], ordered by creation time. Used by statement reporting.
	ListByProviderBetween(ctx context.Context, qx any, provider model.Provider, from, to time.Time) ([]*model.Transaction, error)

	// CountPendingByPlan reports open transactions referencing a plan. The
	// admin API refuses to delete such plans.
	CountPendingByPlan(ctx context.Context, qx any, planID string) (int, error)
}

// -----------------------------
// Grants (extension audit trail)
// -----------------------------

type GrantRepository interface {
	// Insert records that a transaction extended a subscription. Returns
	// domain.ErrAlreadyGranted when the transaction id was already recorded.
	Insert(ctx context.Context, qx any, g *model.Grant) error

	ListByUser(ctx context.Context, qx any, userID string) ([]*model.Grant, error)
}
