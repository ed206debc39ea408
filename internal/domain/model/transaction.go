package model

import (
	"time"

	"telegram-subscription-payments/internal/domain"
)

type Provider string

const (
	ProviderPayme Provider = "payme"
	ProviderClick Provider = "click"
	ProviderUzum  Provider = "uzum"
)

// TransactionStatus is the coarse transaction lifecycle shared by all
// providers. The finer-grained protocol state lives in Transaction.State.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusCreated  TransactionStatus = "CREATED"
	TransactionStatusPaid     TransactionStatus = "PAID"
	TransactionStatusCanceled TransactionStatus = "CANCELED"
)

// Transaction is one attempt by one gateway to move funds for a
// (user, plan) pair. Rows are append-only: transitions mutate status/state
// and stamp timestamps but a transaction is never deleted.
type Transaction struct {
	ID         string // ULID
	Provider   Provider
	ExternalID string // gateway-assigned id, unique per provider
	UserID     string
	PlanID     string
	Amount     Amount // in the gateway's native unit
	Status     TransactionStatus
	State      int    // gateway protocol state code
	PrepareID  *int64 // Click only: locally minted prepare token
	Reason     *int   // cancellation reason code
	PerformTime *time.Time
	CancelTime  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Transaction) IsZero() bool { return t == nil || t.ID == "" }

// Expired reports whether a still-pending transaction has outlived the
// given window as of now.
func (t *Transaction) Expired(window time.Duration, now time.Time) bool {
	return t.Status == TransactionStatusPending && now.Sub(t.CreatedAt) > window
}

// NewTransaction constructs a pending transaction.
func NewTransaction(id string, provider Provider, externalID, userID, planID string, amount Amount, state int) (*Transaction, error) {
	if id == "" || provider == "" || userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Transaction{
		ID:         id,
		Provider:   provider,
		ExternalID: externalID,
		UserID:     userID,
		PlanID:     planID,
		Amount:     amount,
		Status:     TransactionStatusPending,
		State:      state,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Grant is the audit trail row recording that a paid transaction extended a
// user's subscription. The unique index on TransactionID is what makes the
// subscription extension exactly-once under retries.
type Grant struct {
	ID            string
	UserID        string
	PlanID        string
	TransactionID string
	CreatedAt     time.Time
}
