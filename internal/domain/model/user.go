package model

import (
	"time"

	"telegram-subscription-payments/internal/domain"

	"github.com/google/uuid"
)

// User is a channel subscriber. The subscription window
// [SubscriptionStart, SubscriptionEnd] is mutated only by the subscription
// activator (on payment) and the expiry sweep (on lapse).
type User struct {
	ID                string
	TelegramID        int64
	Username          string
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	IsActive          bool
	IsKickedOut       bool
	RegisteredAt      time.Time
}

func NewUser(id string, tgID int64, username string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		TelegramID:   tgID,
		Username:     username,
		RegisteredAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// WindowEndsAfter reports whether the user's subscription window still
// reaches past t. An inactive user with a future end date still counts: early
// renewal must never shorten access.
func (u *User) WindowEndsAfter(t time.Time) bool {
	return u.SubscriptionEnd != nil && u.SubscriptionEnd.After(t)
}
