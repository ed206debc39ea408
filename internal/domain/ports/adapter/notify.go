package adapter

import "context"

// Notifier is the narrow notification capability handed to the payment use
// cases. Implementations must be safe to call concurrently; callers treat
// every method as best-effort and never let a failure affect payment state.
type Notifier interface {
	// PaymentSucceeded tells the user their payment went through and the
	// subscription now runs until subscriptionEnd (RFC 3339 date).
	PaymentSucceeded(ctx context.Context, telegramID int64, planName, subscriptionEnd string) error
	// SubscriptionExpiring warns the user their window ends in daysLeft days.
	SubscriptionExpiring(ctx context.Context, telegramID int64, daysLeft int) error
	// SubscriptionExpired tells the user they were removed from the channel.
	SubscriptionExpired(ctx context.Context, telegramID int64) error
}

// ChannelGate controls membership of the paid channel.
type ChannelGate interface {
	// Readmit lifts any ban so a returning subscriber can rejoin.
	Readmit(ctx context.Context, telegramID int64) error
	// Remove kicks a lapsed subscriber out without a permanent ban.
	Remove(ctx context.Context, telegramID int64) error
}
