package telegram

import (
	"context"
	"log"

	"telegram-subscription-payments/internal/domain/ports/adapter"
)

var (
	_ adapter.Notifier    = (*NoopBotAdapter)(nil)
	_ adapter.ChannelGate = (*NoopBotAdapter)(nil)
)

// NoopBotAdapter implements the notification and channel ports for local/dev
// testing. It logs instead of talking to Telegram.
type NoopBotAdapter struct{}

func NewNoopBotAdapter() *NoopBotAdapter {
	return &NoopBotAdapter{}
}

func (b *NoopBotAdapter) PaymentSucceeded(ctx context.Context, tgID int64, planName, subscriptionEnd string) error {
	log.Printf("[noop-telegram] To user %d: payment succeeded, plan %s until %s\n", tgID, planName, subscriptionEnd)
	return nil
}

func (b *NoopBotAdapter) SubscriptionExpiring(ctx context.Context, tgID int64, daysLeft int) error {
	log.Printf("[noop-telegram] To user %d: subscription expires in %d day(s)\n", tgID, daysLeft)
	return nil
}

func (b *NoopBotAdapter) SubscriptionExpired(ctx context.Context, tgID int64) error {
	log.Printf("[noop-telegram] To user %d: subscription expired\n", tgID)
	return nil
}

func (b *NoopBotAdapter) Readmit(ctx context.Context, tgID int64) error {
	log.Printf("[noop-telegram] Readmit user %d\n", tgID)
	return nil
}

func (b *NoopBotAdapter) Remove(ctx context.Context, tgID int64) error {
	log.Printf("[noop-telegram] Remove user %d\n", tgID)
	return nil
}
