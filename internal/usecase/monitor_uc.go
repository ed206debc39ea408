// File: internal/usecase/monitor_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/adapter"
	"telegram-subscription-payments/internal/domain/ports/repository"
	"telegram-subscription-payments/internal/gateway/payme"
	red "telegram-subscription-payments/internal/infra/redis"
	"telegram-subscription-payments/internal/infra/metrics"
)

// SubscriptionMonitor is the periodic sweep behind the scheduler: warns users
// whose window is about to end, removes users whose window has ended, and
// cancels pending transactions that outlived the payment window.
type SubscriptionMonitor interface {
	WarnExpiring(ctx context.Context) (int, error)
	ProcessLapsed(ctx context.Context) (int, error)
	CancelStalePending(ctx context.Context) (int, error)
}

var _ SubscriptionMonitor = (*monitorUC)(nil)

type monitorUC struct {
	users    repository.UserRepository
	txns     repository.TransactionRepository
	notifier adapter.Notifier
	gate     adapter.ChannelGate
	dedup    red.RedisClient
	warnDays int
	log      *zerolog.Logger
	now      func() time.Time
}

func NewSubscriptionMonitor(
	users repository.UserRepository,
	txns repository.TransactionRepository,
	notifier adapter.Notifier,
	gate adapter.ChannelGate,
	dedup red.RedisClient,
	warnDays int,
	logger *zerolog.Logger,
) *monitorUC {
	if warnDays <= 0 {
		warnDays = 3
	}
	l := logger.With().Str("component", "SubscriptionMonitor").Logger()
	return &monitorUC{
		users:    users,
		txns:     txns,
		notifier: notifier,
		gate:     gate,
		dedup:    dedup,
		warnDays: warnDays,
		log:      &l,
		now:      time.Now,
	}
}

// WarnExpiring notifies users whose window ends within the warning horizon.
// A Redis key caps it at one warning per user per day.
func (uc *monitorUC) WarnExpiring(ctx context.Context) (int, error) {
	now := uc.now()
	horizon := now.Add(time.Duration(uc.warnDays) * 24 * time.Hour)
	users, err := uc.users.ListExpiringBetween(ctx, repository.NoTX, now, horizon)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		key := fmt.Sprintf("expiry_warned:%s:%s", u.ID, now.Format("2006-01-02"))
		if _, err := uc.dedup.Get(ctx, key); err == nil {
			continue // already warned today
		}

		daysLeft := int(u.SubscriptionEnd.Sub(now).Hours()/24) + 1
		if err := uc.notifier.SubscriptionExpiring(ctx, u.TelegramID, daysLeft); err != nil {
			uc.log.Error().Err(err).Int64("tg_id", u.TelegramID).Msg("expiry warning failed")
			continue
		}
		if err := uc.dedup.Set(ctx, key, "1", 24*time.Hour); err != nil {
			uc.log.Warn().Err(err).Msg("warning dedup key not stored")
		}
		sent++
	}
	if sent > 0 {
		metrics.IncSubscriptionsWarned(sent)
	}
	return sent, nil
}

// ProcessLapsed removes users whose window has ended. MarkKickedOut is the
// conditional gate: when two sweeps overlap only the one that flipped the row
// performs the removal.
func (uc *monitorUC) ProcessLapsed(ctx context.Context) (int, error) {
	lapsed, err := uc.users.ListLapsed(ctx, repository.NoTX, uc.now())
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, u := range lapsed {
		ok, err := uc.users.MarkKickedOut(ctx, repository.NoTX, u.ID)
		if err != nil {
			uc.log.Error().Err(err).Str("user_id", u.ID).Msg("mark kicked out failed")
			continue
		}
		if !ok {
			continue
		}

		if err := uc.gate.Remove(ctx, u.TelegramID); err != nil {
			uc.log.Error().Err(err).Int64("tg_id", u.TelegramID).Msg("channel removal failed")
		}
		if err := uc.notifier.SubscriptionExpired(ctx, u.TelegramID); err != nil {
			uc.log.Error().Err(err).Int64("tg_id", u.TelegramID).Msg("expiry notification failed")
		}
		uc.log.Info().Str("user_id", u.ID).Int64("tg_id", u.TelegramID).Msg("lapsed subscriber removed")
		processed++
	}
	if processed > 0 {
		metrics.IncSubscriptionsExpired(processed)
	}
	return processed, nil
}

// CancelStalePending expires pending transactions older than the payment
// window so they don't wait for the gateway to touch them again. The gateways
// also expire on touch; losing the conditional update here just means a
// webhook got there first.
func (uc *monitorUC) CancelStalePending(ctx context.Context) (int, error) {
	cutoff := uc.now().Add(-PendingExpiry)
	stale, err := uc.txns.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		return 0, err
	}

	canceled := 0
	for _, t := range stale {
		ok, err := uc.txns.CancelIfStatus(ctx, repository.NoTX, t.ID,
			model.TransactionStatusPending, int(payme.StatePendingCanceled), payme.ReasonTimeout, uc.now())
		if err != nil {
			uc.log.Error().Err(err).Str("transaction_id", t.ID).Msg("stale cancel failed")
			continue
		}
		if ok {
			metrics.IncPayment(string(t.Provider), "expired")
			canceled++
		}
	}
	if canceled > 0 {
		uc.log.Info().Int("count", canceled).Msg("stale pending transactions canceled")
	}
	return canceled, nil
}
