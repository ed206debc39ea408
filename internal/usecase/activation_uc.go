// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"
	"telegram-subscription-payments/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionActivator = (*activationUC)(nil)

// ActivationResult reports what the activator did for one paid transaction.
type ActivationResult struct {
	SubscriptionEnd time.Time
	WasKickedOut    bool
	// AlreadyGranted is true when this transaction id had extended the window
	// before (retry after a crash between ledger commit and user update).
	AlreadyGranted bool
}

// SubscriptionActivator applies the single financial side effect of the
// payment protocols: extending a user's subscription window exactly once per
// paid transaction.
type SubscriptionActivator interface {
	Activate(ctx context.Context, userID, planID, transactionID string) (*ActivationResult, error)
}

type activationUC struct {
	users  repository.UserRepository
	plans  repository.PlanRepository
	grants repository.GrantRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
	now    func() time.Time
}

func NewSubscriptionActivator(
	users repository.UserRepository,
	plans repository.PlanRepository,
	grants repository.GrantRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *activationUC {
	l := logger.With().Str("component", "SubscriptionActivator").Logger()
	return &activationUC{
		users:  users,
		plans:  plans,
		grants: grants,
		tm:     tm,
		log:    &l,
		now:    time.Now,
	}
}

// Activate extends the user's window by the plan's duration. If the previous
// window still reaches into the future the duration is added to its end date;
// early renewal never shortens access. Idempotency is re-derived inside the
// transaction: the grant row for this transaction id carries a unique index,
// so a replay inserts nothing and extends nothing.
func (uc *activationUC) Activate(ctx context.Context, userID, planID, transactionID string) (*ActivationResult, error) {
	if userID == "" || planID == "" || transactionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	plan, err := uc.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	res := &ActivationResult{}
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// FOR UPDATE: serializes against the expiry sweep touching the same row.
		user, err := uc.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}

		grant := &model.Grant{
			ID:            ulid.Make().String(),
			UserID:        userID,
			PlanID:        planID,
			TransactionID: transactionID,
			CreatedAt:     uc.now(),
		}
		if err := uc.grants.Insert(ctx, tx, grant); err != nil {
			if errors.Is(err, domain.ErrAlreadyGranted) {
				res.AlreadyGranted = true
				if user.SubscriptionEnd != nil {
					res.SubscriptionEnd = *user.SubscriptionEnd
				}
				return nil
			}
			return err
		}

		now := uc.now()
		var start, end time.Time
		if user.WindowEndsAfter(now) {
			start = now
			if user.SubscriptionStart != nil {
				start = *user.SubscriptionStart
			}
			end = user.SubscriptionEnd.Add(plan.Duration())
		} else {
			start = now
			end = now.Add(plan.Duration())
		}

		res.WasKickedOut = user.IsKickedOut
		res.SubscriptionEnd = end

		user.SubscriptionStart = &start
		user.SubscriptionEnd = &end
		user.IsActive = true
		user.IsKickedOut = false
		return uc.users.Save(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyGranted {
		uc.log.Debug().
			Str("user_id", userID).
			Str("transaction_id", transactionID).
			Msg("activation replayed, window unchanged")
		return res, nil
	}

	metrics.IncSubscriptionsExtended()
	uc.log.Info().
		Str("user_id", userID).
		Str("plan_id", planID).
		Str("transaction_id", transactionID).
		Time("subscription_end", res.SubscriptionEnd).
		Msg("subscription extended")
	return res, nil
}
