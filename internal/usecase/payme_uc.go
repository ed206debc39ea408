// File: internal/usecase/payme_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/adapter"
	"telegram-subscription-payments/internal/domain/ports/repository"
	"telegram-subscription-payments/internal/gateway/payme"
	"telegram-subscription-payments/internal/infra/metrics"
)

// PendingExpiry is how long a pending transaction stays payable. Fixed by
// the Payme merchant specification at 720 minutes, evaluated at call time.
const PendingExpiry = 720 * time.Minute

// Compile-time check
var _ PaymeUseCase = (*paymeUC)(nil)

// PaymeUseCase is the Gateway A transaction state machine. Handle dispatches
// on the method discriminator and always returns a response carrying exactly
// one of result or error.
type PaymeUseCase interface {
	Handle(ctx context.Context, req *payme.Request) *payme.Response
}

type paymeUC struct {
	txns      repository.TransactionRepository
	plans     repository.PlanRepository
	users     repository.UserRepository
	activator SubscriptionActivator
	notifier  adapter.Notifier
	gate      adapter.ChannelGate
	log       *zerolog.Logger
	now       func() time.Time
}

func NewPaymeUseCase(
	txns repository.TransactionRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	activator SubscriptionActivator,
	notifier adapter.Notifier,
	gate adapter.ChannelGate,
	logger *zerolog.Logger,
) *paymeUC {
	l := logger.With().Str("component", "PaymeUseCase").Logger()
	return &paymeUC{
		txns:      txns,
		plans:     plans,
		users:     users,
		activator: activator,
		notifier:  notifier,
		gate:      gate,
		log:       &l,
		now:       time.Now,
	}
}

func (uc *paymeUC) Handle(ctx context.Context, req *payme.Request) *payme.Response {
	var (
		result any
		perr   *payme.Error
	)
	switch req.Method {
	case payme.MethodCheckPerformTransaction:
		result, perr = uc.checkPerform(ctx, req.Params)
	case payme.MethodCreateTransaction:
		result, perr = uc.create(ctx, req.Params)
	case payme.MethodPerformTransaction:
		result, perr = uc.perform(ctx, req.Params)
	case payme.MethodCancelTransaction:
		result, perr = uc.cancel(ctx, req.Params)
	case payme.MethodCheckTransaction:
		result, perr = uc.check(ctx, req.Params)
	case payme.MethodGetStatement:
		result, perr = uc.statement(ctx, req.Params)
	default:
		perr = payme.ErrMethodNotFound
	}

	outcome := "ok"
	if perr != nil {
		outcome = "error"
	}
	metrics.IncWebhook(string(model.ProviderPayme), string(req.Method), outcome)

	if perr != nil {
		return &payme.Response{ID: req.ID, Error: perr}
	}
	return &payme.Response{ID: req.ID, Result: result}
}

// resolve validates the account identifiers and loads both records.
func (uc *paymeUC) resolve(ctx context.Context, acc payme.Account) (*model.Plan, *model.User, *payme.Error) {
	if _, err := uuid.Parse(acc.PlanID); err != nil {
		return nil, nil, payme.ErrProductNotFound
	}
	if _, err := uuid.Parse(acc.UserID); err != nil {
		return nil, nil, payme.ErrUserNotFound
	}
	plan, err := uc.plans.FindByID(ctx, acc.PlanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, payme.ErrProductNotFound
		}
		return nil, nil, uc.internal(err, "load plan")
	}
	user, err := uc.users.FindByID(ctx, repository.NoTX, acc.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, payme.ErrUserNotFound
		}
		return nil, nil, uc.internal(err, "load user")
	}
	return plan, user, nil
}

// checkPerform is CheckPerformTransaction: pure eligibility validation,
// no mutation.
func (uc *paymeUC) checkPerform(ctx context.Context, p payme.Params) (*payme.CheckPerformResult, *payme.Error) {
	plan, _, perr := uc.resolve(ctx, p.Account)
	if perr != nil {
		return nil, perr
	}
	amount := model.NewAmount(p.Amount, model.UnitTiyin)
	if !amount.Equal(plan.Price) {
		return nil, payme.ErrInvalidAmount
	}
	return &payme.CheckPerformResult{Allow: true}, nil
}

// create is CreateTransaction, idempotent by the gateway-assigned id.
func (uc *paymeUC) create(ctx context.Context, p payme.Params) (*payme.CreateResult, *payme.Error) {
	// Eligibility first: identity and amount problems outrank everything.
	if _, perr := uc.checkPerform(ctx, p); perr != nil {
		return nil, perr
	}

	existing, err := uc.txns.FindByExternalID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, uc.internal(err, "find transaction")
	}
	if existing != nil {
		if existing.Status != model.TransactionStatusPending {
			return nil, payme.ErrCantDoOperation
		}
		if existing.Expired(PendingExpiry, uc.now()) {
			uc.cancelOnTimeout(ctx, existing)
			return nil, payme.TimeoutCancellation()
		}
		return &payme.CreateResult{
			Transaction: existing.ID,
			State:       payme.StatePending,
			CreateTime:  existing.CreatedAt.UnixMilli(),
		}, nil
	}

	// A different open transaction for the same (user, plan) blocks a second
	// concurrent payment attempt for the same subscription.
	open, err := uc.txns.FindByUserPlanStatus(ctx, repository.NoTX, p.Account.UserID, p.Account.PlanID, model.TransactionStatusPending)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, uc.internal(err, "find open transaction")
	}
	if open != nil && open.ExternalID != p.ID {
		return nil, payme.ErrTransactionInProcess
	}

	amount := model.NewAmount(p.Amount, model.UnitTiyin)
	t, err := model.NewTransaction(ulid.Make().String(), model.ProviderPayme, p.ID, p.Account.UserID, p.Account.PlanID, amount, int(payme.StatePending))
	if err != nil {
		return nil, uc.internal(err, "build transaction")
	}
	if err := uc.txns.Create(ctx, repository.NoTX, t); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the race against a duplicate create; serve the winner's row.
			winner, ferr := uc.txns.FindByExternalID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
			if ferr != nil {
				return nil, uc.internal(ferr, "reread transaction")
			}
			return &payme.CreateResult{
				Transaction: winner.ID,
				State:       payme.State(winner.State),
				CreateTime:  winner.CreatedAt.UnixMilli(),
			}, nil
		}
		return nil, uc.internal(err, "insert transaction")
	}

	metrics.IncPayment(string(model.ProviderPayme), "created")
	uc.log.Info().
		Str("external_id", p.ID).
		Str("user_id", p.Account.UserID).
		Str("plan_id", p.Account.PlanID).
		Msg("transaction created")
	return &payme.CreateResult{
		Transaction: t.ID,
		State:       payme.StatePending,
		CreateTime:  t.CreatedAt.UnixMilli(),
	}, nil
}

// perform is PerformTransaction: the only path to the Paid state.
func (uc *paymeUC) perform(ctx context.Context, p payme.Params) (*payme.PerformResult, *payme.Error) {
	t, err := uc.txns.FindByExternalID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, payme.ErrTransactionNotFound
		}
		return nil, uc.internal(err, "find transaction")
	}

	if t.Status == model.TransactionStatusPaid {
		// Idempotent replay: same perform time, no second side effect.
		return &payme.PerformResult{
			Transaction: t.ID,
			State:       payme.State(t.State),
			PerformTime: unixMilliOrZero(t.PerformTime),
		}, nil
	}
	if t.Status != model.TransactionStatusPending {
		return nil, payme.ErrCantDoOperation
	}

	now := uc.now()
	if t.Expired(PendingExpiry, now) {
		uc.cancelOnTimeout(ctx, t)
		return nil, payme.TimeoutCancellation()
	}

	ok, err := uc.txns.MarkPaidIfPending(ctx, repository.NoTX, t.ID, int(payme.StatePaid), now)
	if err != nil {
		return nil, uc.internal(err, "mark paid")
	}
	if !ok {
		// Already transitioned by a concurrent call; serve whatever won.
		return uc.perform(ctx, p)
	}

	metrics.IncPayment(string(model.ProviderPayme), "paid")
	metrics.AddRevenue(string(model.ProviderPayme), t.Amount.InTiyin()/100)
	uc.log.Info().Str("external_id", p.ID).Str("transaction_id", t.ID).Msg("transaction performed")

	// Side effects run after the Paid state is durably committed; their
	// failure never rolls it back.
	uc.settle(ctx, t)

	return &payme.PerformResult{
		Transaction: t.ID,
		State:       payme.StatePaid,
		PerformTime: now.UnixMilli(),
	}, nil
}

// cancel is CancelTransaction. Always succeeds once the transaction is
// reachable; canceling an already-canceled transaction returns the original
// cancellation unchanged.
func (uc *paymeUC) cancel(ctx context.Context, p payme.Params) (*payme.CancelResult, *payme.Error) {
	t, err := uc.txns.FindByExternalID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, payme.ErrTransactionNotFound
		}
		return nil, uc.internal(err, "find transaction")
	}

	reason := payme.ReasonUnknown
	if p.Reason != nil {
		reason = *p.Reason
	}
	now := uc.now()

	var target payme.State
	switch t.Status {
	case model.TransactionStatusPending:
		target = payme.StatePendingCanceled
	case model.TransactionStatusPaid:
		// Refund acknowledgement.
		target = payme.StatePaidCanceled
	default:
		return &payme.CancelResult{
			Transaction: t.ID,
			State:       payme.State(t.State),
			CancelTime:  unixMilliOrZero(t.CancelTime),
		}, nil
	}

	ok, err := uc.txns.CancelIfStatus(ctx, repository.NoTX, t.ID, t.Status, int(target), reason, now)
	if err != nil {
		return nil, uc.internal(err, "cancel transaction")
	}
	if !ok {
		// Another call transitioned it first; return the settled outcome.
		return uc.cancel(ctx, p)
	}

	metrics.IncPayment(string(model.ProviderPayme), "canceled")
	uc.log.Info().
		Str("external_id", p.ID).
		Int("reason", reason).
		Int("state", int(target)).
		Msg("transaction canceled")
	return &payme.CancelResult{
		Transaction: t.ID,
		State:       target,
		CancelTime:  now.UnixMilli(),
	}, nil
}

// check is CheckTransaction: a read-only projection.
func (uc *paymeUC) check(ctx context.Context, p payme.Params) (*payme.CheckResult, *payme.Error) {
	t, err := uc.txns.FindByExternalID(ctx, repository.NoTX, model.ProviderPayme, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, payme.ErrTransactionNotFound
		}
		return nil, uc.internal(err, "find transaction")
	}
	return &payme.CheckResult{
		Transaction: t.ID,
		State:       payme.State(t.State),
		CreateTime:  t.CreatedAt.UnixMilli(),
		PerformTime: unixMilliOrZero(t.PerformTime),
		CancelTime:  unixMilliOrZero(t.CancelTime),
		Reason:      t.Reason,
	}, nil
}

// statement is GetStatement: the provider's transactions in [from, to],
// projected into the reporting shape.
func (uc *paymeUC) statement(ctx context.Context, p payme.Params) (*payme.StatementResult, *payme.Error) {
	from := time.UnixMilli(p.From)
	to := time.UnixMilli(p.To)
	list, err := uc.txns.ListByProviderBetween(ctx, repository.NoTX, model.ProviderPayme, from, to)
	if err != nil {
		return nil, uc.internal(err, "list transactions")
	}
	entries := make([]payme.StatementEntry, 0, len(list))
	for _, t := range list {
		entries = append(entries, payme.StatementEntry{
			ID:          t.ExternalID,
			Time:        t.CreatedAt.UnixMilli(),
			Amount:      t.Amount.Value,
			Account:     payme.Account{PlanID: t.PlanID, UserID: t.UserID},
			CreateTime:  t.CreatedAt.UnixMilli(),
			PerformTime: unixMilliOrZero(t.PerformTime),
			CancelTime:  unixMilliOrZero(t.CancelTime),
			Transaction: t.ID,
			State:       payme.State(t.State),
			Reason:      t.Reason,
		})
	}
	return &payme.StatementResult{Transactions: entries}, nil
}

// cancelOnTimeout expires a pending transaction in place. Losing the
// conditional update means another call already transitioned the row, which
// is just as final.
func (uc *paymeUC) cancelOnTimeout(ctx context.Context, t *model.Transaction) {
	ok, err := uc.txns.CancelIfStatus(ctx, repository.NoTX, t.ID,
		model.TransactionStatusPending, int(payme.StatePendingCanceled), payme.ReasonTimeout, uc.now())
	if err != nil {
		uc.log.Error().Err(err).Str("transaction_id", t.ID).Msg("timeout cancel failed")
		return
	}
	if ok {
		metrics.IncPayment(string(model.ProviderPayme), "expired")
		uc.log.Info().Str("transaction_id", t.ID).Msg("pending transaction expired")
	}
}

// settle runs the post-payment side effects: subscription extension, channel
// re-admission, user notification. All best-effort.
func (uc *paymeUC) settle(ctx context.Context, t *model.Transaction) {
	res, err := uc.activator.Activate(ctx, t.UserID, t.PlanID, t.ID)
	if err != nil {
		uc.log.Error().Err(err).Str("transaction_id", t.ID).Msg("subscription activation failed")
		return
	}

	user, err := uc.users.FindByID(ctx, repository.NoTX, t.UserID)
	if err != nil {
		uc.log.Error().Err(err).Str("user_id", t.UserID).Msg("notify: load user failed")
		return
	}
	if res.WasKickedOut {
		if err := uc.gate.Readmit(ctx, user.TelegramID); err != nil {
			uc.log.Error().Err(err).Int64("tg_id", user.TelegramID).Msg("channel readmit failed")
		}
	}
	planName := t.PlanID
	if plan, err := uc.plans.FindByID(ctx, t.PlanID); err == nil {
		planName = plan.Name
	}
	if err := uc.notifier.PaymentSucceeded(ctx, user.TelegramID, planName, res.SubscriptionEnd.Format("2006-01-02")); err != nil {
		uc.log.Error().Err(err).Int64("tg_id", user.TelegramID).Msg("payment notification failed")
	}
}

func (uc *paymeUC) internal(err error, op string) *payme.Error {
	uc.log.Error().Err(err).Str("op", op).Msg("internal error")
	return payme.ErrInternal
}

func unixMilliOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
