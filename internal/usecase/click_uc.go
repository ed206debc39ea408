// File: internal/usecase/click_uc.go
package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/adapter"
	"telegram-subscription-payments/internal/domain/ports/repository"
	"telegram-subscription-payments/internal/gateway/click"
	"telegram-subscription-payments/internal/infra/metrics"
)

// Compile-time check
var _ ClickUseCase = (*clickUC)(nil)

// ClickUseCase is the Gateway B two-phase handler. Handle never returns a Go
// error: every outcome, including signature failure, is a coded response.
type ClickUseCase interface {
	Handle(ctx context.Context, req *click.Request) *click.Response
}

type clickUC struct {
	txns      repository.TransactionRepository
	plans     repository.PlanRepository
	users     repository.UserRepository
	activator SubscriptionActivator
	notifier  adapter.Notifier
	gate      adapter.ChannelGate
	verifier  click.SignatureVerifier
	log       *zerolog.Logger
	now       func() time.Time

	// lastPrepare keeps minted prepare ids strictly increasing within the
	// process even when two prepares land in the same millisecond.
	lastPrepare int64
}

func NewClickUseCase(
	txns repository.TransactionRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	activator SubscriptionActivator,
	notifier adapter.Notifier,
	gate adapter.ChannelGate,
	verifier click.SignatureVerifier,
	logger *zerolog.Logger,
) *clickUC {
	l := logger.With().Str("component", "ClickUseCase").Logger()
	return &clickUC{
		txns:      txns,
		plans:     plans,
		users:     users,
		activator: activator,
		notifier:  notifier,
		gate:      gate,
		verifier:  verifier,
		log:       &l,
		now:       time.Now,
	}
}

func (uc *clickUC) Handle(ctx context.Context, req *click.Request) *click.Response {
	var resp *click.Response
	switch req.Action {
	case click.ActionPrepare:
		resp = uc.prepare(ctx, req)
	case click.ActionComplete:
		resp = uc.complete(ctx, req)
	default:
		resp = click.Errf(click.ActionNotFound, "Action not found")
	}

	resp.ClickTransID = req.ClickTransID
	resp.MerchantTransID = req.MerchantTransID

	outcome := "ok"
	if resp.Error != click.Success {
		outcome = "error"
	}
	metrics.IncWebhook(string(model.ProviderClick), strconv.Itoa(int(req.Action)), outcome)
	return resp
}

// resolve checks the merchant-side identifiers common to both phases.
func (uc *clickUC) resolve(ctx context.Context, req *click.Request) (*model.Plan, *model.User, *click.Response) {
	if _, err := uuid.Parse(req.Param2); err != nil {
		return nil, nil, click.Errf(click.UserNotFound, "Invalid userId")
	}
	user, err := uc.users.FindByID(ctx, repository.NoTX, req.Param2)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, click.Errf(click.UserNotFound, "Invalid userId")
		}
		return nil, nil, uc.internal(err, "load user")
	}
	if _, err := uuid.Parse(req.MerchantTransID); err != nil {
		return nil, nil, click.Errf(click.UserNotFound, "Product not found")
	}
	plan, err := uc.plans.FindByID(ctx, req.MerchantTransID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, click.Errf(click.UserNotFound, "Product not found")
		}
		return nil, nil, uc.internal(err, "load plan")
	}
	return plan, user, nil
}

// prepare is action 0: validate, mint a prepare id, open the ledger entry.
func (uc *clickUC) prepare(ctx context.Context, req *click.Request) *click.Response {
	if !uc.verifier.Verify(req) {
		return click.Errf(click.SignFailed, "SIGN CHECK FAILED!")
	}
	plan, user, errResp := uc.resolve(ctx, req)
	if errResp != nil {
		return errResp
	}
	if req.Amount != float64(plan.Price.Value) {
		return click.Errf(click.InvalidAmount, "Incorrect parameter amount")
	}

	// Replays by click_trans_id return the already-minted prepare id; a
	// canceled entry stays dead.
	externalID := strconv.FormatInt(req.ClickTransID, 10)
	existing, err := uc.txns.FindByExternalID(ctx, repository.NoTX, model.ProviderClick, externalID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return uc.internal(err, "find transaction")
	}
	if existing != nil {
		switch existing.Status {
		case model.TransactionStatusCanceled:
			return click.Errf(click.TransactionCanceled, "Transaction canceled")
		case model.TransactionStatusPaid:
			return click.Errf(click.AlreadyPaid, "Already paid")
		default:
			return &click.Response{
				MerchantPrepareID: *existing.PrepareID,
				Error:             click.Success,
				ErrorNote:         "Success",
			}
		}
	}

	// One paid subscription per (user, plan); a second attempt is refused
	// rather than silently stacked.
	paid, err := uc.txns.FindByUserPlanStatus(ctx, repository.NoTX, user.ID, plan.ID, model.TransactionStatusPaid)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return uc.internal(err, "find paid transaction")
	}
	if paid != nil {
		return click.Errf(click.AlreadyPaid, "Already paid")
	}

	prepareID := uc.mintPrepareID()
	t, err := model.NewTransaction(ulid.Make().String(), model.ProviderClick, externalID, user.ID, plan.ID,
		model.NewAmount(plan.Price.Value, model.UnitSom), int(click.ActionPrepare))
	if err != nil {
		return uc.internal(err, "build transaction")
	}
	t.PrepareID = &prepareID

	if err := uc.txns.Create(ctx, repository.NoTX, t); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			winner, ferr := uc.txns.FindByExternalID(ctx, repository.NoTX, model.ProviderClick, externalID)
			if ferr != nil || winner.PrepareID == nil {
				return uc.internal(ferr, "reread transaction")
			}
			return &click.Response{
				MerchantPrepareID: *winner.PrepareID,
				Error:             click.Success,
				ErrorNote:         "Success",
			}
		}
		return uc.internal(err, "insert transaction")
	}

	metrics.IncPayment(string(model.ProviderClick), "created")
	uc.log.Info().
		Int64("click_trans_id", req.ClickTransID).
		Int64("prepare_id", prepareID).
		Str("user_id", user.ID).
		Str("plan_id", plan.ID).
		Msg("transaction prepared")
	return &click.Response{
		MerchantPrepareID: prepareID,
		Error:             click.Success,
		ErrorNote:         "Success",
	}
}

// complete is action 1: settle or cancel the prepared entry.
func (uc *clickUC) complete(ctx context.Context, req *click.Request) *click.Response {
	if !uc.verifier.Verify(req) {
		return click.Errf(click.SignFailed, "SIGN CHECK FAILED!")
	}
	plan, user, errResp := uc.resolve(ctx, req)
	if errResp != nil {
		return errResp
	}

	t, err := uc.txns.FindByPrepareID(ctx, repository.NoTX, model.ProviderClick, req.MerchantPrepareID, user.ID, plan.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return click.Errf(click.TransactionNotFound, "Transaction not found")
		}
		return uc.internal(err, "find transaction")
	}
	if t.Status == model.TransactionStatusPaid {
		return click.Errf(click.AlreadyPaid, "Already paid")
	}
	if t.Status == model.TransactionStatusCanceled {
		return click.Errf(click.TransactionCanceled, "Transaction canceled")
	}
	if req.Amount != float64(t.Amount.Value) {
		return click.Errf(click.InvalidAmount, "Incorrect parameter amount")
	}

	now := uc.now()
	if req.Error < 0 {
		// Click reports its own failure; acknowledge by canceling our side
		// and echoing the code back.
		ok, err := uc.txns.CancelIfStatus(ctx, repository.NoTX, t.ID,
			t.Status, int(click.TransactionCanceled), req.Error, now)
		if err != nil {
			return uc.internal(err, "cancel transaction")
		}
		if ok {
			metrics.IncPayment(string(model.ProviderClick), "canceled")
			uc.log.Info().
				Int64("click_trans_id", req.ClickTransID).
				Int("click_error", req.Error).
				Msg("transaction canceled by gateway")
		}
		return click.Errf(click.Error(req.Error), "Transaction canceled")
	}

	ok, err := uc.txns.MarkPaidIfPending(ctx, repository.NoTX, t.ID, int(click.ActionComplete), now)
	if err != nil {
		return uc.internal(err, "mark paid")
	}
	if !ok {
		// Concurrent complete settled it; report the stored outcome.
		return uc.complete(ctx, req)
	}

	metrics.IncPayment(string(model.ProviderClick), "paid")
	metrics.AddRevenue(string(model.ProviderClick), t.Amount.Value)
	uc.log.Info().
		Int64("click_trans_id", req.ClickTransID).
		Str("transaction_id", t.ID).
		Msg("transaction completed")

	uc.settle(ctx, t, plan, user)

	return &click.Response{
		MerchantPrepareID: req.MerchantPrepareID,
		Error:             click.Success,
		ErrorNote:         "Success",
	}
}

// settle runs the post-payment side effects. Best-effort, like the Payme path.
func (uc *clickUC) settle(ctx context.Context, t *model.Transaction, plan *model.Plan, user *model.User) {
	res, err := uc.activator.Activate(ctx, t.UserID, t.PlanID, t.ID)
	if err != nil {
		uc.log.Error().Err(err).Str("transaction_id", t.ID).Msg("subscription activation failed")
		return
	}
	if res.WasKickedOut {
		if err := uc.gate.Readmit(ctx, user.TelegramID); err != nil {
			uc.log.Error().Err(err).Int64("tg_id", user.TelegramID).Msg("channel readmit failed")
		}
	}
	if err := uc.notifier.PaymentSucceeded(ctx, user.TelegramID, plan.Name, res.SubscriptionEnd.Format("2006-01-02")); err != nil {
		uc.log.Error().Err(err).Int64("tg_id", user.TelegramID).Msg("payment notification failed")
	}
}

// mintPrepareID returns the current unix-milli timestamp, bumped past the
// previous mint when the clock hasn't moved.
func (uc *clickUC) mintPrepareID() int64 {
	for {
		prev := atomic.LoadInt64(&uc.lastPrepare)
		next := uc.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if atomic.CompareAndSwapInt64(&uc.lastPrepare, prev, next) {
			return next
		}
	}
}

func (uc *clickUC) internal(err error, op string) *click.Response {
	uc.log.Error().Err(err).Str("op", op).Msg("internal error")
	return click.Errf(click.BadRequest, "Internal error")
}
