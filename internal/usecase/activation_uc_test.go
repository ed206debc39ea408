//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/usecase"
)

type activationDeps struct {
	users  *MockUserRepo
	plans  *MockPlanRepo
	grants *MockGrantRepo
	tm     *MockTxManager
}

func newActivationDeps() *activationDeps {
	return &activationDeps{
		users:  NewMockUserRepo(),
		plans:  NewMockPlanRepo(),
		grants: NewMockGrantRepo(),
		tm:     NewMockTxManager(),
	}
}

func (d *activationDeps) activator() usecase.SubscriptionActivator {
	return usecase.NewSubscriptionActivator(d.users, d.plans, d.grants, d.tm, newTestLogger())
}

func TestSubscriptionActivator_Activate(t *testing.T) {
	ctx := context.Background()
	plan, _ := model.NewPlan("plan-1", "Basic", 30, 7777)

	t.Run("starts a fresh window for a user without one", func(t *testing.T) {
		deps := newActivationDeps()
		deps.plans.Save(ctx, plan)
		deps.users.Save(ctx, nil, &model.User{ID: "user-1", TelegramID: 11})

		before := time.Now()
		res, err := deps.activator().Activate(ctx, "user-1", "plan-1", "txn-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		wantMin := before.Add(30 * 24 * time.Hour)
		if res.SubscriptionEnd.Before(wantMin) {
			t.Errorf("subscription end %v is before expected minimum %v", res.SubscriptionEnd, wantMin)
		}
		u := deps.users.Get("user-1")
		if !u.IsActive {
			t.Error("expected user to be active")
		}
		if u.SubscriptionStart == nil || u.SubscriptionEnd == nil {
			t.Fatal("expected window to be set")
		}
	})

	t.Run("early renewal adds the duration onto the future end date", func(t *testing.T) {
		deps := newActivationDeps()
		deps.plans.Save(ctx, plan)

		start := time.Now().Add(-20 * 24 * time.Hour)
		end := time.Now().Add(10 * 24 * time.Hour)
		deps.users.Save(ctx, nil, &model.User{
			ID: "user-1", TelegramID: 11,
			SubscriptionStart: &start, SubscriptionEnd: &end,
			IsActive: true,
		})

		res, err := deps.activator().Activate(ctx, "user-1", "plan-1", "txn-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		want := end.Add(30 * 24 * time.Hour)
		if !res.SubscriptionEnd.Equal(want) {
			t.Errorf("expected end %v, got %v", want, res.SubscriptionEnd)
		}
		u := deps.users.Get("user-1")
		if !u.SubscriptionStart.Equal(start) {
			t.Errorf("expected start date preserved, got %v", u.SubscriptionStart)
		}
	})

	t.Run("replaying the same transaction extends nothing", func(t *testing.T) {
		deps := newActivationDeps()
		deps.plans.Save(ctx, plan)
		deps.users.Save(ctx, nil, &model.User{ID: "user-1", TelegramID: 11})

		act := deps.activator()
		first, err := act.Activate(ctx, "user-1", "plan-1", "txn-1")
		if err != nil {
			t.Fatalf("first activation failed: %v", err)
		}

		second, err := act.Activate(ctx, "user-1", "plan-1", "txn-1")
		if err != nil {
			t.Fatalf("replay failed: %v", err)
		}
		if !second.AlreadyGranted {
			t.Error("expected replay to be flagged AlreadyGranted")
		}
		if !second.SubscriptionEnd.Equal(first.SubscriptionEnd) {
			t.Errorf("replay moved the window: %v -> %v", first.SubscriptionEnd, second.SubscriptionEnd)
		}
	})

	t.Run("distinct transactions stack their durations", func(t *testing.T) {
		deps := newActivationDeps()
		deps.plans.Save(ctx, plan)
		deps.users.Save(ctx, nil, &model.User{ID: "user-1", TelegramID: 11})

		act := deps.activator()
		first, err := act.Activate(ctx, "user-1", "plan-1", "txn-1")
		if err != nil {
			t.Fatalf("first activation failed: %v", err)
		}
		second, err := act.Activate(ctx, "user-1", "plan-1", "txn-2")
		if err != nil {
			t.Fatalf("second activation failed: %v", err)
		}

		want := first.SubscriptionEnd.Add(30 * 24 * time.Hour)
		if !second.SubscriptionEnd.Equal(want) {
			t.Errorf("expected stacked end %v, got %v", want, second.SubscriptionEnd)
		}
	})

	t.Run("reports and clears the kicked-out flag", func(t *testing.T) {
		deps := newActivationDeps()
		deps.plans.Save(ctx, plan)

		end := time.Now().Add(-5 * 24 * time.Hour)
		deps.users.Save(ctx, nil, &model.User{
			ID: "user-1", TelegramID: 11,
			SubscriptionEnd: &end,
			IsKickedOut:     true,
		})

		res, err := deps.activator().Activate(ctx, "user-1", "plan-1", "txn-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !res.WasKickedOut {
			t.Error("expected WasKickedOut to be reported")
		}
		u := deps.users.Get("user-1")
		if u.IsKickedOut {
			t.Error("expected kicked-out flag to be cleared")
		}
		if !u.IsActive {
			t.Error("expected user to be active again")
		}
	})

	t.Run("rejects empty identifiers", func(t *testing.T) {
		deps := newActivationDeps()
		if _, err := deps.activator().Activate(ctx, "", "plan-1", "txn-1"); err == nil {
			t.Error("expected error for empty user id")
		}
		if _, err := deps.activator().Activate(ctx, "user-1", "plan-1", ""); err == nil {
			t.Error("expected error for empty transaction id")
		}
	})
}
