//go:build !integration

package checkout_test

import (
	"net/url"
	"testing"

	"telegram-subscription-payments/internal/checkout"
	"telegram-subscription-payments/internal/config"
	"telegram-subscription-payments/internal/domain/model"
)

func testBuilder(t *testing.T) (*checkout.LinkBuilder, *model.Plan) {
	t.Helper()
	b := checkout.NewLinkBuilder(
		config.PaymeConfig{MerchantID: "merch-1"},
		config.ClickConfig{ServiceID: 32045, MerchantID: "11890"},
	)
	plan, err := model.NewPlan("plan-1", "Basic", 30, 7777)
	if err != nil {
		t.Fatalf("new plan: %v", err)
	}
	return b, plan
}

func TestPaymeLink(t *testing.T) {
	b, plan := testBuilder(t)

	// base64("m=merch-1;ac.plan_id=plan-1;ac.user_id=user-1;a=777700")
	want := "https://checkout.paycom.uz/bT1tZXJjaC0xO2FjLnBsYW5faWQ9cGxhbi0xO2FjLnVzZXJfaWQ9dXNlci0xO2E9Nzc3NzAw"
	if got := b.PaymeLink(plan, "user-1"); got != want {
		t.Errorf("payme link = %s, want %s", got, want)
	}
}

func TestClickLink(t *testing.T) {
	b, plan := testBuilder(t)

	link := b.ClickLink(plan, "user-1")
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if u.Host != "my.click.uz" || u.Path != "/services/pay" {
		t.Errorf("unexpected endpoint %s%s", u.Host, u.Path)
	}

	q := u.Query()
	for key, want := range map[string]string{
		"service_id":        "32045",
		"merchant_id":       "11890",
		"amount":            "7777", // som, not tiyin
		"transaction_param": "plan-1",
		"additional_param3": "user-1",
	} {
		if got := q.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}
