//go:build !integration

package security_test

import (
	"testing"

	"telegram-subscription-payments/internal/gateway/click"
	"telegram-subscription-payments/internal/infra/security"
)

func prepareRequest() *click.Request {
	return &click.Request{
		ClickTransID:    5001,
		ServiceID:       32045,
		MerchantTransID: "7001",
		AmountRaw:       "7777",
		Action:          click.ActionPrepare,
		SignTime:        "2026-08-28 10:00:00",
	}
}

func TestClickSignerDigest(t *testing.T) {
	s := security.NewClickSigner("click-secret")

	t.Run("prepare omits prepare id from the digest", func(t *testing.T) {
		r := prepareRequest()
		// prepare_id must not participate even when the field is set
		r.MerchantPrepareID = 999
		want := "de869362cf4b0ff74aef3cffd8a97b47"
		if got := s.Digest(r); got != want {
			t.Errorf("digest = %s, want %s", got, want)
		}
	})

	t.Run("complete includes prepare id", func(t *testing.T) {
		r := prepareRequest()
		r.Action = click.ActionComplete
		r.MerchantPrepareID = 1724840000000
		r.SignTime = "2026-08-28 10:05:00"
		want := "650d919d85fce227e7ba9a89e8490676"
		if got := s.Digest(r); got != want {
			t.Errorf("digest = %s, want %s", got, want)
		}
	})
}

func TestClickSignerVerify(t *testing.T) {
	s := security.NewClickSigner("click-secret")

	r := prepareRequest()
	r.SignString = s.Digest(r)
	if !s.Verify(r) {
		t.Error("self-signed request must verify")
	}

	r.SignString = "de869362cf4b0ff74aef3cffd8a97b48"
	if s.Verify(r) {
		t.Error("tampered signature must not verify")
	}

	wrongSecret := security.NewClickSigner("other-secret")
	r.SignString = s.Digest(r)
	if wrongSecret.Verify(r) {
		t.Error("signature made with another secret must not verify")
	}
}

func TestBasicCredentialsMatch(t *testing.T) {
	c := security.NewBasicCredentials("Paycom", "s3cret")

	if !c.Match("Paycom", "s3cret") {
		t.Error("correct pair must match")
	}
	if c.Match("Paycom", "wrong") {
		t.Error("wrong password must not match")
	}
	if c.Match("merchant", "s3cret") {
		t.Error("wrong login must not match")
	}
	if c.Match("", "") {
		t.Error("empty pair must not match")
	}
}
