// Package checkout builds the hosted payment page links the bot hands to
// users. Each gateway has its own URL scheme; both carry the plan and user
// ids so the webhook can route the payment back to the right subscription.
package checkout

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	"telegram-subscription-payments/internal/config"
	"telegram-subscription-payments/internal/domain/model"
)

const (
	paymeCheckoutBase = "https://checkout.paycom.uz/"
	clickCheckoutBase = "https://my.click.uz/services/pay"
)

// LinkBuilder renders checkout URLs from gateway credentials.
type LinkBuilder struct {
	paymeMerchantID string
	clickServiceID  int64
	clickMerchantID string
}

func NewLinkBuilder(payme config.PaymeConfig, click config.ClickConfig) *LinkBuilder {
	return &LinkBuilder{
		paymeMerchantID: payme.MerchantID,
		clickServiceID:  click.ServiceID,
		clickMerchantID: click.MerchantID,
	}
}

// PaymeLink is the checkout URL for Payme: the merchant id, account fields
// and amount (in tiyin) are semicolon-joined and base64-encoded into the
// path.
func (b *LinkBuilder) PaymeLink(plan *model.Plan, userID string) string {
	params := fmt.Sprintf("m=%s;ac.plan_id=%s;ac.user_id=%s;a=%d",
		b.paymeMerchantID, plan.ID, userID, plan.Price.InTiyin())
	return paymeCheckoutBase + base64.StdEncoding.EncodeToString([]byte(params))
}

// ClickLink is the checkout URL for Click: a plain query string with the
// amount in som. transaction_param becomes merchant_trans_id on the webhook,
// additional_param3 comes back as the user id.
func (b *LinkBuilder) ClickLink(plan *model.Plan, userID string) string {
	q := url.Values{}
	q.Set("service_id", strconv.FormatInt(b.clickServiceID, 10))
	q.Set("merchant_id", b.clickMerchantID)
	q.Set("amount", strconv.FormatInt(plan.Price.Value, 10))
	q.Set("transaction_param", plan.ID)
	q.Set("additional_param3", userID)
	return clickCheckoutBase + "?" + q.Encode()
}
