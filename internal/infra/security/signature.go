// Package security implements the gateway authentication primitives: the
// Click keyed MD5 digest and the Payme basic-credential check. Both compare
// in constant time.
package security

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"telegram-subscription-payments/internal/gateway/click"
)

// ClickSigner verifies Click callback signatures. The digest is MD5 over the
// ordered concatenation fixed by the Click specification:
//
//	click_trans_id + service_id + secret + merchant_trans_id +
//	[merchant_prepare_id] + amount + action + sign_time
//
// merchant_prepare_id serializes as the empty string on prepare, not omitted.
type ClickSigner struct {
	secret string
}

var _ click.SignatureVerifier = (*ClickSigner)(nil)

func NewClickSigner(secret string) *ClickSigner {
	return &ClickSigner{secret: secret}
}

// Digest computes the expected sign_string for a request.
func (s *ClickSigner) Digest(r *click.Request) string {
	prepareID := ""
	if r.Action == click.ActionComplete {
		prepareID = fmt.Sprintf("%d", r.MerchantPrepareID)
	}
	content := fmt.Sprintf("%d%d%s%s%s%s%d%s",
		r.ClickTransID,
		r.ServiceID,
		s.secret,
		r.MerchantTransID,
		prepareID,
		r.AmountRaw,
		int(r.Action),
		r.SignTime,
	)
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (s *ClickSigner) Verify(r *click.Request) bool {
	want := s.Digest(r)
	return subtle.ConstantTimeCompare([]byte(want), []byte(r.SignString)) == 1
}

// BasicCredentials checks Payme's HTTP basic login/password pair.
type BasicCredentials struct {
	login    string
	password string
}

func NewBasicCredentials(login, password string) *BasicCredentials {
	return &BasicCredentials{login: login, password: password}
}

func (c *BasicCredentials) Match(login, password string) bool {
	l := subtle.ConstantTimeCompare([]byte(c.login), []byte(login))
	p := subtle.ConstantTimeCompare([]byte(c.password), []byte(password))
	return l&p == 1
}
