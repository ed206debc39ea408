// Package click holds the wire protocol of the Click merchant API:
// the action discriminator, the exact error code set, and the
// form-encoded request/response shapes.
package click

// Action discriminates the two-phase protocol.
type Action int

const (
	ActionPrepare  Action = 0
	ActionComplete Action = 1
)

// Error codes per the Click merchant specification. These values are part of
// the wire contract and must never change.
type Error int

const (
	Success             Error = 0
	SignFailed          Error = -1
	InvalidAmount       Error = -2
	ActionNotFound      Error = -3
	AlreadyPaid         Error = -4
	UserNotFound        Error = -5
	TransactionNotFound Error = -6
	BadRequest          Error = -8
	TransactionCanceled Error = -9
)

// Request is one Click callback. Click posts application/x-www-form-urlencoded;
// AmountRaw keeps the untouched amount string because the MD5 signature is
// computed over the raw field values, not a re-rendered number.
type Request struct {
	ClickTransID      int64
	ServiceID         int64
	ClickPaydocID     int64
	MerchantTransID   string // plan id
	MerchantPrepareID int64  // zero on prepare
	Amount            float64
	AmountRaw         string
	Action            Action
	Error             int
	ErrorNote         string
	SignTime          string
	SignString        string
	Param2            string // user id, from additional_param3 on the redirect link
}

// Response is the JSON body Click expects back.
type Response struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID int64  `json:"merchant_prepare_id,omitempty"`
	Error             Error  `json:"error"`
	ErrorNote         string `json:"error_note"`
}

// Errf builds an error response.
func Errf(code Error, note string) *Response {
	return &Response{Error: code, ErrorNote: note}
}

// SignatureVerifier recomputes the keyed digest over a request and compares
// it to SignString in constant time.
type SignatureVerifier interface {
	Verify(r *Request) bool
}
