// Package payme holds the wire protocol of the Payme merchant API:
// the JSON-RPC-like envelope, method set, transaction state codes,
// cancellation reasons and coded errors.
package payme

// Method is the RPC verb carried in the request envelope.
type Method string

const (
	MethodCheckPerformTransaction Method = "CheckPerformTransaction"
	MethodCreateTransaction       Method = "CreateTransaction"
	MethodPerformTransaction      Method = "PerformTransaction"
	MethodCancelTransaction       Method = "CancelTransaction"
	MethodCheckTransaction        Method = "CheckTransaction"
	MethodGetStatement            Method = "GetStatement"
)

// State is Payme's transaction state code, persisted verbatim in the ledger.
type State int

const (
	StatePending         State = 1
	StatePaid            State = 2
	StatePendingCanceled State = -1
	StatePaidCanceled    State = -2
)

// Cancellation reason codes per the Payme merchant specification.
const (
	ReasonReceiverNotFound  = 1
	ReasonDebitError        = 2
	ReasonTransactionError  = 3
	ReasonTimeout           = 4
	ReasonRefund            = 5
	ReasonUnknown           = 10
)

// Account identifies the purchase target inside params.
type Account struct {
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`
}

// Params is the union of parameters across all six methods; each method
// reads only its own fields.
type Params struct {
	ID      string  `json:"id,omitempty"` // external transaction id
	Amount  int64   `json:"amount,omitempty"`
	Account Account `json:"account,omitempty"`
	Reason  *int    `json:"reason,omitempty"`
	From    int64   `json:"from,omitempty"` // unix milli
	To      int64   `json:"to,omitempty"`   // unix milli
}

// Request is the inbound envelope.
type Request struct {
	ID     int64  `json:"id"`
	Method Method `json:"method"`
	Params Params `json:"params"`
}

// Response carries exactly one of Result or Error.
type Response struct {
	ID     int64  `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// ---- result payloads ----

type CheckPerformResult struct {
	Allow bool `json:"allow"`
}

type CreateResult struct {
	Transaction string `json:"transaction"`
	State       State  `json:"state"`
	CreateTime  int64  `json:"create_time"`
}

type PerformResult struct {
	Transaction string `json:"transaction"`
	State       State  `json:"state"`
	PerformTime int64  `json:"perform_time"`
}

type CancelResult struct {
	Transaction string `json:"transaction"`
	State       State  `json:"state"`
	CancelTime  int64  `json:"cancel_time"`
}

type CheckResult struct {
	Transaction string `json:"transaction"`
	State       State  `json:"state"`
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
	Reason      *int   `json:"reason"`
}

type StatementEntry struct {
	ID          string  `json:"id"`
	Time        int64   `json:"time"`
	Amount      int64   `json:"amount"`
	Account     Account `json:"account"`
	CreateTime  int64   `json:"create_time"`
	PerformTime int64   `json:"perform_time"`
	CancelTime  int64   `json:"cancel_time"`
	Transaction string  `json:"transaction"`
	State       State   `json:"state"`
	Reason      *int    `json:"reason"`
}

type StatementResult struct {
	Transactions []StatementEntry `json:"transactions"`
}
