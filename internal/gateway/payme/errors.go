package payme

import "fmt"

// Message is the trilingual error text the Payme cabinet displays.
type Message struct {
	Uz string `json:"uz"`
	En string `json:"en"`
	Ru string `json:"ru"`
}

// Error is a gateway-coded protocol error. It implements error so use cases
// can return it through normal error paths; the handler serializes it into
// the response envelope. State and Reason are set only on the compound
// timeout-cancellation error.
type Error struct {
	Code    int     `json:"code"`
	Message Message `json:"message"`
	Data    string  `json:"data,omitempty"`
	State   *State  `json:"state,omitempty"`
	Reason  *int    `json:"reason,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("payme error %d: %s", e.Code, e.Message.En)
}

// Code constants. -31050..-31099 is the range the merchant chooses account
// error codes from.
const (
	CodeInvalidAmount         = -31001
	CodeTransactionNotFound   = -31003
	CodeCantDoOperation       = -31008
	CodeUserNotFound          = -31050
	CodeProductNotFound       = -31051
	CodeTransactionInProcess  = -31099
	CodeInsufficientPrivilege = -32504
	CodeInternal              = -32400
	CodeMethodNotFound        = -32601
)

var (
	ErrInvalidAmount = &Error{
		Code: CodeInvalidAmount,
		Message: Message{
			Uz: "Noto'g'ri summa",
			En: "Invalid amount",
			Ru: "Неверная сумма",
		},
	}
	ErrTransactionNotFound = &Error{
		Code: CodeTransactionNotFound,
		Message: Message{
			Uz: "Tranzaksiya topilmadi",
			En: "Transaction not found",
			Ru: "Транзакция не найдена",
		},
	}
	ErrCantDoOperation = &Error{
		Code: CodeCantDoOperation,
		Message: Message{
			Uz: "Ushbu amalni bajarib bo'lmaydi",
			En: "Unable to perform operation",
			Ru: "Невозможно выполнить операцию",
		},
	}
	ErrUserNotFound = &Error{
		Code: CodeUserNotFound,
		Message: Message{
			Uz: "Foydalanuvchi topilmadi",
			En: "User not found",
			Ru: "Пользователь не найден",
		},
		Data: "user_id",
	}
	ErrProductNotFound = &Error{
		Code: CodeProductNotFound,
		Message: Message{
			Uz: "Mahsulot topilmadi",
			En: "Product not found",
			Ru: "Товар не найден",
		},
		Data: "plan_id",
	}
	ErrTransactionInProcess = &Error{
		Code: CodeTransactionInProcess,
		Message: Message{
			Uz: "Ushbu obuna uchun to'lov allaqachon boshlangan",
			En: "A payment for this subscription is already in process",
			Ru: "Оплата этой подписки уже выполняется",
		},
	}
	ErrInsufficientPrivilege = &Error{
		Code: CodeInsufficientPrivilege,
		Message: Message{
			Uz: "Avtorizatsiya xato",
			En: "Insufficient privilege",
			Ru: "Недостаточно привилегий",
		},
	}
	ErrInternal = &Error{
		Code: CodeInternal,
		Message: Message{
			Uz: "Ichki xatolik",
			En: "Internal error",
			Ru: "Внутренняя ошибка",
		},
	}
	ErrMethodNotFound = &Error{
		Code: CodeMethodNotFound,
		Message: Message{
			Uz: "Metod topilmadi",
			En: "Method not found",
			Ru: "Метод не найден",
		},
	}
)

// TimeoutCancellation builds the compound error returned when an expired
// pending transaction is canceled on touch: the standard "can't do
// operation" code carrying the resulting cancel state and reason.
func TimeoutCancellation() *Error {
	st := StatePendingCanceled
	reason := ReasonTimeout
	return &Error{
		Code:    ErrCantDoOperation.Code,
		Message: ErrCantDoOperation.Message,
		State:   &st,
		Reason:  &reason,
	}
}
