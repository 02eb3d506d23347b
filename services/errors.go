package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindConflict
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Error is a structured failure returned to callers. Anything that is not
// an *Error is a store or infrastructure failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrWorkerNotFound       = &Error{KindNotFound, "worker_not_found", "worker not found"}
	ErrJobNotFound          = &Error{KindNotFound, "job_not_found", "job not found"}
	ErrInvoiceNotFound      = &Error{KindNotFound, "invoice_not_found", "invoice not found or access denied"}
	ErrUserNotFound         = &Error{KindNotFound, "user_not_found", "user not found"}
	ErrConversationNotFound = &Error{KindNotFound, "conversation_not_found", "conversation not found"}

	ErrSlotUnavailable  = &Error{KindConflict, "slot_unavailable", "the requested date or time is not available"}
	ErrDuplicateBooking = &Error{KindConflict, "duplicate_booking", "you already have an active or pending booking with this worker"}
	ErrAlreadyProcessed = &Error{KindConflict, "already_processed", "job already processed"}
	ErrAlreadyPaid      = &Error{KindConflict, "already_paid", "job already paid"}
	ErrPaymentConflict  = &Error{KindConflict, "payment_conflict", "payment could not be recorded, try again"}
	ErrAlreadyReviewed  = &Error{KindConflict, "already_reviewed", "you already reviewed this job"}
	ErrEmailTaken       = &Error{KindConflict, "email_taken", "email already registered"}

	ErrInvalidCredentials = &Error{KindForbidden, "invalid_credentials", "invalid email or password"}
	ErrWorkerFirstMessage = &Error{KindForbidden, "worker_first_message", "worker cannot send the first message"}
)

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: "validation_error", Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a service error, or 0 for anything else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
