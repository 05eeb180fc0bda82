package consultation

import "errors"

var (
	// ErrNotFound is returned when a consultation or doctor id does not
	// resolve to an existing record.
	ErrNotFound = errors.New("consultation not found")

	// ErrForbidden is returned when the actor's role does not permit the
	// attempted operation.
	ErrForbidden = errors.New("operation not permitted for this actor")

	// ErrThreadClosed is returned when a write is attempted on a closed
	// thread. Closed is terminal.
	ErrThreadClosed = errors.New("consultation thread is closed")

	// ErrValidation is returned for malformed input, such as a
	// whitespace-only message body or an empty title.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence wraps store read/write failures. Callers must not
	// treat the operation as applied when they see it.
	ErrPersistence = errors.New("persistence failure")

	// ErrPaymentRejected is returned when the payment reference supplied
	// at booking cannot be verified with the payment provider.
	ErrPaymentRejected = errors.New("payment rejected")
)
