package ledger

import "errors"

var (
	// ErrValidation marks bad input: missing fields, non-positive amounts, a
	// payment that exceeds the balance. The operation changes no state.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to a client or loan that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConsistency marks an internal invariant violation, such as a payment
	// breakdown that does not reconcile. It aborts the operation without
	// applying anything; it should be unreachable in correct code.
	ErrConsistency = errors.New("consistency violated")
)
