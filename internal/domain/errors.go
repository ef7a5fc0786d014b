package domain

import "errors"

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")

	// ErrExhausted means the chosen catalog item has no units left.
	ErrExhausted = errors.New("item exhausted")

	// ErrInvalidAmount means a pledge amount was missing, malformed,
	// zero or negative.
	ErrInvalidAmount = errors.New("invalid pledge amount")

	// ErrNoSelection means a confirmation carried neither a gift nor a
	// pledge.
	ErrNoSelection = errors.New("no selection")

	// ErrAlreadyConfirmed guards against duplicate confirmation on retry.
	ErrAlreadyConfirmed = errors.New("guest already confirmed")

	// ErrMessageAlreadySet means the one post-confirmation note was
	// already attached.
	ErrMessageAlreadySet = errors.New("message already set")

	// ErrStoreUnavailable marks a transient ledger-store failure; the
	// whole confirm call may be retried safely.
	ErrStoreUnavailable = errors.New("store unavailable")
)
