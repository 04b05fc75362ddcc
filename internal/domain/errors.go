package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountConflict    = errors.New("account code already exists")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrIntegrityViolation = errors.New("account integrity signature mismatch")

	// Movement errors
	ErrInvalidAmount       = errors.New("amount must be positive with at most 2 decimal places")
	ErrInvalidMovementKind = errors.New("movement kind must be DEBIT or CREDIT")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrMovementNotFound    = errors.New("movement not found")
	ErrInvalidReference    = errors.New("invalid movement reference")

	// ErrDuplicateReference is reported by the movement log when the
	// (account, reference) pair was already applied.
	ErrDuplicateReference = errors.New("duplicate movement reference")

	// ErrConcurrencyConflict is reported by the account store when the
	// stored revision no longer matches the expected one.
	ErrConcurrencyConflict = errors.New("account revision conflict")

	// Outcome errors
	ErrBusy           = errors.New("account busy, retry later")
	ErrTimeout        = errors.New("movement timed out")
	ErrStorageFailure = errors.New("storage failure")
)

// Authentication errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
