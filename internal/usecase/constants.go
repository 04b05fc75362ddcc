package usecase

import "time"

const (
	// DefaultMovementTimeout bounds a single ApplyMovement call when the
	// caller supplies no timeout.
	DefaultMovementTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyProcessing is the placeholder IdempotencyStore holds while
	// the first request for a key is still running.
	IdempotencyProcessing = "processing"

	// Movement outcomes reported to MetricsRecorder.
	OutcomeCommitted = "committed"
	OutcomeReplayed  = "replayed"
	OutcomeRejected  = "rejected"
	OutcomeBusy      = "busy"
	OutcomeTimeout   = "timeout"
	OutcomeFailed    = "failed"
)
