package billing

import "errors"

// Error classes for webhook processing. Controllers map these to HTTP
// statuses: verification and validation failures are permanent for the
// request (400), referential and store failures are retryable (500) so the
// provider redelivers the event once the fault clears.
var (
	// ErrVerification marks a missing or invalid webhook signature.
	ErrVerification = errors.New("webhook signature verification failed")

	// ErrValidation marks a payload that cannot be safely applied
	// (malformed envelope, bad gift metadata, non-positive quantity).
	ErrValidation = errors.New("invalid webhook payload")

	// ErrReferential marks an event that references a record this system
	// does not have, e.g. a gift recipient that was not found. Possibly a
	// replication-lag race, so the transaction rolls back and the provider
	// retries.
	ErrReferential = errors.New("referenced record not found")
)
