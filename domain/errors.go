// ABOUTME: Domain-level sentinel errors for the attentiond daemon
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import "errors"

// Entity errors
var (
	// ErrArticleNotFound indicates the requested article does not exist
	ErrArticleNotFound = errors.New("article not found")

	// ErrFeedNotFound indicates the requested feed does not exist
	ErrFeedNotFound = errors.New("feed not found")

	// ErrFeedExists indicates a feed with the same URL is already registered
	ErrFeedExists = errors.New("feed already exists")

	// ErrArticleUnscored indicates the article has no score and is
	// therefore unrankable (excluded from ranked output, not zero-scored)
	ErrArticleUnscored = errors.New("article has no score")
)

// Validation errors
var (
	// ErrInvalidSignalKind indicates an unknown feedback kind
	ErrInvalidSignalKind = errors.New("invalid feedback signal kind")

	// ErrInvalidMagnitude indicates a non-positive signal magnitude
	ErrInvalidMagnitude = errors.New("signal magnitude must be positive")

	// ErrInvalidTopic indicates a topic name not present in the profile
	ErrInvalidTopic = errors.New("topic not in interest profile")
)

// Oracle errors. All are transient from the cycle's point of view:
// the article stays unscored and is retried on the next tick.
var (
	// ErrOracleTimeout indicates the scoring oracle did not answer
	// within the configured deadline
	ErrOracleTimeout = errors.New("scoring oracle timed out")

	// ErrOracleUnavailable indicates the oracle endpoint is unreachable
	// or returned a server error
	ErrOracleUnavailable = errors.New("scoring oracle unavailable")

	// ErrOracleBadResponse indicates the oracle answered with a payload
	// that could not be parsed into a score
	ErrOracleBadResponse = errors.New("scoring oracle returned malformed response")
)

// Store errors
var (
	// ErrStoreBusy indicates writer/reader contention outlasted the
	// bounded wait grace period. Transient; never escalated to daemon
	// termination.
	ErrStoreBusy = errors.New("store busy")
)
