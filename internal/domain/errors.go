package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when a scanned code cannot be used at all
	ErrInvalidFormat = errors.New("invalid barcode format")

	// ErrNoMatch is returned when a source answered but does not know the code
	ErrNoMatch = errors.New("product not found")

	// ErrNotConfigured is returned by a source that is disabled by configuration
	ErrNotConfigured = errors.New("source not configured")

	// ErrSourceUnavailable is returned when a source could not be reached
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUpstreamStatus is returned when a provider answers with a non-2xx status
	ErrUpstreamStatus = errors.New("unexpected upstream status")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ValidationCode identifies why a raw code was rejected
type ValidationCode string

const (
	ValidationEmpty          ValidationCode = "EMPTY"
	ValidationTooShort       ValidationCode = "TOO_SHORT"
	ValidationTooLong        ValidationCode = "TOO_LONG"
	ValidationInvalidPattern ValidationCode = "INVALID_PATTERN"
)

// ValidationError is terminal: it is returned immediately and never retried
type ValidationError struct {
	Code  ValidationCode
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%q)", ErrInvalidFormat, e.Code, e.Input)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidFormat
}

// NoMatchReason explains why a source produced no product
type NoMatchReason string

const (
	ReasonNotFound      NoMatchReason = "not-found"
	ReasonNotConfigured NoMatchReason = "not-configured"
	ReasonUnavailable   NoMatchReason = "unavailable"
)

// NoMatch is the miss value every source returns instead of a ProviderMatch.
// Transport failures are folded into it after retries are exhausted.
type NoMatch struct {
	Source   string
	Reason   NoMatchReason
	Attempts []SourceAttemptRecord
	Err      error
}

func (e *NoMatch) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

// Unwrap exposes both the reason sentinel and the underlying cause
func (e *NoMatch) Unwrap() []error {
	errs := make([]error, 0, 2)
	switch e.Reason {
	case ReasonNotConfigured:
		errs = append(errs, ErrNotConfigured)
	case ReasonUnavailable:
		errs = append(errs, ErrSourceUnavailable)
	default:
		errs = append(errs, ErrNoMatch)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
