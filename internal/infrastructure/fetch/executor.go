// Package fetch runs provider requests with bounded retries, a deadline per
// attempt and a fixed pause between full passes over a source's endpoints.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Policy bounds the work spent on one source
type Policy struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

// DefaultPolicy keeps the worst case of one source within a couple of seconds
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     2,
		AttemptTimeout: time.Second,
		Backoff:        250 * time.Millisecond,
	}
}

// PolicyFor extracts the retry policy carried by a resolution request
func PolicyFor(req domain.ResolutionRequest) Policy {
	p := Policy{
		MaxRetries:     req.MaxRetries,
		AttemptTimeout: req.AttemptTimeout,
		Backoff:        req.Backoff,
	}
	def := DefaultPolicy()
	if p.MaxRetries < 1 {
		p.MaxRetries = def.MaxRetries
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = def.AttemptTimeout
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// Observer receives every finished attempt, e.g. for metrics
type Observer interface {
	ObserveAttempt(rec domain.SourceAttemptRecord)
}

// FetchFunc performs one attempt against endpoint and returns nil error only
// when the response is acceptable. An error wrapping domain.ErrNoMatch is a
// definitive answer: the endpoint is not asked again in later passes.
type FetchFunc[T any] func(ctx context.Context, endpoint string) (T, error)

// Result is the accepted response and the trail that led to it
type Result[T any] struct {
	Value    T
	Endpoint string
	Attempts []domain.SourceAttemptRecord
}

// ExhaustedError is returned when no endpoint produced an acceptable response
type ExhaustedError struct {
	Source   string
	Attempts []domain.SourceAttemptRecord
	LastErr  error
	// AllMisses is set when every endpoint answered with a definitive miss
	AllMisses bool
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: no acceptable response after %d attempts: %v", e.Source, len(e.Attempts), e.LastErr)
}

func (e *ExhaustedError) Unwrap() []error {
	if e.AllMisses {
		return []error{domain.ErrNoMatch, e.LastErr}
	}
	return []error{domain.ErrSourceUnavailable, e.LastErr}
}

// Executor is stateless apart from its collaborators and safe for concurrent use
type Executor struct {
	logger   *logrus.Logger
	observer Observer
}

// NewExecutor creates an executor. observer may be nil.
func NewExecutor(logger *logrus.Logger, observer Observer) *Executor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Executor{logger: logger, observer: observer}
}

// Run tries every endpoint in order, once per pass, for policy.MaxRetries
// passes and returns the first accepted response. Cancellation of ctx stops
// the run immediately and is returned as ctx.Err().
func Run[T any](ctx context.Context, ex *Executor, source string, endpoints []string, policy Policy, fetch FetchFunc[T]) (Result[T], error) {
	var zero Result[T]
	if ex == nil {
		ex = NewExecutor(nil, nil)
	}
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	endpoints = distinct(endpoints)

	attempts := make([]domain.SourceAttemptRecord, 0, policy.MaxRetries*len(endpoints))
	answered := make(map[string]bool, len(endpoints))
	var lastErr error = domain.ErrSourceUnavailable

	for pass := 1; pass <= policy.MaxRetries; pass++ {
		for _, endpoint := range endpoints {
			if answered[endpoint] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return zero, err
			}

			value, rec, err := attempt(ctx, ex, source, endpoint, pass, policy.AttemptTimeout, fetch)
			attempts = append(attempts, rec)

			if err == nil {
				return Result[T]{Value: value, Endpoint: endpoint, Attempts: attempts}, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}

			lastErr = err
			if rec.Outcome == domain.OutcomeNoMatch {
				answered[endpoint] = true
			}
		}

		if len(answered) == len(endpoints) {
			break
		}
		if pass < policy.MaxRetries && policy.Backoff > 0 {
			if err := wait(ctx, policy.Backoff); err != nil {
				return zero, err
			}
		}
	}

	exhausted := &ExhaustedError{
		Source:    source,
		Attempts:  attempts,
		LastErr:   lastErr,
		AllMisses: len(endpoints) > 0 && len(answered) == len(endpoints),
	}
	ex.logger.WithFields(logrus.Fields{
		"source":     source,
		"attempts":   len(attempts),
		"all_misses": exhausted.AllMisses,
		"error":      lastErr.Error(),
	}).Debug("Source exhausted")

	return zero, exhausted
}

func attempt[T any](ctx context.Context, ex *Executor, source, endpoint string, pass int, timeout time.Duration, fetch FetchFunc[T]) (T, domain.SourceAttemptRecord, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	value, err := fetch(attemptCtx, endpoint)
	elapsed := time.Since(start)

	outcome := Classify(err)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		outcome = domain.OutcomeTimeout
	}

	rec := domain.SourceAttemptRecord{
		Source:    source,
		Endpoint:  endpoint,
		Attempt:   pass,
		Outcome:   outcome,
		ElapsedMs: elapsed.Milliseconds(),
	}

	entry := ex.logger.WithFields(logrus.Fields{
		"source":     source,
		"endpoint":   endpoint,
		"attempt":    pass,
		"outcome":    outcome,
		"elapsed_ms": rec.ElapsedMs,
	})
	if err != nil {
		entry.WithError(err).Debug("Fetch attempt failed")
	} else {
		entry.Debug("Fetch attempt succeeded")
	}

	if ex.observer != nil {
		ex.observer.ObserveAttempt(rec)
	}

	return value, rec, err
}

// Classify maps an attempt error onto the attempt outcome taxonomy
func Classify(err error) domain.AttemptOutcome {
	if err == nil {
		return domain.OutcomeSuccess
	}
	if errors.Is(err, domain.ErrNoMatch) {
		return domain.OutcomeNoMatch
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.OutcomeTimeout
	}
	return domain.OutcomeHTTPError
}

// distinct drops repeated endpoints, keeping the first occurrence
func distinct(endpoints []string) []string {
	seen := make(map[string]bool, len(endpoints))
	out := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		if seen[ep] {
			continue
		}
		seen[ep] = true
		out = append(out, ep)
	}
	return out
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
