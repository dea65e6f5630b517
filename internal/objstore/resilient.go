// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/soundlake/internal/config"
	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/metrics"
)

// Resilient wraps a Store with a rate limiter, a circuit breaker and metrics.
//
// The limiter is shared by every call on the store, so parallel readers
// cannot exceed the configured request rate. The breaker opens after a run
// of consecutive failures and rejects calls until its timeout elapses.
// ErrNotFound and context cancellation never count as failures.
type Resilient struct {
	store   Store
	backend string
	name    string
	log     zerolog.Logger
	limiter *rate.Limiter                          // nil when rate limiting is disabled
	cb      *gobreaker.CircuitBreaker[interface{}] // nil when the breaker is disabled
}

// NewResilient wraps store. Zero values in cfg disable the corresponding feature.
func NewResilient(store Store, backend string, cfg config.StoreConfig) *Resilient {
	r := &Resilient{
		store:   store,
		backend: backend,
		name:    "objstore:" + store.URI(""),
	}
	r.log = logging.Logger().With().
		Str("component", "objstore").
		Str("backend", backend).
		Str("breaker", r.name).
		Logger()

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.BreakerFailureThreshold > 0 {
		r.cb = newBreaker(r.name, &r.log, cfg.BreakerFailureThreshold, cfg.BreakerTimeout)
	}

	return r
}

// newBreaker builds a breaker that trips on consecutive failures.
func newBreaker(name string, log *zerolog.Logger, threshold uint32, timeout time.Duration) *gobreaker.CircuitBreaker[interface{}] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,       // single trial request in half-open state
		Interval:    0,       // never clear counts while closed
		Timeout:     timeout, // open -> half-open

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				log.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			log.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
}

// execute runs fn behind the limiter and breaker and records metrics.
func (r *Resilient) execute(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	if r.limiter != nil {
		start := time.Now()
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: rate limiter: %w", op, r.name, err)
		}
		metrics.RecordRateLimitWait(r.backend, time.Since(start))
	}

	start := time.Now()
	var (
		result interface{}
		err    error
	)
	if r.cb == nil {
		result, err = fn()
	} else {
		result, err = r.cb.Execute(fn)
	}
	metrics.RecordStoreOperation(r.backend, op, time.Since(start), err)

	if r.cb != nil {
		r.recordBreaker(err)
	}
	return result, err
}

func (r *Resilient) recordBreaker(err error) {
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(0)
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "rejected").Inc()
		r.log.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "failure").Inc()
		counts := r.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(float64(counts.ConsecutiveFailures))
	}
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// List implements Store.
func (r *Resilient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return castResult[[]ObjectInfo](r.execute(ctx, "list", func() (interface{}, error) {
		return r.store.List(ctx, prefix)
	}))
}

// Open implements Store.
func (r *Resilient) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return castResult[io.ReadCloser](r.execute(ctx, "open", func() (interface{}, error) {
		return r.store.Open(ctx, key)
	}))
}

// Put implements Store.
func (r *Resilient) Put(ctx context.Context, key string, body io.Reader) error {
	_, err := r.execute(ctx, "put", func() (interface{}, error) {
		return nil, r.store.Put(ctx, key, body)
	})
	return err
}

// Delete implements Store.
func (r *Resilient) Delete(ctx context.Context, key string) error {
	_, err := r.execute(ctx, "delete", func() (interface{}, error) {
		return nil, r.store.Delete(ctx, key)
	})
	return err
}

// URI implements Store.
func (r *Resilient) URI(key string) string {
	return r.store.URI(key)
}

// Close implements Store.
func (r *Resilient) Close() error {
	return r.store.Close()
}

// Unwrap returns the underlying store.
func (r *Resilient) Unwrap() Store {
	return r.store
}

// State returns the breaker state, or closed when the breaker is disabled.
func (r *Resilient) State() gobreaker.State {
	if r.cb == nil {
		return gobreaker.StateClosed
	}
	return r.cb.State()
}

// stateToFloat converts circuit breaker state to numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
