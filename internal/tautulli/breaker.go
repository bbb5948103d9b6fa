// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package tautulli

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/plexwatch/internal/config"
	"github.com/tomtom215/plexwatch/internal/logging"
	"github.com/tomtom215/plexwatch/internal/metrics"
	models "github.com/tomtom215/plexwatch/internal/models/tautulli"
)

// BreakerClient wraps Client with the circuit breaker pattern.
// Circuit breaker pattern prevents hammering Tautulli when it is unavailable
// or slow, and lets a failed refresh cycle fail fast instead of timing out
// on every request of the metadata fan-out.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. Tests should use appropriate
// waits or mock the underlying client, not the breaker.
type BreakerClient struct {
	client Interface
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a Tautulli client with circuit breaker protection.
// Circuit breaker configuration:
// - Opens after 3 consecutive failures
// - 60 second timeout before attempting recovery
// - Max 3 concurrent requests in half-open state
func NewBreakerClient(cfg *config.TautulliConfig) *BreakerClient {
	return newBreakerClient(NewClient(cfg))
}

func newBreakerClient(client Interface) *BreakerClient {
	cbName := "tautulli-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,                // Allow 3 concurrent requests in half-open state
		Interval:    time.Minute,      // Reset counts after 1 minute in closed state
		Timeout:     60 * time.Second, // Wait 60 seconds before transitioning from open to half-open

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= 3
			if shouldTrip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a Tautulli API call with circuit breaker protection
// Returns the result or an error if circuit is open or request fails
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking
// Returns typed result or error if type assertion fails
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
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

// stateToString converts circuit breaker state to string for logging
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

// Ping verifies connectivity to Tautulli API with circuit breaker protection
func (bc *BreakerClient) Ping(ctx context.Context) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.Ping(ctx)
	})
	return err
}

// GetLibraries retrieves library sections with circuit breaker protection
func (bc *BreakerClient) GetLibraries(ctx context.Context) (*models.TautulliLibraries, error) {
	return castResult[models.TautulliLibraries](bc.execute(func() (interface{}, error) {
		return bc.client.GetLibraries(ctx)
	}))
}

// GetLibraryMediaInfo retrieves library items with circuit breaker protection
func (bc *BreakerClient) GetLibraryMediaInfo(ctx context.Context, sectionID int, start, length int) (*models.TautulliLibraryMediaInfo, error) {
	return castResult[models.TautulliLibraryMediaInfo](bc.execute(func() (interface{}, error) {
		return bc.client.GetLibraryMediaInfo(ctx, sectionID, start, length)
	}))
}

// GetMetadata retrieves item metadata with circuit breaker protection
func (bc *BreakerClient) GetMetadata(ctx context.Context, ratingKey string) (*models.TautulliMetadata, error) {
	return castResult[models.TautulliMetadata](bc.execute(func() (interface{}, error) {
		return bc.client.GetMetadata(ctx, ratingKey)
	}))
}

// GetHistorySince retrieves playback history with circuit breaker protection
func (bc *BreakerClient) GetHistorySince(ctx context.Context, since time.Time, start, length int) (*models.TautulliHistory, error) {
	return castResult[models.TautulliHistory](bc.execute(func() (interface{}, error) {
		return bc.client.GetHistorySince(ctx, since, start, length)
	}))
}

// GetUsersTable retrieves known users with circuit breaker protection
func (bc *BreakerClient) GetUsersTable(ctx context.Context, start, length int) (*models.TautulliUsersTable, error) {
	return castResult[models.TautulliUsersTable](bc.execute(func() (interface{}, error) {
		return bc.client.GetUsersTable(ctx, start, length)
	}))
}

// GetServerInfo retrieves server details with circuit breaker protection
func (bc *BreakerClient) GetServerInfo(ctx context.Context) (*models.TautulliServerInfo, error) {
	return castResult[models.TautulliServerInfo](bc.execute(func() (interface{}, error) {
		return bc.client.GetServerInfo(ctx)
	}))
}
