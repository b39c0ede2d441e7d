// Package resilience wraps a row store in a circuit breaker so a failing
// backend is given time to recover instead of receiving every request.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"labeltree/application/ports"
	"labeltree/domain/core/entities"
	pkgerrors "labeltree/pkg/errors"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerStore is a ports.NodeStore decorator guarded by a gobreaker.
// While the breaker is open calls fail fast with an Unavailable AppError.
type BreakerStore struct {
	next   ports.NodeStore
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *zap.Logger
}

// NewBreakerStore wraps next in a circuit breaker
func NewBreakerStore(next ports.NodeStore, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	s := &BreakerStore{next: next, name: cfg.Name, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// a caller giving up is not a backend failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return s
}

// State reports the current breaker state
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

// ScanAll implements ports.NodeStore
func (s *BreakerStore) ScanAll(ctx context.Context) ([]*entities.NodeRecord, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.ScanAll(ctx)
	})
	if err != nil {
		return nil, s.translate(err)
	}
	records, _ := out.([]*entities.NodeRecord)
	return records, nil
}

// GetByID implements ports.NodeStore. Absence is a successful call.
func (s *BreakerStore) GetByID(ctx context.Context, id string) (*entities.NodeRecord, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.GetByID(ctx, id)
	})
	if err != nil {
		return nil, s.translate(err)
	}
	record, _ := out.(*entities.NodeRecord)
	return record, nil
}

// Insert implements ports.NodeStore
func (s *BreakerStore) Insert(ctx context.Context, record *entities.NodeRecord) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Insert(ctx, record)
	})
	if err != nil {
		return s.translate(err)
	}
	return nil
}

// Ping bypasses the breaker so readiness reflects the backend itself.
func (s *BreakerStore) Ping(ctx context.Context) error {
	if hc, ok := s.next.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

// Close closes the wrapped store when it supports closing.
func (s *BreakerStore) Close() error {
	if c, ok := s.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (s *BreakerStore) translate(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		s.logger.Warn("Circuit breaker is OPEN - rejecting store call", zap.String("name", s.name))
		return pkgerrors.NewUnavailableError(s.name).WithCause(err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn("Circuit breaker is HALF-OPEN - too many store calls", zap.String("name", s.name))
		return pkgerrors.NewUnavailableError(s.name).WithCause(err)
	default:
		return err
	}
}
