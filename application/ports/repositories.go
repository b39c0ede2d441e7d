package ports

import (
	"context"

	"labeltree/domain/core/entities"
	"labeltree/domain/events"
)

// NodeStore is the row store behind the label tree.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type NodeStore interface {
	// ScanAll returns every record. The order must be stable for a fixed
	// store state; the forest keeps it.
	ScanAll(ctx context.Context) ([]*entities.NodeRecord, error)

	// GetByID returns the record with the given id, or (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*entities.NodeRecord, error)

	// Insert writes a single record atomically. It must reject a duplicate id
	// and should reject a parent id that does not resolve.
	Insert(ctx context.Context, record *entities.NodeRecord) error
}

// HealthChecker is implemented by stores that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
