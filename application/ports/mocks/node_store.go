// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"labeltree/domain/core/entities"
	"labeltree/domain/events"
)

// MockNodeStore is a testify mock of ports.NodeStore.
type MockNodeStore struct {
	mock.Mock
}

func (m *MockNodeStore) ScanAll(ctx context.Context) ([]*entities.NodeRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]*entities.NodeRecord)
	return records, args.Error(1)
}

func (m *MockNodeStore) GetByID(ctx context.Context, id string) (*entities.NodeRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*entities.NodeRecord)
	return record, args.Error(1)
}

func (m *MockNodeStore) Insert(ctx context.Context, record *entities.NodeRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockEventPublisher is a testify mock of ports.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}
