package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labeltree/application/ports/mocks"
	"labeltree/application/queries/bus"
	"labeltree/application/services"
	"labeltree/domain/core/aggregates"
	"labeltree/domain/core/entities"
	pkgerrors "labeltree/pkg/errors"
)

func TestListForestHandler_Handle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockNodeStore)
	parent := "r"
	store.On("ScanAll", ctx).Return([]*entities.NodeRecord{
		entities.ReconstructNodeRecord("r", "root", nil),
		entities.ReconstructNodeRecord("c", "child", &parent),
	}, nil)
	handler := NewListForestHandler(services.NewTreeService(store))

	// Act
	result, err := handler.Handle(ctx, ListForestQuery{})

	// Assert
	require.NoError(t, err)
	forest, ok := result.([]*aggregates.TreeNode)
	require.True(t, ok)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "c", forest[0].Children[0].ID)
	store.AssertExpectations(t)
}

func TestListForestHandler_ThroughBus_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.MockNodeStore)
	store.On("ScanAll", ctx).Return(nil, errors.New("database is locked"))

	queryBus := bus.NewQueryBus()
	require.NoError(t, queryBus.Register(ListForestQuery{}, NewListForestHandler(services.NewTreeService(store))))

	result, err := queryBus.Ask(ctx, ListForestQuery{})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsStorageFailure(err))
}
