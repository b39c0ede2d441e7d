package queries

import (
	"context"
	"fmt"

	"labeltree/application/queries/bus"
	"labeltree/application/services"
)

// ListForestQuery asks for the whole tree. It has no parameters since the
// forest is never paginated or filtered.
type ListForestQuery struct{}

// Validate implements bus.Query
func (q ListForestQuery) Validate() error {
	return nil
}

// ListForestHandler handles ListForestQuery
type ListForestHandler struct {
	trees *services.TreeService
}

// NewListForestHandler creates a new handler
func NewListForestHandler(trees *services.TreeService) *ListForestHandler {
	return &ListForestHandler{trees: trees}
}

// Handle returns the forest as []*aggregates.TreeNode
func (h *ListForestHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(ListForestQuery); !ok {
		return nil, fmt.Errorf("invalid query type: expected ListForestQuery, got %T", query)
	}
	forest, err := h.trees.ListForest(ctx)
	if err != nil {
		return nil, err
	}
	return forest, nil
}
