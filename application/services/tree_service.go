package services

import (
	"context"

	"labeltree/application/ports"
	"labeltree/domain/core/aggregates"
	"labeltree/domain/core/entities"
	"labeltree/domain/core/valueobjects"
	pkgerrors "labeltree/pkg/errors"
)

// TreeService is the tree engine: it builds the forest from a full scan and
// validates parent references before inserting. It keeps no state between
// calls and does not log; errors are returned to the caller as AppErrors.
type TreeService struct {
	store ports.NodeStore
}

// NewTreeService creates a tree service over the given store
func NewTreeService(store ports.NodeStore) *TreeService {
	return &TreeService{store: store}
}

// ListForest scans the store and returns its records nested into root trees.
// An empty store yields an empty, non-nil slice.
func (s *TreeService) ListForest(ctx context.Context) ([]*aggregates.TreeNode, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, storageFailure("scan nodes", err)
	}
	return aggregates.BuildForest(records), nil
}

// CreateNode appends a node under parentID, or as a new root when parentID is nil.
//
// The label is trimmed and stored as-is, so a whitespace-only label is stored
// as "". An unknown parent fails with a NotFound AppError before anything is
// written. The result is built from the inputs rather than re-read.
func (s *TreeService) CreateNode(ctx context.Context, label string, parentID *string) (*aggregates.TreeNode, error) {
	label = valueobjects.NormalizeLabel(label)

	var parent *valueobjects.NodeID
	if parentID != nil {
		existing, err := s.store.GetByID(ctx, *parentID)
		if err != nil {
			return nil, storageFailure("get parent node", err)
		}
		if existing == nil {
			return nil, pkgerrors.NewParentNotFoundError(*parentID)
		}
		id := existing.ID()
		parent = &id
	}

	record := entities.NewNodeRecord(label, parent)
	if err := s.store.Insert(ctx, record); err != nil {
		return nil, storageFailure("insert node", err)
	}

	return aggregates.NewCreatedTreeNode(record), nil
}

// storageFailure reports a store error as a database AppError. Errors that
// are already AppErrors (for example an open circuit breaker) pass through.
func storageFailure(op string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewDatabaseError(op, err)
}
