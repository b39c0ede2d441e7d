package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"labeltree/application/ports"
	"labeltree/application/ports/mocks"
	"labeltree/domain/core/aggregates"
	"labeltree/domain/core/entities"
	"labeltree/infrastructure/persistence/memory"
	"labeltree/infrastructure/persistence/sqlite"
	pkgerrors "labeltree/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestTreeService_ListForest_EmptyStore(t *testing.T) {
	svc := NewTreeService(memory.NewStore())

	forest, err := svc.ListForest(context.Background())

	require.NoError(t, err)
	require.NotNil(t, forest)
	assert.Empty(t, forest)
}

func TestTreeService_CreateRoot(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewTreeService(store)

	// Act
	node, err := svc.CreateNode(ctx, "root", nil)

	// Assert
	require.NoError(t, err)
	parsed, err := uuid.Parse(node.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.Equal(t, "root", node.Label)
	assert.Nil(t, node.ParentID)
	assert.NotNil(t, node.Children)
	assert.Empty(t, node.Children)
	assert.Equal(t, 1, store.Count())
}

func TestTreeService_CreateThenListRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewTreeService(memory.NewStore())

	root, err := svc.CreateNode(ctx, "root", nil)
	require.NoError(t, err)
	first, err := svc.CreateNode(ctx, "first", &root.ID)
	require.NoError(t, err)
	second, err := svc.CreateNode(ctx, "second", &root.ID)
	require.NoError(t, err)
	grand, err := svc.CreateNode(ctx, "grand", &first.ID)
	require.NoError(t, err)

	require.NotNil(t, first.ParentID)
	assert.Equal(t, root.ID, *first.ParentID)

	forest, err := svc.ListForest(ctx)
	require.NoError(t, err)

	require.Len(t, forest, 1)
	assert.Equal(t, root.ID, forest[0].ID)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, first.ID, forest[0].Children[0].ID)
	assert.Equal(t, second.ID, forest[0].Children[1].ID)
	require.Len(t, forest[0].Children[0].Children, 1)
	assert.Equal(t, grand.ID, forest[0].Children[0].Children[0].ID)
	assert.Nil(t, forest[0].Children[0].ParentID)
}

func TestTreeService_CreateNode_TrimsLabel(t *testing.T) {
	ctx := context.Background()
	svc := NewTreeService(memory.NewStore())

	node, err := svc.CreateNode(ctx, "  padded\t", nil)
	require.NoError(t, err)
	assert.Equal(t, "padded", node.Label)

	forest, err := svc.ListForest(ctx)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "padded", forest[0].Label)
}

func TestTreeService_CreateNode_WhitespaceOnlyLabelStoredEmpty(t *testing.T) {
	ctx := context.Background()
	svc := NewTreeService(memory.NewStore())

	node, err := svc.CreateNode(ctx, "   ", nil)
	require.NoError(t, err)
	assert.Equal(t, "", node.Label)

	forest, err := svc.ListForest(ctx)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "", forest[0].Label)
}

func TestTreeService_CreateNode_UnknownParent(t *testing.T) {
	tests := []struct {
		name     string
		parentID string
	}{
		{name: "random uuid", parentID: uuid.New().String()},
		{name: "not a uuid", parentID: "no-such-node"},
		{name: "empty string", parentID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			svc := NewTreeService(store)

			node, err := svc.CreateNode(ctx, "child", strPtr(tt.parentID))

			require.Error(t, err)
			assert.Nil(t, node)
			assert.True(t, pkgerrors.IsNotFound(err))
			appErr := pkgerrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
			assert.Equal(t, pkgerrors.CodeParentNotFound, appErr.Code)
			assert.Equal(t, "Parent node with id '"+tt.parentID+"' not found", appErr.Message)
			assert.Equal(t, 0, store.Count())
		})
	}
}

func TestTreeService_CreateNode_UnderDanglingRecord(t *testing.T) {
	// A record whose own parent is gone is still a valid parent.
	ctx := context.Background()
	store := memory.NewStore()
	dangling := strPtr("gone")
	store.Load(entities.ReconstructNodeRecord("orphan", "orphan", dangling))
	svc := NewTreeService(store)

	node, err := svc.CreateNode(ctx, "child", strPtr("orphan"))

	require.NoError(t, err)
	assert.Equal(t, "orphan", *node.ParentID)
	forest, err := svc.ListForest(ctx)
	require.NoError(t, err)
	assert.Empty(t, forest)
}

func TestTreeService_ListForest_DropsDangling(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Load(
		entities.ReconstructNodeRecord("r", "root", nil),
		entities.ReconstructNodeRecord("x", "orphan", strPtr("missing")),
	)
	svc := NewTreeService(store)

	forest, err := svc.ListForest(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, aggregates.Stats(forest).Nodes)
}

func TestTreeService_ListForest_StorageFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockNodeStore)
	store.On("ScanAll", ctx).Return(nil, errors.New("disk I/O error"))
	svc := NewTreeService(store)

	// Act
	forest, err := svc.ListForest(ctx)

	// Assert
	require.Error(t, err)
	assert.Nil(t, forest)
	assert.True(t, pkgerrors.IsStorageFailure(err))
	assert.Contains(t, err.Error(), "disk I/O error")
	store.AssertExpectations(t)
}

func TestTreeService_CreateNode_ParentLookupFailure(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.MockNodeStore)
	store.On("GetByID", ctx, "p").Return(nil, errors.New("connection reset"))
	svc := NewTreeService(store)

	node, err := svc.CreateNode(ctx, "child", strPtr("p"))

	require.Error(t, err)
	assert.Nil(t, node)
	assert.True(t, pkgerrors.IsStorageFailure(err))
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestTreeService_CreateNode_InsertFailure(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.MockNodeStore)
	store.On("Insert", ctx, mock.AnythingOfType("*entities.NodeRecord")).Return(errors.New("constraint failed"))
	svc := NewTreeService(store)

	node, err := svc.CreateNode(ctx, "root", nil)

	require.Error(t, err)
	assert.Nil(t, node)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	store.AssertExpectations(t)
}

func TestTreeService_CreateNode_AppErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.MockNodeStore)
	unavailable := pkgerrors.NewUnavailableError("node-store")
	store.On("Insert", ctx, mock.Anything).Return(unavailable)
	svc := NewTreeService(store)

	_, err := svc.CreateNode(ctx, "root", nil)

	assert.Same(t, unavailable, pkgerrors.GetAppError(err))
}

func TestTreeService_CreateNode_InsertsNormalizedRecord(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.MockNodeStore)
	parent := entities.ReconstructNodeRecord("p", "parent", nil)
	store.On("GetByID", ctx, "p").Return(parent, nil)
	store.On("Insert", ctx, mock.MatchedBy(func(rec *entities.NodeRecord) bool {
		return rec.Label() == "leaf" && rec.ParentIDString() != nil && *rec.ParentIDString() == "p"
	})).Return(nil)
	svc := NewTreeService(store)

	node, err := svc.CreateNode(ctx, " leaf ", strPtr("p"))

	require.NoError(t, err)
	assert.Equal(t, "leaf", node.Label)
	store.AssertExpectations(t)
}

func TestTreeService_RandomInsertsRoundTrip(t *testing.T) {
	stores := map[string]func(t *testing.T) ports.NodeStore{
		"memory": func(t *testing.T) ports.NodeStore { return memory.NewStore() },
		"sqlite": func(t *testing.T) ports.NodeStore {
			store, err := sqlite.Open(filepath.Join(t.TempDir(), "tree.db"), nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			svc := NewTreeService(store)
			rng := rand.New(rand.NewSource(42))

			const total = 200
			ids := make([]string, 0, total)
			wantParent := make(map[string]string, total)
			for i := 0; i < total; i++ {
				var parentID *string
				if len(ids) > 0 && rng.Intn(4) > 0 {
					parent := ids[rng.Intn(len(ids))]
					parentID = &parent
				}

				node, err := svc.CreateNode(ctx, fmt.Sprintf("node-%d", i), parentID)
				require.NoError(t, err)
				ids = append(ids, node.ID)
				if parentID != nil {
					wantParent[node.ID] = *parentID
				} else {
					wantParent[node.ID] = ""
				}
			}

			first, err := svc.ListForest(ctx)
			require.NoError(t, err)
			second, err := svc.ListForest(ctx)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			assert.Equal(t, total, aggregates.Stats(first).Nodes)

			gotParent := make(map[string]string, total)
			var path []string
			aggregates.Walk(first, func(node *aggregates.TreeNode, depth int) bool {
				path = append(path[:depth], node.ID)
				if depth == 0 {
					gotParent[node.ID] = ""
				} else {
					gotParent[node.ID] = path[depth-1]
				}
				return true
			})
			assert.Equal(t, wantParent, gotParent)

			_, err = svc.CreateNode(ctx, "orphan", strPtr("nope"))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsNotFound(err))

			records, err := store.ScanAll(ctx)
			require.NoError(t, err)
			assert.Len(t, records, total)
		})
	}
}
