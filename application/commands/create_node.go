package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"labeltree/application/commands/bus"
	"labeltree/application/ports"
	"labeltree/application/services"
	"labeltree/domain/core/aggregates"
	"labeltree/domain/core/valueobjects"
	"labeltree/domain/events"
	pkgerrors "labeltree/pkg/errors"
)

// CreateNodeCommand represents the command to append a node to the tree.
// A nil ParentID creates a new root.
type CreateNodeCommand struct {
	Label    string  `json:"label"`
	ParentID *string `json:"parentId,omitempty"`
}

// Validate checks the label before trimming; whitespace-only labels pass.
func (c CreateNodeCommand) Validate() error {
	if c.Label == "" {
		return pkgerrors.NewValidationError("label is required")
	}
	return nil
}

// NodeCreatedRecorder counts created nodes
type NodeCreatedRecorder interface {
	RecordNodeCreated()
}

// CreateNodeHandler handles the CreateNodeCommand
type CreateNodeHandler struct {
	trees     *services.TreeService
	publisher ports.EventPublisher
	recorder  NodeCreatedRecorder
	logger    *zap.Logger
}

// NewCreateNodeHandler creates a new handler instance. recorder may be nil.
func NewCreateNodeHandler(
	trees *services.TreeService,
	publisher ports.EventPublisher,
	recorder NodeCreatedRecorder,
	logger *zap.Logger,
) *CreateNodeHandler {
	return &CreateNodeHandler{
		trees:     trees,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
	}
}

// Handle executes the create node command and returns the new *aggregates.TreeNode
func (h *CreateNodeHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	createCmd, ok := cmd.(CreateNodeCommand)
	if !ok {
		return nil, fmt.Errorf("invalid command type: expected CreateNodeCommand, got %T", cmd)
	}

	node, err := h.trees.CreateNode(ctx, createCmd.Label, createCmd.ParentID)
	if err != nil {
		return nil, err
	}

	if h.recorder != nil {
		h.recorder.RecordNodeCreated()
	}

	h.publishCreated(ctx, node)

	return node, nil
}

// publishCreated emits node.created. The node is already committed, so a
// failed publish is logged and the command still succeeds.
func (h *CreateNodeHandler) publishCreated(ctx context.Context, node *aggregates.TreeNode) {
	if h.publisher == nil {
		return
	}

	event := events.NewNodeCreated(
		valueobjects.NodeIDFrom(node.ID),
		node.Label,
		node.ParentID,
		time.Now().UTC(),
	)
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish node created event",
			zap.String("nodeID", node.ID),
			zap.Error(err),
		)
	}
}
