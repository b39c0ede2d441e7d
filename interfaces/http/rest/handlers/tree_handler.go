package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"labeltree/application/commands"
	"labeltree/application/commands/bus"
	"labeltree/application/queries"
	querybus "labeltree/application/queries/bus"
	"labeltree/domain/core/aggregates"
	pkgerrors "labeltree/pkg/errors"
	"labeltree/pkg/utils"
)

// maxBodyBytes caps the create request body
const maxBodyBytes = 1 << 20

// TreeHandler handles the /api/tree endpoints
type TreeHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *TreeHandler {
	return &TreeHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateNodeRequest represents the request body for creating a node.
// Label must be a non-empty string before trimming; ParentID is optional and
// a JSON null is treated as absent.
type CreateNodeRequest struct {
	Label    string  `json:"label" validate:"required"`
	ParentID *string `json:"parentId,omitempty"`
}

// CreateNodeResponse is the created node. parentId is always present and
// null for a root.
type CreateNodeResponse struct {
	ID       string                 `json:"id"`
	Label    string                 `json:"label"`
	ParentID *string                `json:"parentId"`
	Children []*aggregates.TreeNode `json:"children"`
}

// GetTree handles GET /api/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListForestQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	forest, ok := result.([]*aggregates.TreeNode)
	if !ok {
		h.errorHandler.Handle(w, r, fmt.Errorf("unexpected list forest result %T", result))
		return
	}

	h.respondJSON(w, http.StatusOK, forest)
}

// CreateNode handles POST /api/tree
func (h *TreeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeCreateNodeRequest(w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateNodeCommand{
		Label:    req.Label,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	node, ok := result.(*aggregates.TreeNode)
	if !ok {
		h.errorHandler.Handle(w, r, fmt.Errorf("unexpected create node result %T", result))
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateNodeResponse{
		ID:       node.ID,
		Label:    node.Label,
		ParentID: node.ParentID,
		Children: node.Children,
	})
}

// DecodeCreateNodeRequest reads and validates a create request. Every
// failure is returned as a validation AppError.
func DecodeCreateNodeRequest(w http.ResponseWriter, r *http.Request) (*CreateNodeRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var req CreateNodeRequest
	if err := dec.Decode(&req); err != nil {
		return nil, decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, pkgerrors.NewValidationError("request body must contain a single JSON object")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	return &req, nil
}

func decodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.Is(err, io.EOF):
		return pkgerrors.NewValidationError("request body is required")
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return pkgerrors.NewValidationError("request body is not valid JSON")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return pkgerrors.NewValidationError("request body must be a JSON object")
		}
		return pkgerrors.NewValidationError(fmt.Sprintf("%s must be a string", typeErr.Field))
	case errors.As(err, &maxBytesErr):
		return pkgerrors.NewValidationError("request body is too large")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return pkgerrors.NewValidationError(fmt.Sprintf("property %s should not exist", field)).
			WithDetails(map[string]interface{}{"field": strings.Trim(field, `"`)})
	default:
		return pkgerrors.NewValidationError("invalid request body").WithCause(err)
	}
}

func (h *TreeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
