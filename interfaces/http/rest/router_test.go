package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"labeltree/application/ports"
	"labeltree/domain/core/entities"
	"labeltree/infrastructure/di"
	"labeltree/infrastructure/messaging"
	"labeltree/infrastructure/persistence/memory"
	"labeltree/interfaces/http/rest"
	"labeltree/pkg/observability"
)

type testServer struct {
	server *httptest.Server
	store  *memory.Store
}

func newTestServer(t *testing.T, store ports.NodeStore, readiness ports.HealthChecker) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewCollector("labeltree")
	trees := di.ProvideTreeService(store)

	commandBus, err := di.ProvideCommandBus(trees, messaging.NewNoopPublisher(logger), metrics, logger)
	require.NoError(t, err)
	queryBus, err := di.ProvideQueryBus(trees, metrics, logger)
	require.NoError(t, err)

	router := rest.NewRouter(commandBus, queryBus, readiness, metrics, logger, rest.Options{})
	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server
}

func newMemoryServer(t *testing.T) testServer {
	store := memory.NewStore()
	return testServer{server: newTestServer(t, store, store), store: store}
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeMap(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRouter_EmptyForest(t *testing.T) {
	ts := newMemoryServer(t)

	resp, body := do(t, http.MethodGet, ts.server.URL+"/api/tree", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `[]`, string(body))
}

func TestRouter_CreateAndList(t *testing.T) {
	ts := newMemoryServer(t)

	resp, body := do(t, http.MethodPost, ts.server.URL+"/api/tree", `{"label":"  root  "}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	root := decodeMap(t, body)
	rootID, ok := root["id"].(string)
	require.True(t, ok)
	assert.Len(t, rootID, 36)
	assert.Equal(t, "root", root["label"])
	assert.Contains(t, root, "parentId")
	assert.Nil(t, root["parentId"])
	assert.Equal(t, []interface{}{}, root["children"])

	resp, body = do(t, http.MethodPost, ts.server.URL+"/api/tree", `{"label":"child","parentId":"`+rootID+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	child := decodeMap(t, body)
	assert.Equal(t, rootID, child["parentId"])
	childID := child["id"].(string)

	resp, body = do(t, http.MethodGet, ts.server.URL+"/api/tree", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":"`+rootID+`","label":"root","children":[
		{"id":"`+childID+`","label":"child","parentId":"`+rootID+`","children":[]}
	]}]`, string(body))
}

func TestRouter_WhitespaceLabelStoredEmpty(t *testing.T) {
	ts := newMemoryServer(t)

	resp, body := do(t, http.MethodPost, ts.server.URL+"/api/tree", `{"label":"   "}`)

	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "", decodeMap(t, body)["label"])
	assert.Equal(t, 1, ts.store.Count())
}

func TestRouter_UnknownParent(t *testing.T) {
	ts := newMemoryServer(t)

	resp, body := do(t, http.MethodPost, ts.server.URL+"/api/tree",
		`{"label":"orphan","parentId":"00000000-0000-4000-8000-000000000000"}`)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	out := decodeMap(t, body)
	assert.Equal(t, true, out["error"])
	assert.Equal(t, "NOT_FOUND", out["type"])
	assert.Equal(t, "Parent node with id '00000000-0000-4000-8000-000000000000' not found", out["message"])
	assert.Equal(t, 0, ts.store.Count())
}

func TestRouter_ValidationFailures(t *testing.T) {
	ts := newMemoryServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing label", `{}`, "label is required"},
		{"empty label", `{"label":""}`, "label is required"},
		{"numeric label", `{"label":1}`, "label must be a string"},
		{"numeric parent", `{"label":"x","parentId":false}`, "parentId must be a string"},
		{"unknown field", `{"label":"x","id":"abc"}`, `property "id" should not exist`},
		{"malformed", `{"label"`, "request body is not valid JSON"},
		{"array", `["x"]`, "request body must be a JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.server.URL+"/api/tree", tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			out := decodeMap(t, body)
			assert.Equal(t, "VALIDATION", out["type"])
			assert.Equal(t, tt.message, out["message"])
		})
	}

	assert.Equal(t, 0, ts.store.Count())
}

func TestRouter_EmptyBody(t *testing.T) {
	ts := newMemoryServer(t)

	resp, body := do(t, http.MethodPost, ts.server.URL+"/api/tree", "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "request body is required", decodeMap(t, body)["message"])
}

func TestRouter_DanglingRowsHidden(t *testing.T) {
	ts := newMemoryServer(t)
	ghost := "ghost"
	ts.store.Load(
		&entities.NodeRecord{ID: "a", Label: "kept"},
		&entities.NodeRecord{ID: "b", Label: "lost", ParentID: &ghost},
	)

	resp, body := do(t, http.MethodGet, ts.server.URL+"/api/tree", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":"a","label":"kept","children":[]}]`, string(body))
}

type failingStore struct{}

func (failingStore) ScanAll(context.Context) ([]*entities.NodeRecord, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) GetByID(context.Context, string) (*entities.NodeRecord, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Insert(context.Context, *entities.NodeRecord) error {
	return errors.New("disk on fire")
}

func (failingStore) Ping(context.Context) error {
	return errors.New("disk on fire")
}

func TestRouter_StorageFailure(t *testing.T) {
	store := failingStore{}
	server := newTestServer(t, store, store)

	resp, body := do(t, http.MethodGet, server.URL+"/api/tree", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	out := decodeMap(t, body)
	assert.Equal(t, "DATABASE", out["type"])
	assert.NotContains(t, string(body), "disk on fire")

	resp, _ = do(t, http.MethodPost, server.URL+"/api/tree", `{"label":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, body = do(t, http.MethodGet, server.URL+"/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"unavailable"}`, string(body))
}

func TestRouter_Probes(t *testing.T) {
	ts := newMemoryServer(t)

	resp, body := do(t, http.MethodGet, ts.server.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))

	resp, body = do(t, http.MethodGet, ts.server.URL+"/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ready"}`, string(body))
}

func TestRouter_Metrics(t *testing.T) {
	ts := newMemoryServer(t)

	resp, _ := do(t, http.MethodPost, ts.server.URL+"/api/tree", `{"label":"counted"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.server.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "labeltree_nodes_created_total 1")
}

func TestRouter_UnknownRoutes(t *testing.T) {
	ts := newMemoryServer(t)

	resp, body := do(t, http.MethodGet, ts.server.URL+"/api/nodes", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Cannot GET /api/nodes", decodeMap(t, body)["message"])

	resp, _ = do(t, http.MethodDelete, ts.server.URL+"/api/tree", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_RequestIDEchoedInErrors(t *testing.T) {
	ts := newMemoryServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.server.URL+"/api/tree", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "req-123", out["request_id"])
}
