package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockNode is an httptest-backed JSON-RPC endpoint that stands in for a
// chain node. Tests register per-method handlers; unregistered methods fail
// the request so an unexpected RPC call surfaces as a test error rather than
// a hang.
type MockNode struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	handlers map[string]func(params []json.RawMessage) (interface{}, error)
	calls    map[string]int
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// NewMockNode starts a mock node. It is shut down with the test.
func NewMockNode(t *testing.T) *MockNode {
	t.Helper()
	n := &MockNode{
		t:        t,
		handlers: make(map[string]func(params []json.RawMessage) (interface{}, error)),
		calls:    make(map[string]int),
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

// URL returns the HTTP endpoint of the mock node.
func (n *MockNode) URL() string {
	return n.srv.URL
}

// Handle registers the handler for a JSON-RPC method.
func (n *MockNode) Handle(method string, fn func(params []json.RawMessage) (interface{}, error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = fn
}

// HandleResult registers a handler returning a fixed result.
func (n *MockNode) HandleResult(method string, result interface{}) {
	n.Handle(method, func([]json.RawMessage) (interface{}, error) {
		return result, nil
	})
}

// Calls returns how often a method has been invoked.
func (n *MockNode) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *MockNode) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	fn, ok := n.handlers[req.Method]
	n.calls[req.Method]++
	n.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if !ok {
		resp.Error = &rpcError{Code: -32601, Message: "method not found: " + req.Method}
	} else if result, err := fn(req.Params); err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else if result == nil {
		// A success response must carry the result member even when it is
		// null; omitempty would drop a nil interface entirely.
		resp.Result = json.RawMessage("null")
	} else {
		resp.Result = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// UnmarshalParam decodes the i-th positional parameter into out, failing the
// test on malformed input.
func (n *MockNode) UnmarshalParam(params []json.RawMessage, i int, out interface{}) {
	n.t.Helper()
	if i >= len(params) {
		n.t.Fatalf("missing rpc param %d", i)
	}
	if err := json.Unmarshal(params[i], out); err != nil {
		n.t.Fatalf("decode rpc param %d: %v", i, err)
	}
}
