package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gophercraft/gcportal-go/internal/cli/connection"
	"github.com/gophercraft/gcportal-go/internal/storage"
	"github.com/gophercraft/gcportal-go/internal/telemetry/logger"
)

// mockAPI is a fake portal server. Routes are keyed by "METHOD path"
// relative to the API prefix.
type mockAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

type recordedRequest struct {
	Method     string
	Path       string
	Credential string
	Body       string
}

func newMockAPI(t *testing.T) *mockAPI {
	t.Helper()
	m := &mockAPI{t: t, routes: make(map[string]http.HandlerFunc)}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, connection.APIPrefix)

	m.mu.Lock()
	m.requests = append(m.requests, recordedRequest{
		Method:     r.Method,
		Path:       path,
		Credential: r.Header.Get(connection.HeaderCredential),
		Body:       string(body),
	})
	h, ok := m.routes[r.Method+" "+path]
	m.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// handle registers a route.
func (m *mockAPI) handle(route string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route] = h
}

// json registers a route answering 200 with a JSON body.
func (m *mockAPI) json(route, body string) {
	m.handle(route, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	})
}

func (m *mockAPI) calls() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedRequest(nil), m.requests...)
}

// countCalls returns how many requests hit route.
func (m *mockAPI) countCalls(route string) int {
	n := 0
	for _, r := range m.calls() {
		if r.Method+" "+r.Path == route {
			n++
		}
	}
	return n
}

// newTestPortal wires a Portal to the mock API through the real HTTP
// transport and an in-memory store.
func newTestPortal(t *testing.T, api *mockAPI) (*Portal, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	log := logger.Discard()
	transport := connection.NewHTTPClient(api.server.URL,
		connection.WithCredentialLoader(TokenLoader(store, log)),
		connection.WithLogger(log))
	return NewPortal(transport, store, WithLogger(log)), store
}

func saveCredential(t *testing.T, store CredentialStore, username, token string) {
	t.Helper()
	if err := store.Save(context.Background(), domainCredential(username, token)); err != nil {
		t.Fatal(err)
	}
}
