package command

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/cli/config"
	"github.com/gophercraft/gcportal-go/internal/cli/connection"
	"github.com/gophercraft/gcportal-go/internal/core/validate"
	"github.com/gophercraft/gcportal-go/internal/storage"
	"github.com/gophercraft/gcportal-go/internal/telemetry/logger"
	"github.com/gophercraft/gcportal-go/internal/telemetry/metric"
)

// mockServer is a fake portal API. Handlers are keyed by method and the
// endpoint path below /api/v1/, e.g. "POST login".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, connection.APIPrefix)

		m.mu.Lock()
		m.calls = append(m.calls, key)
		handler := m.handlers[key]
		m.mu.Unlock()

		if handler == nil {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD path".
func (m *mockServer) handle(key string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[key] = handler
}

// reply registers a handler that always answers with data.
func (m *mockServer) reply(key string, data any) {
	m.handle(key, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, data)
	})
}

// count returns how many times "METHOD path" was requested.
func (m *mockServer) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == key {
			n++
		}
	}
	return n
}

func (m *mockServer) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// testEnv is an Env over a memory store with captured output.
type testEnv struct {
	*Env
	store  *storage.MemoryStore
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, server *mockServer) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Server = server.URL
	cfg.Store.Backend = storage.BackendMemory
	cfg.Transport.Timeout = 5 * time.Second
	cfg.Poll.Interval = 10 * time.Millisecond

	store := storage.NewMemoryStore()
	te := &testEnv{
		store:  store,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	te.Env = &Env{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "cli.yaml"),
		Logger:     logger.Discard(),
		Metrics:    metric.NewRegistry(),
		Store:      store,
		Conns:      connection.NewManager(),
		Validator:  validate.New(),
		In:         bufio.NewReader(strings.NewReader("")),
		Out:        te.stdout,
		Err:        te.stderr,
	}
	if err := te.Connect(&connection.Connection{Server: server.URL}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { te.Close() })
	return te
}

// input sets what prompts will read.
func (te *testEnv) input(lines ...string) {
	te.In = bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

// slowReader holds back its first read, like a user taking their time
// at a prompt.
type slowReader struct {
	delay time.Duration
	r     io.Reader
	once  sync.Once
}

func (s *slowReader) Read(p []byte) (int, error) {
	s.once.Do(func() { time.Sleep(s.delay) })
	return s.r.Read(p)
}

// slowInput sets prompt input that only arrives after delay.
func (te *testEnv) slowInput(delay time.Duration, lines ...string) {
	r := strings.NewReader(strings.Join(lines, "\n") + "\n")
	te.In = bufio.NewReader(&slowReader{delay: delay, r: r})
}

// setTimeout reconnects with a different per-request timeout.
func (te *testEnv) setTimeout(t *testing.T, d time.Duration) {
	t.Helper()
	te.Config.Transport.Timeout = d
	if err := te.Connect(&connection.Connection{Server: te.Transport.BaseURL()}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
}

// run executes one command line against the shared Env.
func (te *testEnv) run(args ...string) error {
	app := newApp(te.Env)
	app.Writer = te.stdout
	app.ErrWriter = te.stderr
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app.Run(append([]string{"gcportal-cli"}, args...))
}
