package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowbreak/focusagent/internal/agent"
	"github.com/flowbreak/focusagent/internal/config"
	"github.com/flowbreak/focusagent/internal/focus"
	"github.com/flowbreak/focusagent/internal/store"
)

// testServer creates a Server backed by an in-memory store with
// the given write timeout.
func testServer(
	t *testing.T, writeTimeout time.Duration,
) *Server {
	return testServerOpts(t, writeTimeout)
}

type testOption func(*Server)

// withHandlerDelay makes every timeout-wrapped handler sleep
// before running.
func withHandlerDelay(d time.Duration) testOption {
	return func(s *Server) { s.handlerDelay = d }
}

func testServerOpts(
	t *testing.T, writeTimeout time.Duration, opts ...testOption,
) *Server {
	t.Helper()
	return testServerWithStore(t, store.NewMemory(), writeTimeout, opts...)
}

func testServerWithStore(
	t *testing.T, st store.Store, writeTimeout time.Duration,
	opts ...testOption,
) *Server {
	t.Helper()
	cfg := config.Config{
		Host:         "127.0.0.1",
		Port:         0,
		Store:        store.KindMemory,
		DataDir:      t.TempDir(),
		WriteTimeout: writeTimeout,
	}
	s := New(cfg, agent.New(st))
	for _, opt := range opts {
		opt(s)
	}
	if s.handlerDelay > 0 {
		// Rewrap the handlers so they pick up the delay.
		s.mux = http.NewServeMux()
		s.routes()
	}
	return s
}

// readTimedOut reads resp and fails unless it is the JSON 503
// written by withTimeout. It returns the body.
func readTimedOut(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !isTimeoutBody(resp.StatusCode, body) {
		t.Fatalf("want timeout 503, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	return string(body)
}

// isTimeoutBody reports whether status and body are the timeout
// response.
func isTimeoutBody(status int, body []byte) bool {
	if status != http.StatusServiceUnavailable {
		return false
	}
	var je jsonError
	return json.Unmarshal(body, &je) == nil &&
		je.Error == "request timed out"
}

// assertRecorderStatus checks that the recorder has the
// expected HTTP status code.
func assertRecorderStatus(
	t *testing.T, w *httptest.ResponseRecorder, code int,
) {
	t.Helper()
	if w.Code != code {
		t.Fatalf(
			"expected status %d, got %d: %s",
			code, w.Code, w.Body.String(),
		)
	}
}

// expiredCtx returns a context with a deadline in the past.
func expiredCtx(
	t *testing.T,
) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithDeadline(
		context.Background(), time.Now().Add(-1*time.Hour),
	)
}

// ctxStore is a store that honours context cancellation, as the
// SQLite backend does.
type ctxStore struct {
	store.Store
}

func (c ctxStore) Put(ctx context.Context, sc focus.SessionContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Store.Put(ctx, sc)
}

func (c ctxStore) Get(ctx context.Context, id string) (focus.SessionContext, error) {
	if err := ctx.Err(); err != nil {
		return focus.SessionContext{}, err
	}
	return c.Store.Get(ctx, id)
}

func (c ctxStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.Store.Count(ctx)
}
