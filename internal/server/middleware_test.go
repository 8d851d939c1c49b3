package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/flowbreak/focusagent/internal/focus"
	"github.com/flowbreak/focusagent/internal/store"
)

const lateAnalyzeBody = `{"sessionId":"late","focusScore":40,"maxScore":100,` +
	`"attentionBreaks":12,"idleMinutes":35,"domainStats":{"youtube.com":20}}`

func TestSlowFocusRoutesTimeOut(t *testing.T) {
	srv := testServerWithStore(
		t, ctxStore{Store: store.NewMemory()}, 10*time.Millisecond,
		withHandlerDelay(100*time.Millisecond),
	)
	seeded := focus.SessionMetrics{
		SessionID: "s1", FocusScore: 95, MaxScore: 100,
		DomainStats: map[string]int{},
	}
	if _, err := srv.agent.Analyze(context.Background(), seeded); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		// leak is text that only a completed handler would write.
		leak string
	}{
		{"Analyze", http.MethodPost, "/analyze", lateAnalyzeBody, "primaryIssue"},
		{"AnalyzeV1", http.MethodPost, "/api/v1/analyze", lateAnalyzeBody, "primaryIssue"},
		{"Chat", http.MethodPost, "/chat",
			`{"sessionId":"s1","question":"score?"}`, "Focus Score"},
		{"ChatV1", http.MethodPost, "/api/v1/chat",
			`{"sessionId":"s1","question":"score?"}`, "Focus Score"},
		{"Events", http.MethodPost, "/api/v1/sessions/late-events/analyze",
			`{"events":[{"event_type":"TAB_SWITCH","domain":"github.com"}]}`,
			"attentionBreakDetails"},
		{"Health", http.MethodGet, "/health", "", "sessionCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(
				tt.method, ts.URL+tt.path, strings.NewReader(tt.body),
			)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := ts.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			body := readTimedOut(t, resp)
			if strings.Contains(body, tt.leak) {
				t.Errorf("timed-out response leaked %q: %s", tt.leak, body)
			}
		})
	}

	got := testutil.ToFloat64(
		srv.metrics.RequestsTotal.WithLabelValues("POST /analyze", "5xx"),
	)
	if got != 1 {
		t.Errorf("POST /analyze 5xx = %v, want 1", got)
	}

	// The delayed handlers finish after their deadline and must not
	// store the late sessions.
	time.Sleep(300 * time.Millisecond)
	n, err := srv.agent.SessionCount(context.Background())
	if err != nil {
		t.Fatalf("SessionCount: %v", err)
	}
	if n != 1 {
		t.Errorf("SessionCount = %d, want only the seeded session", n)
	}
}

func TestFastRoutesDoNotTimeOut(t *testing.T) {
	t.Parallel()
	srv := testServer(t, 5*time.Second)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"Analyze", http.MethodPost, "/analyze", lateAnalyzeBody, http.StatusOK},
		{"Chat", http.MethodPost, "/chat",
			`{"sessionId":"late","question":"score"}`, http.StatusOK},
		{"Metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"UnknownPath", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	// Subtests run in order so /chat sees the analyzed session.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(
				tt.method, ts.URL+tt.path, strings.NewReader(tt.body),
			)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := ts.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if isTimeoutBody(resp.StatusCode, body) {
				t.Fatalf("%s: unexpected timeout", tt.path)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s",
					resp.StatusCode, tt.wantStatus, body)
			}
		})
	}
}

func TestContentTypeWrapper(t *testing.T) {
	t.Parallel()

	write := func(ct string, status int) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		cw := &contentTypeWrapper{
			ResponseWriter: w,
			contentType:    "application/json",
			triggerStatus:  http.StatusServiceUnavailable,
		}
		if ct != "" {
			cw.Header().Set("Content-Type", ct)
		}
		cw.WriteHeader(status)
		return w
	}

	tests := []struct {
		name   string
		preset string
		status int
		want   string
	}{
		{"TimeoutWithoutType", "", http.StatusServiceUnavailable, "application/json"},
		{"TimeoutKeepsType", "text/plain", http.StatusServiceUnavailable, "text/plain"},
		{"OtherStatus", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := write(tt.preset, tt.status)
			if got := w.Header().Get("Content-Type"); got != tt.want {
				t.Errorf("Content-Type = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogMiddlewareRequestID(t *testing.T) {
	t.Parallel()
	srv := testServer(t, 5*time.Second)
	h := srv.Handler()

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assertRecorderStatus(t, w, http.StatusOK)
		if id := w.Header().Get(requestIDHeader); len(id) != 36 {
			t.Errorf("X-Request-ID = %q, want a UUID", id)
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		h.ServeHTTP(w, req)
		if id := w.Header().Get(requestIDHeader); id != "abc-123" {
			t.Errorf("X-Request-ID = %q, want %q", id, "abc-123")
		}
	})
}

func TestLogMiddlewareRecordsRoute(t *testing.T) {
	t.Parallel()
	srv := testServer(t, 5*time.Second)
	h := srv.Handler()

	for range 2 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		assertRecorderStatus(t, w, http.StatusOK)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assertRecorderStatus(t, w, http.StatusNotFound)

	got := testutil.ToFloat64(
		srv.metrics.RequestsTotal.WithLabelValues("GET /api/v1/health", "2xx"),
	)
	if got != 2 {
		t.Errorf("health requests = %v, want 2", got)
	}
	got = testutil.ToFloat64(
		srv.metrics.RequestsTotal.WithLabelValues("unmatched", "4xx"),
	)
	if got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()
	srv := testServer(t, 5*time.Second)

	panicky := srv.withTimeout(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := srv.logMiddleware(srv.recoverMiddleware(panicky))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze", nil))

	assertRecorderStatus(t, w, http.StatusInternalServerError)
	var je jsonError
	if err := json.Unmarshal(w.Body.Bytes(), &je); err != nil {
		t.Fatalf("body is not JSON: %v (%q)", err, w.Body.String())
	}
	if !strings.HasPrefix(je.Error, "internal error: ") ||
		!strings.Contains(je.Error, "boom") {
		t.Errorf("error = %q, want internal error mentioning boom", je.Error)
	}
	if got := testutil.ToFloat64(srv.metrics.PanicsTotal); got != 1 {
		t.Errorf("panics_total = %v, want 1", got)
	}
}
