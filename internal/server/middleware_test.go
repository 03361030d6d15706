package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/stock-compare/internal/common"
)

func newTestServer() *Server {
	return &Server{logger: common.NewSilentLogger()}
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := chain(http.HandlerFunc(okHandler), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("expected a,b,c, got %v", order)
	}
}

func TestWithCorrelationID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"generated", "", ""},
		{"request id", "X-Request-ID", "req-123"},
		{"correlation id", "X-Correlation-ID", "corr-456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := withCorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = CorrelationID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if seen == "" {
				t.Fatal("expected correlation ID in context")
			}
			if tt.value != "" && seen != tt.value {
				t.Errorf("expected %s, got %s", tt.value, seen)
			}
			if w.Header().Get("X-Correlation-ID") != seen {
				t.Errorf("expected response header %s, got %s", seen, w.Header().Get("X-Correlation-ID"))
			}
		})
	}
}

func TestCorrelationID_OutsideRequest(t *testing.T) {
	if id := CorrelationID(httptest.NewRequest("GET", "/", nil).Context()); id != "" {
		t.Errorf("expected empty ID, got %s", id)
	}
}

func TestAllowCORS(t *testing.T) {
	called := false
	h := allowCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/compare", nil))

	if called {
		t.Error("expected preflight to be answered by the middleware")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-CSRF-Token") {
		t.Errorf("expected X-CSRF-Token in allowed headers, got %s", w.Header().Get("Access-Control-Allow-Headers"))
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/compare", nil))
	if !called || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected GET to pass through with CORS headers")
	}
}

func TestSameOriginOnly(t *testing.T) {
	h := sameOriginOnly("/mcp")(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		path   string
		host   string
		origin string
		want   int
	}{
		{"no origin", "/mcp", "localhost:4250", "", http.StatusOK},
		{"same origin", "/mcp", "localhost:4250", "http://localhost:4250", http.StatusOK},
		{"host case ignored", "/mcp", "LocalHost:4250", "http://localhost:4250", http.StatusOK},
		{"other site", "/mcp", "localhost:4250", "https://evil.example", http.StatusForbidden},
		{"other port", "/mcp", "localhost:4250", "http://localhost:3000", http.StatusForbidden},
		{"opaque origin", "/mcp", "localhost:4250", "null", http.StatusForbidden},
		{"sub path", "/mcp/stream", "localhost:4250", "https://evil.example", http.StatusForbidden},
		{"other paths untouched", "/api/compare", "localhost:4250", "https://evil.example", http.StatusOK},
		{"prefix is not a match", "/mcpx", "localhost:4250", "https://evil.example", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAllowCORS_SkipsMCP(t *testing.T) {
	called := false
	h := allowCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/mcp", nil))

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no CORS headers on /mcp")
	}
	if !called {
		t.Error("expected /mcp preflight to reach the next handler")
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	securityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s: expected %q, got %q", header, value, got)
		}
	}

	csp := w.Header().Get("Content-Security-Policy")
	for _, directive := range []string{"default-src 'self'", "https://cdn.jsdelivr.net", "img-src 'self' data: blob:"} {
		if !strings.Contains(csp, directive) {
			t.Errorf("expected CSP to contain %q, got %s", directive, csp)
		}
	}
}

func TestRecoverPanics(t *testing.T) {
	s := newTestServer()
	h := s.recoverPanics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestLogRequests_RecordsStatusAndBytes(t *testing.T) {
	s := newTestServer()

	var rec *recorder
	h := s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec = w.(*recorder)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if rec.status != http.StatusTeapot {
		t.Errorf("expected recorded status 418, got %d", rec.status)
	}
	if rec.bytes != len("short and stout") {
		t.Errorf("expected %d bytes, got %d", len("short and stout"), rec.bytes)
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("expected status to reach the client, got %d", w.Code)
	}
}

func TestRecorder_Flush(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &recorder{ResponseWriter: w, status: http.StatusOK}

	rec.Flush()

	if !w.Flushed {
		t.Error("expected Flush to reach the underlying writer")
	}
	if rec.Unwrap() != w {
		t.Error("expected Unwrap to return the underlying writer")
	}
}

func TestLimitBody(t *testing.T) {
	h := limitBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		body string
		want int
	}{
		{"small", http.StatusOK},
		{strings.Repeat("x", 17), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader(tt.body)))
		if w.Code != tt.want {
			t.Errorf("body of %d bytes: expected status %d, got %d", len(tt.body), tt.want, w.Code)
		}
	}
}

func TestCSRFGuard(t *testing.T) {
	guard := csrfGuard{exempt: []string{"/mcp"}}
	h := guard.wrap(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		method string
		path   string
		cookie string
		header string
		want   int
	}{
		{"GET without token", "GET", "/", "", "", http.StatusOK},
		{"HEAD without token", "HEAD", "/", "", "", http.StatusOK},
		{"OPTIONS without token", "OPTIONS", "/api/compare", "", "", http.StatusOK},
		{"POST without token", "POST", "/api/snapshots/x/analysis", "", "", http.StatusForbidden},
		{"PUT without header", "PUT", "/api/settings/keys/openai_api_key", "tok", "", http.StatusForbidden},
		{"DELETE without cookie", "DELETE", "/api/settings/keys/openai_api_key", "", "tok", http.StatusForbidden},
		{"mismatched token", "POST", "/api/snapshots/x/analysis", "tok", "other", http.StatusForbidden},
		{"matching token", "POST", "/api/snapshots/x/analysis", "tok", "tok", http.StatusOK},
		{"mcp exempt", "POST", "/mcp", "", "", http.StatusOK},
		{"mcp prefix is not a match", "POST", "/mcpx", "", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeader, tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCSRFGuard_IssuesCookieOnGET(t *testing.T) {
	h := csrfGuard{}.wrap(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	var issued *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookie {
			issued = c
		}
	}
	if issued == nil {
		t.Fatal("expected _csrf cookie on GET response")
	}
	if issued.HttpOnly {
		t.Error("expected cookie readable from JavaScript")
	}
	if issued.Value == "" {
		t.Error("expected non-empty token")
	}

	// An existing cookie is kept
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(issued)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no new cookie when one is already present")
	}
}
