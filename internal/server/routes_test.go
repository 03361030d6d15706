package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/stock-compare/internal/app"
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/llm"
	"github.com/bobmcallan/stock-compare/internal/models"
)

type stubMarket struct{}

func (stubMarket) Name() string { return "stub" }

func (stubMarket) GetHistory(_ context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	s := &models.PriceSeries{Ticker: ticker, Provider: "stub", From: from, To: to}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		s.Bars = append(s.Bars, models.PriceBar{Date: d, Open: 50, High: 52, Low: 49, Close: 51, AdjClose: 51, Volume: 42})
	}
	return s, nil
}

type stubLLM struct{}

func (stubLLM) Name() llm.ProviderType { return "stub" }
func (stubLLM) Model() string          { return "stub-1" }
func (stubLLM) Complete(_ context.Context, _ []llm.Message) (*llm.Completion, error) {
	return &llm.Completion{Text: "**Both** moved sideways.", Provider: "stub", Model: "stub-1"}, nil
}
func (s stubLLM) Provider(_ context.Context, _ string) (llm.Provider, error) { return s, nil }

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir()

	application, err := app.New(cfg, common.NewSilentLogger(),
		app.WithMarketSource(func(context.Context) (interfaces.MarketDataProvider, error) { return stubMarket{}, nil }),
		app.WithLLMSource(stubLLM{}),
	)
	if err != nil {
		t.Fatalf("failed to create test app: %v", err)
	}

	t.Cleanup(func() {
		application.Close()
	})

	return application
}

// withCSRF attaches a matching _csrf cookie and header.
func withCSRF(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: "test-token"})
	req.Header.Set("X-CSRF-Token", "test-token")
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func compareSnapshot(t *testing.T, srv *Server) string {
	t.Helper()
	w := serve(srv, httptest.NewRequest("GET", "/api/compare?ticker1=AAPL&ticker2=GOOGL&from=2025-01-02&to=2025-01-16", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("compare: expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	return body.ID
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %s", body.Status)
	}
	for _, name := range []string{"storage", "market"} {
		if body.Checks[name] != "ok" {
			t.Errorf("expected %s check ok, got %q", name, body.Checks[name])
		}
	}
}

func TestRoutes_VersionEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/api/version", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, ok := body["version"]; !ok {
		t.Error("expected version field in response")
	}
}

func TestRoutes_APINotFound(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/api/nonexistent", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON 404, got %s", w.Header().Get("Content-Type"))
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected valid JSON body: %v", err)
	}
	if body["error"] != "no API route for GET /api/nonexistent" {
		t.Errorf("unexpected error message %q", body["error"])
	}
}

func TestRoutes_UnknownPage(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestRoutes_DashboardPage(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/?from=2025-01-02&to=2025-01-09", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	for _, want := range []string{"Stock Comparison Dashboard", "compare.css", "plotly", "AAPL", "GOOGL", "/export/"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected dashboard to contain %q", want)
		}
	}
}

func TestRoutes_SettingsPage(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/settings", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "API Keys") {
		t.Error("expected settings page to list API keys")
	}
}

func TestRoutes_SnapshotChartAndExport(t *testing.T) {
	srv := New(newTestApp(t))
	id := compareSnapshot(t, srv)

	w := serve(srv, httptest.NewRequest("GET", "/api/snapshots/"+id, nil))
	if w.Code != http.StatusOK {
		t.Errorf("snapshot: expected status 200, got %d", w.Code)
	}

	w = serve(srv, httptest.NewRequest("GET", "/api/snapshots/"+id+"/chart/2.png?type=candlestick", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("chart: expected png, got %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	for _, path := range []string{"/export/" + id, "/api/snapshots/" + id + "/export"} {
		w = serve(srv, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
		if !strings.Contains(w.Header().Get("Content-Disposition"), "stock_data.xlsx") {
			t.Errorf("%s: unexpected disposition %s", path, w.Header().Get("Content-Disposition"))
		}
	}
}

func TestRoutes_AnalysisRequiresCSRF(t *testing.T) {
	srv := New(newTestApp(t))
	id := compareSnapshot(t, srv)

	w := serve(srv, httptest.NewRequest("POST", "/api/snapshots/"+id+"/analysis", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403 without CSRF token, got %d", w.Code)
	}

	w = serve(srv, withCSRF(httptest.NewRequest("POST", "/api/snapshots/"+id+"/analysis", strings.NewReader(`{}`))))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var analysis struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !strings.Contains(analysis.HTML, "<strong>Both</strong>") {
		t.Errorf("expected rendered analysis HTML, got %q", analysis.HTML)
	}
	if !strings.Contains(analysis.Markdown, "**Both**") {
		t.Errorf("expected markdown source, got %q", analysis.Markdown)
	}
}

func TestRoutes_AnalysisRejectsGET(t *testing.T) {
	srv := New(newTestApp(t))
	id := compareSnapshot(t, srv)

	w := serve(srv, httptest.NewRequest("GET", "/api/snapshots/"+id+"/analysis", nil))
	if w.Code == http.StatusOK {
		t.Error("expected analysis to require POST")
	}
}

func TestRoutes_SettingsKeys(t *testing.T) {
	for _, name := range []string{"OPENAI_API_KEY", "OPEN_AI_KEY", "COMPARE_OPENAI_API_KEY"} {
		t.Setenv(name, "")
	}
	srv := New(newTestApp(t))

	req := withCSRF(httptest.NewRequest("PUT", "/api/settings/keys/openai_api_key", strings.NewReader(`{"value":"sk-routes-12345678"}`)))
	w := serve(srv, req)
	if w.Code != http.StatusOK {
		t.Fatalf("put: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(srv, httptest.NewRequest("GET", "/api/settings/keys/openai_api_key", nil))
	var status map[string]string
	json.Unmarshal(w.Body.Bytes(), &status)
	if status["source"] != "stored" || status["masked"] != "sk...78" {
		t.Errorf("unexpected key status %v", status)
	}

	w = serve(srv, withCSRF(httptest.NewRequest("POST", "/api/settings/keys/openai_api_key", nil)))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405 for POST, got %d", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "DELETE, GET, PUT" {
		t.Errorf("expected Allow header DELETE, GET, PUT, got %q", got)
	}

	w = serve(srv, httptest.NewRequest("GET", "/api/settings/keys", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "eodhd_api_key") {
		t.Errorf("list: unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestRoutes_MCPEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := serve(srv, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "stock-compare") {
		t.Errorf("expected server info in initialize result, got %s", w.Body.String())
	}
}

func TestRoutes_MCPRejectsOtherOrigins(t *testing.T) {
	srv := New(newTestApp(t))
	call := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"compare_stocks","arguments":{"ticker1":"AAPL","ticker2":"MSFT","from":"2025-01-02","to":"2025-01-09"}}}`

	tests := []struct {
		name   string
		method string
		origin string
		want   int
	}{
		{"preflight from another site", "OPTIONS", "https://evil.example", http.StatusForbidden},
		{"tool call from another site", "POST", "https://evil.example", http.StatusForbidden},
		{"tool call from a port on the same host name", "POST", "http://example.com:9999", http.StatusForbidden},
		{"malformed origin", "POST", "null", http.StatusForbidden},
		{"tool call from the dashboard origin", "POST", "http://example.com", http.StatusOK},
		{"tool call without origin", "POST", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/mcp", strings.NewReader(call))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := serve(srv, req)

			if w.Code != tt.want {
				t.Fatalf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if acao := w.Header().Get("Access-Control-Allow-Origin"); acao != "" {
				t.Errorf("expected no CORS grant on /mcp, got %q", acao)
			}
			if tt.want == http.StatusForbidden && strings.Contains(w.Body.String(), "snapshot_id") {
				t.Error("rejected request must not run the tool")
			}
		})
	}
}

func TestRoutes_MiddlewareApplied(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/api/health", nil))

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected X-Correlation-ID header from middleware")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header from middleware")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options header from security middleware")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected Content-Security-Policy header from security middleware")
	}
}

func TestRoutes_CSRFCookieOnDashboard(t *testing.T) {
	srv := New(newTestApp(t))

	w := serve(srv, httptest.NewRequest("GET", "/?from=2025-01-02&to=2025-01-09", nil))

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "_csrf" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected _csrf cookie to be set on dashboard response")
	}
}
