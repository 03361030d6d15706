package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
)

func newTestDashboard(m *fakeMarket) *DashboardHandler {
	logger := common.NewSilentLogger()
	pages := NewPageHandler(logger, false)
	h := NewDashboardHandler(logger, pages, newTestService(m, &fakeLLM{}), config.DashboardConfig{
		DefaultTickers:      []string{"AAPL", "GOOGL"},
		DefaultLookbackDays: 30,
	})
	h.now = func() time.Time { return time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestDashboardHandler_DefaultsRenderBothSeries(t *testing.T) {
	h := newTestDashboard(&fakeMarket{})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	for _, want := range []string{
		`value="AAPL"`,
		`value="GOOGL"`,
		`value="2025-05-31"`,
		`max="2025-06-30"`,
		"data-figure=",
		"/export/",
		"Comparative Performance",
		"101.00",
		"1,500,000",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected dashboard to contain %q", want)
		}
	}
}

func TestDashboardHandler_QueryInputs(t *testing.T) {
	h := newTestDashboard(&fakeMarket{})

	req := httptest.NewRequest("GET", "/?ticker1=msft&ticker2=IBM&from=2025-03-03&to=2025-03-10&chart1=candlestick&chart2=bar", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `value="MSFT"`) {
		t.Error("expected ticker to be upper-cased")
	}
	if !strings.Contains(body, `value="candlestick" selected`) {
		t.Error("expected candlestick to be selected for ticker 1")
	}
	if !strings.Contains(body, "07-day MA") {
		t.Error("expected moving average overlay in the candlestick figure")
	}
	if !strings.Contains(body, "2025-03-07") || strings.Contains(body, "<td>2025-03-10</td>") {
		t.Error("expected bars from the start date up to but excluding the end date")
	}
}

func TestDashboardHandler_InvalidDate(t *testing.T) {
	h := newTestDashboard(&fakeMarket{})

	req := httptest.NewRequest("GET", "/?from=yesterday", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "error-banner") {
		t.Error("expected an error banner")
	}
}

func TestDashboardHandler_ProviderError(t *testing.T) {
	h := newTestDashboard(&fakeMarket{err: errors.New("upstream unavailable")})

	req := httptest.NewRequest("GET", "/?from=2025-03-03&to=2025-03-10", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "upstream unavailable") {
		t.Error("expected provider error in the banner")
	}
	if strings.Contains(body, "analyse-button") {
		t.Error("expected no actions without a snapshot")
	}
}

func TestDashboardHandler_XSSEscaping(t *testing.T) {
	h := newTestDashboard(&fakeMarket{})

	req := httptest.NewRequest("GET", "/?ticker1=%3Cscript%3Ealert(1)%3C/script%3E", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<SCRIPT>ALERT(1)</SCRIPT>") {
		t.Error("ticker input rendered unescaped")
	}
}

func TestDashboardHandler_RejectsPOST(t *testing.T) {
	h := newTestDashboard(&fakeMarket{})

	req := httptest.NewRequest("POST", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}
