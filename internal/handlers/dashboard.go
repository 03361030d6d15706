package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/stock-compare/internal/chart"
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/compare"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/models"
)

// DashboardForm holds the sidebar inputs as the page echoes them back.
type DashboardForm struct {
	Ticker1 string
	Ticker2 string
	From    string
	To      string
	Chart1  models.ChartType
	Chart2  models.ChartType
	MaxDate string
}

// SeriesPanel is one column of the dashboard: a table and a chart.
type SeriesPanel struct {
	N         int
	Ticker    string
	ChartType models.ChartType
	Series    *models.PriceSeries
	Figure    string
	ChartURL  string
}

// DashboardHandler serves the comparison page.
type DashboardHandler struct {
	logger   *common.Logger
	pages    *PageHandler
	service  *compare.Service
	defaults config.DashboardConfig
	now      func() time.Time
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(logger *common.Logger, pages *PageHandler, service *compare.Service, defaults config.DashboardConfig) *DashboardHandler {
	return &DashboardHandler{
		logger:   logger,
		pages:    pages,
		service:  service,
		defaults: defaults,
		now:      time.Now,
	}
}

// ServeHTTP renders the dashboard. Every request reads the form inputs from the
// query string, refetches both series and renders them.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	form := h.readForm(r)
	data := map[string]interface{}{
		"Form":       form,
		"ChartTypes": models.ChartTypes,
	}

	req, err := form.request()
	if err != nil {
		data["Error"] = err.Error()
		h.pages.Render(w, http.StatusBadRequest, "dashboard.html", "dashboard", data)
		return
	}

	snap, err := h.service.Compare(r.Context(), req)
	if err != nil {
		status := StatusForError(err)
		h.logger.Warn().
			Str("ticker1", form.Ticker1).
			Str("ticker2", form.Ticker2).
			Int("status", status).
			Err(err).
			Msg("dashboard comparison failed")
		data["Error"] = err.Error()
		h.pages.Render(w, status, "dashboard.html", "dashboard", data)
		return
	}

	panels, err := buildPanels(snap)
	if err != nil {
		h.logger.Error().Str("snapshot", snap.ID).Err(err).Msg("failed to encode chart figures")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data["Snapshot"] = snap
	data["Panels"] = panels
	data["ExportURL"] = "/export/" + snap.ID
	data["AnalysisURL"] = "/api/snapshots/" + snap.ID + "/analysis"
	h.pages.Render(w, http.StatusOK, "dashboard.html", "dashboard", data)
}

// readForm reads the inputs from the query string, filling defaults for
// anything missing.
func (h *DashboardHandler) readForm(r *http.Request) DashboardForm {
	q := r.URL.Query()
	end := today(h.now())

	lookback := h.defaults.DefaultLookbackDays
	if lookback <= 0 {
		lookback = 90
	}

	ticker1, ticker2 := "AAPL", "GOOGL"
	if len(h.defaults.DefaultTickers) > 0 {
		ticker1 = h.defaults.DefaultTickers[0]
	}
	if len(h.defaults.DefaultTickers) > 1 {
		ticker2 = h.defaults.DefaultTickers[1]
	}

	form := DashboardForm{
		Ticker1: valueOr(q.Get("ticker1"), ticker1),
		Ticker2: valueOr(q.Get("ticker2"), ticker2),
		From:    valueOr(q.Get("from"), end.AddDate(0, 0, -lookback).Format(dateLayout)),
		To:      valueOr(q.Get("to"), end.Format(dateLayout)),
		Chart1:  models.ParseChartType(q.Get("chart1")),
		Chart2:  models.ParseChartType(q.Get("chart2")),
		MaxDate: end.Format(dateLayout),
	}
	form.Ticker1 = strings.ToUpper(strings.TrimSpace(form.Ticker1))
	form.Ticker2 = strings.ToUpper(strings.TrimSpace(form.Ticker2))
	return form
}

func (f DashboardForm) request() (models.CompareRequest, error) {
	from, err := parseDate(f.From)
	if err != nil {
		return models.CompareRequest{}, fmt.Errorf("invalid start date %q", f.From)
	}
	to, err := parseDate(f.To)
	if err != nil {
		return models.CompareRequest{}, fmt.Errorf("invalid end date %q", f.To)
	}
	return models.CompareRequest{
		Ticker1:    f.Ticker1,
		Ticker2:    f.Ticker2,
		From:       from,
		To:         to,
		ChartType1: f.Chart1,
		ChartType2: f.Chart2,
	}, nil
}

func buildPanels(snap *models.Snapshot) ([]SeriesPanel, error) {
	panels := []SeriesPanel{
		{N: 1, Ticker: snap.Request.Ticker1, ChartType: snap.Request.ChartType1, Series: snap.Series1},
		{N: 2, Ticker: snap.Request.Ticker2, ChartType: snap.Request.ChartType2, Series: snap.Series2},
	}
	for i := range panels {
		p := &panels[i]
		fig, err := json.Marshal(chart.BuildFigure(p.Series, p.ChartType))
		if err != nil {
			return nil, err
		}
		p.Figure = string(fig)
		p.ChartURL = fmt.Sprintf("/api/snapshots/%s/chart/%d.png", snap.ID, p.N)
	}
	return panels, nil
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
