package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/stock-compare/internal/chart"
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/compare"
	"github.com/bobmcallan/stock-compare/internal/export"
	"github.com/bobmcallan/stock-compare/internal/models"
)

// CompareResponse is a snapshot plus the chart figures of both series.
type CompareResponse struct {
	*models.Snapshot
	Figures   [2]chart.Figure `json:"figures"`
	ExportURL string          `json:"export_url"`
}

// APIHandler serves the JSON, chart and export endpoints.
type APIHandler struct {
	logger  *common.Logger
	service *compare.Service
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(logger *common.Logger, service *compare.Service) *APIHandler {
	return &APIHandler{logger: logger, service: service}
}

// HandlePrices handles GET /api/prices?ticker=&from=&to=.
func (h *APIHandler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "from must be a yyyy-mm-dd date")
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "to must be a yyyy-mm-dd date")
		return
	}

	series, err := h.service.History(r.Context(), q.Get("ticker"), from, to)
	if err != nil {
		writeServiceError(w, h.logger, "prices", err)
		return
	}
	WriteJSON(w, http.StatusOK, series)
}

// HandleCompare handles GET /api/compare?ticker1=&ticker2=&from=&to=&chart1=&chart2=.
func (h *APIHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "from must be a yyyy-mm-dd date")
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "to must be a yyyy-mm-dd date")
		return
	}

	snap, err := h.service.Compare(r.Context(), models.CompareRequest{
		Ticker1:    q.Get("ticker1"),
		Ticker2:    q.Get("ticker2"),
		From:       from,
		To:         to,
		ChartType1: models.ParseChartType(q.Get("chart1")),
		ChartType2: models.ParseChartType(q.Get("chart2")),
	})
	if err != nil {
		writeServiceError(w, h.logger, "compare", err)
		return
	}
	WriteJSON(w, http.StatusOK, compareResponse(snap))
}

// HandleSnapshot handles GET /api/snapshots/{id}.
func (h *APIHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "snapshot", err)
		return
	}
	WriteJSON(w, http.StatusOK, compareResponse(snap))
}

// HandleChart handles GET /api/snapshots/{id}/chart/{file} where file is
// "1.png" or "2.png". Optional query parameters: type, width, height.
func (h *APIHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	n, ok := chartIndex(r.PathValue("file"))
	if !ok {
		WriteError(w, http.StatusNotFound, "chart must be 1.png or 2.png")
		return
	}

	q := r.URL.Query()
	var chartType models.ChartType
	if t := q.Get("type"); t != "" {
		chartType = models.ParseChartType(t)
	}
	width, _ := strconv.Atoi(q.Get("width"))
	height, _ := strconv.Atoi(q.Get("height"))
	if width > 4000 || height > 4000 {
		WriteError(w, http.StatusBadRequest, "chart dimensions too large")
		return
	}

	png, err := h.service.Chart(r.PathValue("id"), n, chartType, width, height)
	if err != nil {
		if errors.Is(err, compare.ErrSnapshotNotFound) {
			writeServiceError(w, h.logger, "chart", err)
			return
		}
		h.logger.Error().Str("snapshot", r.PathValue("id")).Int("series", n).Err(err).Msg("chart render failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(png)
}

// HandleExport handles GET /export/{id} and GET /api/snapshots/{id}/export.
func (h *APIHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var buf bytes.Buffer
	if err := h.service.Export(&buf, id); err != nil {
		if errors.Is(err, compare.ErrSnapshotNotFound) {
			writeServiceError(w, h.logger, "export", err)
			return
		}
		h.logger.Error().Str("snapshot", id).Err(err).Msg("export failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())

	h.logger.Info().Str("snapshot", id).Int("bytes", buf.Len()).Msg("workbook exported")
}

// HandleAnalysis handles POST /api/snapshots/{id}/analysis with an optional
// JSON body {"model": "..."}.
func (h *APIHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Model string `json:"model"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	analysis, err := h.service.Analyse(r.Context(), r.PathValue("id"), body.Model)
	if err != nil {
		writeServiceError(w, h.logger, "analysis", err)
		return
	}
	WriteJSON(w, http.StatusOK, analysis)
}

func compareResponse(snap *models.Snapshot) CompareResponse {
	return CompareResponse{
		Snapshot: snap,
		Figures: [2]chart.Figure{
			chart.BuildFigure(snap.Series1, snap.Request.ChartType1),
			chart.BuildFigure(snap.Series2, snap.Request.ChartType2),
		},
		ExportURL: "/export/" + snap.ID,
	}
}

func chartIndex(file string) (int, bool) {
	switch strings.TrimSuffix(file, ".png") {
	case "1":
		return 1, true
	case "2":
		return 2, true
	default:
		return 0, false
	}
}
