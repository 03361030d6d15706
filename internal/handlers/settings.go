package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
)

// KeyStatus describes one API key without revealing its value.
type KeyStatus struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Source string `json:"source"`
	Masked string `json:"masked"`
}

// SettingsHandler serves the settings page and the API key endpoints.
// Keys saved here live in the KV store; environment variables still win.
type SettingsHandler struct {
	logger    *common.Logger
	pages     *PageHandler
	kv        interfaces.KeyValueStorage
	fallbacks map[string]string
}

// NewSettingsHandler creates a settings handler. fallbacks maps key names to
// the values from the config file.
func NewSettingsHandler(logger *common.Logger, pages *PageHandler, kv interfaces.KeyValueStorage, fallbacks map[string]string) *SettingsHandler {
	return &SettingsHandler{
		logger:    logger,
		pages:     pages,
		kv:        kv,
		fallbacks: fallbacks,
	}
}

// ServeHTTP renders GET /settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	h.pages.Render(w, http.StatusOK, "settings.html", "settings", map[string]interface{}{
		"Keys": h.statuses(r),
	})
}

// HandleListKeys handles GET /api/settings/keys.
func (h *SettingsHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"keys": h.statuses(r),
	})
}

// HandleGetKey handles GET /api/settings/keys/{name}.
func (h *SettingsHandler) HandleGetKey(w http.ResponseWriter, r *http.Request) {
	name, ok := h.keyName(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.status(r, name))
}

// HandlePutKey handles PUT /api/settings/keys/{name} with body {"value": "..."}.
func (h *SettingsHandler) HandlePutKey(w http.ResponseWriter, r *http.Request) {
	name, ok := h.keyName(w, r)
	if !ok {
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	value := strings.TrimSpace(body.Value)
	if value == "" {
		WriteError(w, http.StatusBadRequest, "value is required")
		return
	}

	if err := h.kv.Set(r.Context(), name, value); err != nil {
		h.logger.Error().Str("key", name).Err(err).Msg("failed to store api key")
		WriteError(w, http.StatusInternalServerError, "failed to store key")
		return
	}

	h.logger.Info().Str("key", name).Msg("api key stored")
	WriteJSON(w, http.StatusOK, h.status(r, name))
}

// HandleDeleteKey handles DELETE /api/settings/keys/{name}.
func (h *SettingsHandler) HandleDeleteKey(w http.ResponseWriter, r *http.Request) {
	name, ok := h.keyName(w, r)
	if !ok {
		return
	}

	if err := h.kv.Delete(r.Context(), name); err != nil {
		h.logger.Error().Str("key", name).Err(err).Msg("failed to delete api key")
		WriteError(w, http.StatusInternalServerError, "failed to delete key")
		return
	}

	h.logger.Info().Str("key", name).Msg("api key cleared")
	WriteJSON(w, http.StatusOK, h.status(r, name))
}

func (h *SettingsHandler) keyName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("name")
	if !common.IsKnownAPIKey(name) {
		WriteError(w, http.StatusNotFound, "unknown key: "+name)
		return "", false
	}
	return name, true
}

func (h *SettingsHandler) statuses(r *http.Request) []KeyStatus {
	out := make([]KeyStatus, 0, len(common.KnownAPIKeys))
	for _, name := range common.KnownAPIKeys {
		out = append(out, h.status(r, name))
	}
	return out
}

func (h *SettingsHandler) status(r *http.Request, name string) KeyStatus {
	source, value := common.APIKeySource(r.Context(), h.kv, name, h.fallbacks[name])
	return KeyStatus{
		Name:   name,
		Label:  common.APIKeyLabels[name],
		Source: source,
		Masked: common.MaskAPIKey(value),
	}
}
