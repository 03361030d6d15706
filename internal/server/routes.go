package server

import (
	"net/http"
	"sort"
	"strings"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	a := s.app

	// Pages
	mux.Handle("/{$}", a.DashboardHandler)
	mux.Handle("/settings", a.SettingsHandler)
	mux.HandleFunc("/static/", a.PageHandler.StaticFileHandler)
	mux.HandleFunc("GET /export/{id}", a.APIHandler.HandleExport)

	if a.MCPHandler != nil {
		mux.Handle("/mcp", a.MCPHandler)
	}

	// JSON API
	mux.HandleFunc("/api/health", a.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", a.VersionHandler.ServeHTTP)
	mux.HandleFunc("/api/prices", a.APIHandler.HandlePrices)
	mux.HandleFunc("/api/compare", a.APIHandler.HandleCompare)
	mux.HandleFunc("GET /api/snapshots/{id}", a.APIHandler.HandleSnapshot)
	mux.HandleFunc("GET /api/snapshots/{id}/chart/{file}", a.APIHandler.HandleChart)
	mux.HandleFunc("GET /api/snapshots/{id}/export", a.APIHandler.HandleExport)
	mux.HandleFunc("POST /api/snapshots/{id}/analysis", a.APIHandler.HandleAnalysis)

	// The /api/ fallback below would turn a wrong method into a 404, so the
	// key routes dispatch on method themselves.
	mux.Handle("/api/settings/keys", byMethod{
		http.MethodGet: a.SettingsHandler.HandleListKeys,
	})
	mux.Handle("/api/settings/keys/{name}", byMethod{
		http.MethodGet:    a.SettingsHandler.HandleGetKey,
		http.MethodPut:    a.SettingsHandler.HandlePutKey,
		http.MethodDelete: a.SettingsHandler.HandleDeleteKey,
	})

	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// byMethod dispatches a resource path to one handler per HTTP method and
// answers anything else with 405 and an Allow header.
type byMethod map[string]http.HandlerFunc

func (m byMethod) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	if h, ok := m[http.MethodGet]; ok && r.Method == http.MethodHead {
		h(w, r)
		return
	}

	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"status":"error","error":"no API route for ` + r.Method + ` ` + jsonSafe(r.URL.Path) + `"}`))
}

// jsonSafe drops characters that would break the hand-built JSON string.
func jsonSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return -1
		}
		return r
	}, s)
}
