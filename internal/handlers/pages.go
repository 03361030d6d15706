package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
)

// PageHandler renders the HTML pages and serves their static assets.
// In dev mode templates are parsed again on every render so edits show up
// without a restart.
type PageHandler struct {
	logger  *common.Logger
	dir     string
	devMode bool
	static  http.Handler

	mu   sync.Mutex
	tmpl *template.Template
}

var templateFuncs = template.FuncMap{
	"price":  common.FormatPrice,
	"volume": common.FormatVolume,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	},
}

// NewPageHandler parses the page templates. It panics if they are broken,
// since the dashboard cannot work without them.
func NewPageHandler(logger *common.Logger, devMode bool) *PageHandler {
	dir := FindPagesDir()
	h := &PageHandler{
		logger:  logger,
		dir:     dir,
		devMode: devMode,
		static:  http.StripPrefix("/static/", http.FileServer(http.Dir(filepath.Join(dir, "static")))),
	}
	h.tmpl = template.Must(h.parse())
	return h
}

// FindPagesDir returns the first pages directory found walking up from the
// working directory, so tests in nested packages find it too.
func FindPagesDir() string {
	for _, dir := range []string{"pages", "../pages", "../../pages"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(dir); err == nil {
				return abs
			}
			return dir
		}
	}
	return "."
}

func (h *PageHandler) parse() (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseGlob(filepath.Join(h.dir, "*.html"))
	if err != nil {
		return nil, err
	}
	return t.ParseGlob(filepath.Join(h.dir, "partials", "*.html"))
}

func (h *PageHandler) templates() (*template.Template, error) {
	if !h.devMode {
		return h.tmpl, nil
	}
	t, err := h.parse()
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.tmpl = t
	h.mu.Unlock()
	return t, nil
}

// Render executes templateName with data plus Page, DevMode and Version.
// Output is buffered so a template error never leaves a half-written page.
func (h *PageHandler) Render(w http.ResponseWriter, status int, templateName, pageName string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Page"] = pageName
	data["DevMode"] = h.devMode
	data["Version"] = config.Version

	var buf bytes.Buffer
	t, err := h.templates()
	if err == nil {
		err = t.ExecuteTemplate(&buf, templateName, data)
	}
	if err != nil {
		if h.logger != nil {
			h.logger.Error().Str("template", templateName).Err(err).Msg("page render failed")
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// StaticFileHandler serves /static/ from the pages/static directory.
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	h.static.ServeHTTP(w, r)
}
