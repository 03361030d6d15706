package server

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	mcpPath        = "/mcp"
	csrfCookie     = "_csrf"
	csrfHeader     = "X-CSRF-Token"
	maxRequestBody = 1 << 20
)

// contentSecurityPolicy allows Plotly from jsDelivr and the inline figure data.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data: blob:",
	"connect-src 'self'",
	"frame-ancestors 'none'",
}, "; ")

type ctxKey int

const correlationIDKey ctxKey = iota

// CorrelationID returns the request's correlation ID, or "" outside a request.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// middleware wraps a handler.
type middleware func(http.Handler) http.Handler

// chain wraps h so that the first middleware listed sees the request first.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// withMiddleware wraps the router with the server's middleware stack.
func (s *Server) withMiddleware(h http.Handler) http.Handler {
	guard := csrfGuard{exempt: []string{mcpPath}}
	return chain(h,
		withCorrelationID,
		s.logRequests,
		securityHeaders,
		sameOriginOnly(mcpPath),
		allowCORS,
		guard.wrap,
		limitBody(maxRequestBody),
		s.recoverPanics,
	)
}

// withCorrelationID reuses X-Request-ID or X-Correlation-ID when the caller
// sent one, otherwise it mints a UUID. The ID is echoed in the response.
func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = r.Header.Get("X-Correlation-ID")
		}
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationIDKey, id)))
	})
}

// logRequests writes one log line per request. Server errors log at error
// level and client errors at warn; everything else is debug.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log := s.logger.WithCorrelationId(CorrelationID(r.Context()))
		evt := log.Debug()
		switch {
		case rec.status >= 500:
			evt = log.Error()
		case rec.status >= 400:
			evt = log.Warn()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("HTTP request")
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		next.ServeHTTP(w, r)
	})
}

// sameOriginOnly refuses browser requests to prefix from other sites. The
// MCP endpoint skips CSRF checks, so a page on another origin must not be
// able to reach it. Requests without an Origin header (MCP clients, curl)
// pass.
func sameOriginOnly(prefix string) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if underPath(r.URL.Path, prefix) {
				if origin := r.Header.Get("Origin"); origin != "" && !sameHost(origin, r.Host) {
					http.Error(w, "Forbidden: cross-origin request", http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// allowCORS lets API clients on other origins call the JSON API. Preflight
// requests are answered here. The MCP endpoint gets no CORS headers.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if underPath(r.URL.Path, mcpPath) {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+csrfHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfGuard implements double-submit protection: unsafe requests must echo
// the _csrf cookie in the X-CSRF-Token header. GET responses hand out the
// cookie. Paths under exempt skip the check.
type csrfGuard struct {
	exempt []string
}

func (g csrfGuard) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if c, err := r.Cookie(csrfCookie); err != nil || c.Value == "" {
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookie,
					Value:    rand.Text(),
					Path:     "/",
					SameSite: http.SameSiteStrictMode,
				})
			}
			next.ServeHTTP(w, r)
			return
		case http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if g.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		c, err := r.Cookie(csrfCookie)
		if err != nil || c.Value == "" {
			http.Error(w, "Forbidden: missing CSRF token", http.StatusForbidden)
			return
		}
		token := r.Header.Get(csrfHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(c.Value)) != 1 {
			http.Error(w, "Forbidden: invalid CSRF token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g csrfGuard) isExempt(path string) bool {
	for _, p := range g.exempt {
		if underPath(path, p) {
			return true
		}
	}
	return false
}

func limitBody(max int64) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.WithCorrelationId(CorrelationID(r.Context())).Error().
					Str("panic", fmt.Sprint(v)).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// recorder captures the status and size of a response.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Flush forwards to the underlying writer so MCP event streams are not buffered.
func (r *recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
