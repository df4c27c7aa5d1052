package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"cryptodash/internal/infra"
	"cryptodash/internal/service"
	"cryptodash/web"
)

// IconResolver locates cached icon files for table rows.
type IconResolver interface {
	Has(symbol string) bool
	FileName(symbol string) string
	Dir() string
}

// Server is the web shell around the dashboard service: server-side pages,
// the add-entry form, CSV export and the websocket push endpoint.
type Server struct {
	http.Server
	templates *template.Template
	dashboard *service.Dashboard
	sessions  *SessionManager
	hub       *Hub
	icons     IconResolver

	username string
	password string
	appName  string
	version  string
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg *infra.Config, dash *service.Dashboard, hub *Hub, icons IconResolver) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      mux,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
		},
		dashboard: dash,
		sessions:  NewSessionManager(cfg.Server.SessionSecret, cfg.SessionTTL()),
		hub:       hub,
		icons:     icons,
		username:  cfg.Auth.Username,
		password:  cfg.Auth.Password,
		appName:   cfg.App.Name,
		version:   cfg.App.Version,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", slog.Any("error", err))
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(web.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Tiny cache for static assets
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", slog.Any("error", err))
	}

	// Cached coin icons from the data directory
	if icons != nil {
		iconFiles := http.StripPrefix("/icons/", http.FileServer(http.Dir(icons.Dir())))
		mux.Handle("/icons/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=86400")
			iconFiles.ServeHTTP(w, r)
		}))
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("/entries", s.withSecurityHeaders(s.requireAuth(s.handleEntries)))
	mux.HandleFunc("/export.csv", s.withSecurityHeaders(s.requireAuth(s.handleExport)))
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)

	return s
}

// requireAuth redirects unauthenticated requests to the login page.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.sessions.validate(r); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// withSecurityHeaders adds security headers and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		// Generate request ID for tracing
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		r = r.WithContext(ctx)

		slog.DebugContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; connect-src 'self' ws: wss:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Capture status code for the completion log
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
