// Package api serves the scanner over HTTP along with health, readiness and
// Prometheus endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/scanner"
	"github.com/liamashdown/bigfishalert/internal/storage"
)

const (
	requestTimeout = 60 * time.Second
	maxBodyBytes   = 1 << 20
)

// Scanner is the scan surface the API exposes
type Scanner interface {
	ScanToken(ctx context.Context, mint string, opts scanner.ScanOptions) (*scanner.TokenAnalysis, error)
	ScanWallet(ctx context.Context, owner string) (*scanner.OceanReport, error)
	BigFishActivity(ctx context.Context, mint string) ([]scanner.BigFishMove, error)
}

// History reads stored scans
type History interface {
	RecentScans(ctx context.Context, tokenAddress string, limit int) ([]storage.ScanRecord, error)
}

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the API's collaborators. History and Pinger are nil when storage
// is disabled.
type Deps struct {
	Scanner   Scanner
	Explainer scanner.Explainer
	History   History
	Pinger    Pinger
}

// Server is the HTTP API server
type Server struct {
	router *mux.Router
	server *http.Server
	deps   Deps
	log    *logrus.Logger
}

// NewServer creates the server and registers its routes
func NewServer(port int, deps Deps, log *logrus.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		log:    log,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// registered on the root router so a wrong method answers 405, not 404
	s.router.Handle("/api/scan-token", apiHandler(s.handleScanToken)).Methods(http.MethodPost)
	s.router.Handle("/api/scan-ocean", apiHandler(s.handleScanOcean)).Methods(http.MethodPost)
	s.router.Handle("/api/ai-explain", apiHandler(s.handleExplain)).Methods(http.MethodPost)
	s.router.Handle("/api/tokens/{address}/big-fish", apiHandler(s.handleBigFish)).Methods(http.MethodGet)
	s.router.Handle("/api/tokens/{address}/history", apiHandler(s.handleHistory)).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.log.WithField("addr", s.server.Addr).Info("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the request's id, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDMiddleware tags each request with an id, reusing the caller's
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs and counts every routed request
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.RecordHTTPRequest(route, wrapper.statusCode)

		entry := s.log.WithFields(logrus.Fields{
			"request_id": RequestID(r.Context()),
			"method":     r.Method,
			"route":      route,
			"status":     wrapper.statusCode,
			"duration":   time.Since(start).String(),
			"remote":     r.RemoteAddr,
		})
		if wrapper.statusCode >= http.StatusInternalServerError {
			entry.Warn("Request failed")
			return
		}
		entry.Debug("Request served")
	})
}

// apiHandler applies the JSON API middleware to a single handler
func apiHandler(fn http.HandlerFunc) http.Handler {
	return jsonContentTypeMiddleware(timeoutMiddleware(fn))
}

func timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
