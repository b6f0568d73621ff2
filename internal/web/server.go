package web

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/receipt-reel/internal/pipeline"
)

// Processor runs one submission through the pipeline.
type Processor interface {
	Process(ctx context.Context, inputPath string, kind pipeline.Kind, report pipeline.Progress) (*pipeline.Result, error)
}

// BasicAuth holds basic authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Server handles HTTP requests for receipt submissions.
type Server struct {
	processor Processor
	journal   Journal
	artifacts ArtifactStore
	uploadDir string
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// NewServer creates a new Server with a default mux. uploadDir holds
// handler-owned upload spool files; empty means the system temp dir.
func NewServer(processor Processor, journal Journal, artifacts ArtifactStore, uploadDir string, basicAuth BasicAuth) *Server {
	return NewServerWithMux(processor, journal, artifacts, uploadDir, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing.
func NewServerWithMux(processor Processor, journal Journal, artifacts ArtifactStore, uploadDir string, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		processor: processor,
		journal:   journal,
		artifacts: artifacts,
		uploadDir: uploadDir,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials.
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// requireAuth middleware.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Reel"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// setCORSHeaders sets CORS headers on a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all routes on the server's mux, most
// specific paths first.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/receipts/{id}/ledger.csv", s.requireAuth(s.handleGetArtifact))
	s.mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(s.handleGetSubmission))
	s.mux.HandleFunc("GET /api/receipts", s.requireAuth(s.handleListSubmissions))
	s.mux.HandleFunc("POST /api/receipts", s.requireAuth(s.handleUpload))

	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
