package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vjranagit/graphcalc/internal/log"
	"github.com/vjranagit/graphcalc/pkg/auth"
	"github.com/vjranagit/graphcalc/pkg/equation"
	"github.com/vjranagit/graphcalc/pkg/render"
	"github.com/vjranagit/graphcalc/pkg/storage"
	"github.com/vjranagit/graphcalc/pkg/types"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Store is the persistence the API needs
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*types.User, error)
	UserByID(ctx context.Context, id string) (*types.User, error)
	UserByName(ctx context.Context, username string) (*types.User, error)

	Settings(ctx context.Context, userID string) (types.Settings, error)
	PutSettings(ctx context.Context, userID string, settings types.Settings) error

	CreateGraph(ctx context.Context, g *types.Graph) (*types.Graph, error)
	Graph(ctx context.Context, ownerID, id string) (*types.Graph, error)
	Graphs(ctx context.Context, ownerID string) ([]types.Graph, error)
	UpdateGraph(ctx context.Context, g *types.Graph) (*types.Graph, error)
	DeleteGraph(ctx context.Context, ownerID, id string) error

	CreateEquation(ctx context.Context, eq *types.StoredEquation) (*types.StoredEquation, error)
	Equation(ctx context.Context, ownerID, id string) (*types.StoredEquation, error)
	Equations(ctx context.Context, ownerID string, family types.Family) ([]types.StoredEquation, error)
	UpdateEquation(ctx context.Context, eq *types.StoredEquation) (*types.StoredEquation, error)
	DeleteEquation(ctx context.Context, ownerID, id string) error
	EquationFamilies(ownerID string) []types.Family

	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the body of every successful JSON request
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Server implements the HTTP API server
type Server struct {
	store    Store
	auth     *auth.Authenticator
	renderer *render.Renderer
	addr     string
	server   *http.Server

	requests uint64
	failures uint64
}

// NewServer creates a new API server
func NewServer(addr string, store Store, authn *auth.Authenticator, renderer *render.Renderer) *Server {
	return &Server{
		store:    store,
		auth:     authn,
		renderer: renderer,
		addr:     addr,
	}
}

// Handler returns the routed handler with CORS and request counting
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Accounts
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.authenticated(s.handleLogout))
	mux.HandleFunc("/users", s.authenticated(s.handleUser))
	mux.HandleFunc("/users/settings", s.authenticated(s.handleSettings))

	// Saved graphs
	mux.HandleFunc("/graphs", s.authenticated(s.handleGraphs))
	mux.HandleFunc("/graphs/", s.authenticated(s.handleGraph))

	// Anonymous calculator
	mux.HandleFunc("/public/graphs/equations", s.handlePublicEquations)
	mux.HandleFunc("/public/graphs/equations/", s.handlePublicEquation)

	// Stateless
	mux.HandleFunc("/api/v1/classify", s.handleClassify)
	mux.HandleFunc("/api/v1/sample", s.handleSample)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)

	return s.withCORS(s.countRequests(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// withCORS allows any origin, as the browser client is served separately
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		atomic.AddUint64(&s.requests, 1)
		if rec.status >= 400 {
			atomic.AddUint64(&s.failures, 1)
			log.Trace.Printf("%s %s -> %d", r.Method, r.URL.Path, rec.status)
		}
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, claims *auth.Claims)

// authenticated rejects requests without a valid, unrevoked bearer token
func (s *Server) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := auth.BearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err)
			return
		}
		claims, err := s.auth.Verify(raw)
		if err != nil {
			log.Trace.Println(err)
			s.writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken)
			return
		}
		revoked, err := s.store.IsRevoked(r.Context(), claims.Id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		if revoked {
			s.writeError(w, http.StatusUnauthorized, auth.ErrRevoked)
			return
		}
		next(w, r, claims)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(SuccessResponse{Data: data})
}

func (s *Server) writeMessage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Message: message})
}

// writeStoreError maps storage errors onto status codes
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
	case errors.Is(err, storage.ErrConflict):
		s.writeError(w, http.StatusConflict, err)
	default:
		log.Error.Println(err)
		s.writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	s.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// decode reads a JSON body of at most maxBodyBytes into v
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return false
	}
	return true
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// handleMetrics exposes request and cache counters in text exposition format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats := s.renderer.CacheStats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# TYPE graphcalc_http_requests_total counter\n")
	fmt.Fprintf(w, "graphcalc_http_requests_total %d\n", atomic.LoadUint64(&s.requests))
	fmt.Fprintf(w, "# TYPE graphcalc_http_request_failures_total counter\n")
	fmt.Fprintf(w, "graphcalc_http_request_failures_total %d\n", atomic.LoadUint64(&s.failures))
	fmt.Fprintf(w, "# TYPE graphcalc_series_cache_hits_total counter\n")
	fmt.Fprintf(w, "graphcalc_series_cache_hits_total %d\n", stats.Hits)
	fmt.Fprintf(w, "# TYPE graphcalc_series_cache_misses_total counter\n")
	fmt.Fprintf(w, "graphcalc_series_cache_misses_total %d\n", stats.Misses)
	fmt.Fprintf(w, "# TYPE graphcalc_series_cache_entries gauge\n")
	fmt.Fprintf(w, "graphcalc_series_cache_entries %d\n", stats.Size)
	fmt.Fprintf(w, "# TYPE graphcalc_series_cache_capacity gauge\n")
	fmt.Fprintf(w, "graphcalc_series_cache_capacity %d\n", stats.Capacity)
}

// classifyRequest is the body of /api/v1/classify
type classifyRequest struct {
	Equation string `json:"equation"`
}

// handleClassify reports the family of an equation
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req classifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	v := equation.Validate(req.Equation)
	if !v.Valid {
		s.writeError(w, http.StatusBadRequest, equation.ErrFormatRejected)
		return
	}
	s.writeSuccess(w, http.StatusOK, v)
}

// sampleRequest is the body of /api/v1/sample. Domain and steps are
// optional and default to the server configuration.
type sampleRequest struct {
	types.Submission
	Domain    *types.Range `json:"domain,omitempty"`
	Step      float64      `json:"step,omitempty"`
	ThetaStep float64      `json:"theta_step,omitempty"`
}

// handleSample classifies and samples one equation
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req sampleRequest
	if !s.decode(w, r, &req) {
		return
	}

	opts := s.renderer.Defaults()
	if req.Domain != nil {
		opts.Domain = *req.Domain
	}
	if req.Step != 0 {
		opts.Step = req.Step
	}
	if req.ThetaStep != 0 {
		opts.ThetaStep = req.ThetaStep
	}

	series, err := s.renderer.Plot(req.Submission, opts)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]interface{}{"series": series})
}
