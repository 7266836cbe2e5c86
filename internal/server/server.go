package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/disperse/internal/config"
	"github.com/copyleftdev/disperse/internal/logging"
	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/runner"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

var (
	errNotFound    = errors.New("optimization not found")
	errFinished    = errors.New("optimization already finished")
	errTooManyJobs = errors.New("too many active optimizations")
)

// OptimizationState represents the state of an optimization job.
// It tracks the progress, status, and results of an optimization process.
// Fields are guarded by the server's optimizationsMu.
type OptimizationState struct {
	ID          string
	Strategy    string
	K           int
	Seed        int64
	Status      string
	StartTime   time.Time
	EndTime     *time.Time
	Progress    optimization.Progress
	Result      *optimization.OptimizationResult
	Err         error
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

func (s *OptimizationState) terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Server implements the HTTP and JSON-RPC server for the optimization service.
// It manages optimization jobs and provides endpoints to start, monitor, and cancel them.
type Server struct {
	cfg    *config.Config
	logger Logger
	runner *runner.Runner

	// Optimization state management
	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex // Protects the optimizations map
	wg              sync.WaitGroup
}

// NewServer creates a new server instance with the given config and logger.
// Runs are executed by r; a nil r is built from cfg.
func NewServer(cfg *config.Config, logger Logger, r *runner.Runner) *Server {
	if r == nil {
		r = cfg.Runner()
	}
	return &Server{
		cfg:           cfg,
		logger:        logger,
		runner:        r,
		optimizations: make(map[string]*OptimizationState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/strategies", s.handleStrategies)
		r.Post("/compare", s.handleCompare)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Close cancels all running optimizations and waits for them to stop.
func (s *Server) Close() error {
	s.optimizationsMu.Lock()
	for _, opt := range s.optimizations {
		if opt.CancelFunc != nil {
			opt.CancelFunc()
		}
	}
	s.optimizationsMu.Unlock()

	s.wg.Wait()
	return nil
}

// httpStatus maps an error to the HTTP status of its response.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errFinished):
		return http.StatusConflict
	case errors.Is(err, errTooManyJobs):
		return http.StatusTooManyRequests
	case errors.Is(err, optimization.ErrInvalidParameter),
		errors.Is(err, optimization.ErrInvalidRegion),
		errors.Is(err, errInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, optimization.ErrDegenerateSampling):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) respondHTTPError(w http.ResponseWriter, err error) {
	respondJSON(w, httpStatus(err), map[string]interface{}{
		"error": err.Error(),
	})
}

// handleOptimize handles the HTTP POST /optimize endpoint for starting a new optimization
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondHTTPError(w, err)
		return
	}

	result, err := s.startOptimization(req)
	if err != nil {
		s.respondHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, result)
}

// handleStatus handles the HTTP GET /status/{id} endpoint for checking optimization status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.optimizationStatus(chi.URLParam(r, "id"))
	if err != nil {
		s.respondHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleCancel handles the HTTP DELETE /optimization/{id} endpoint for canceling an optimization
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.cancelOptimization(chi.URLParam(r, "id")); err != nil {
		s.respondHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "cancellation requested",
	})
}

// handleStrategies handles GET /strategies.
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.strategies())
}

// handleCompare handles POST /compare. The comparison runs inside the
// request and stops when the client goes away.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondHTTPError(w, err)
		return
	}

	result, err := s.compare(r.Context(), req)
	if err != nil {
		s.respondHTTPError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
