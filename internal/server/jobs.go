package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/copyleftdev/disperse/internal/geometry"
	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/runner"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var errInvalidParams = errors.New("invalid params")

// OptimizeRequest starts one optimization run.
type OptimizeRequest struct {
	Strategy string          `json:"strategy"`
	K        int             `json:"k"`
	Region   geometry.Spec   `json:"region"`
	Params   json.RawMessage `json:"params,omitempty"`
	// InitialPoints seeds the genetic strategy. Random points are drawn
	// when it is empty.
	InitialPoints optimization.PointSet `json:"initial_points,omitempty"`
	Seed          int64                 `json:"seed,omitempty"`
}

// CompareRequest runs several strategies on one region.
type CompareRequest struct {
	Strategies    []string                   `json:"strategies,omitempty"`
	K             int                        `json:"k"`
	Region        geometry.Spec              `json:"region"`
	Params        map[string]json.RawMessage `json:"params,omitempty"`
	InitialPoints optimization.PointSet      `json:"initial_points,omitempty"`
	Runs          int                        `json:"runs,omitempty"`
	Seed          int64                      `json:"seed,omitempty"`
}

type idRequest struct {
	OptimizationID string `json:"optimization_id"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errInvalidParams, err)
	}
	return nil
}

// problem builds the region and checks the parts of a request shared by
// single runs and comparisons.
func problem(k int, spec geometry.Spec, initial optimization.PointSet) (optimization.Problem, error) {
	if k < 1 {
		return optimization.Problem{}, optimization.NewInvalidParameterError("request", "k must be >= 1, got %d", k)
	}
	region, err := spec.Build()
	if err != nil {
		return optimization.Problem{}, err
	}
	if len(initial) > 0 && len(initial) != k {
		return optimization.Problem{}, optimization.NewInvalidParameterError("request",
			"initial_points must hold %d points, got %d", k, len(initial))
	}
	return optimization.Problem{Region: region, K: k, Initial: initial}, nil
}

// startOptimization validates the request, registers a job and starts it
// in the background.
func (s *Server) startOptimization(req OptimizeRequest) (map[string]interface{}, error) {
	if !slices.Contains(runner.Names(), req.Strategy) {
		return nil, optimization.NewInvalidParameterError("request", "unknown strategy %q", req.Strategy)
	}
	prob, err := problem(req.K, req.Region, req.InitialPoints)
	if err != nil {
		return nil, err
	}
	// Fail fast on bad parameters instead of inside the job.
	if _, err := s.runner.Defaults.NewStrategy(req.Strategy, req.Params); err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.Optimization.Seed
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	state := &OptimizationState{
		ID:          "opt_" + uuid.NewString(),
		Strategy:    req.Strategy,
		K:           req.K,
		Seed:        seed,
		Status:      StatusPending,
		StartTime:   now,
		CancelFunc:  cancel,
		LastUpdated: now,
	}

	s.optimizationsMu.Lock()
	if s.activeLocked() >= s.cfg.Optimization.MaxJobs {
		s.optimizationsMu.Unlock()
		cancel()
		return nil, errTooManyJobs
	}
	s.optimizations[state.ID] = state
	s.wg.Add(1)
	s.optimizationsMu.Unlock()

	prob.Observer = func(p optimization.Progress) {
		s.optimizationsMu.Lock()
		state.Progress = p
		state.LastUpdated = time.Now()
		s.optimizationsMu.Unlock()
	}

	go s.runOptimization(ctx, state, runner.Request{
		Strategy: req.Strategy,
		Params:   req.Params,
		Problem:  prob,
		Seed:     seed,
	})

	s.logger.Info("Optimization started", map[string]interface{}{
		"optimization_id": state.ID,
		"strategy":        req.Strategy,
		"k":               req.K,
	})

	return map[string]interface{}{
		"optimization_id": state.ID,
		"status":          StatusPending,
	}, nil
}

func (s *Server) activeLocked() int {
	n := 0
	for _, st := range s.optimizations {
		if !st.terminal() {
			n++
		}
	}
	return n
}

// runOptimization executes the optimization process in a goroutine
func (s *Server) runOptimization(ctx context.Context, state *OptimizationState, req runner.Request) {
	defer s.wg.Done()
	defer state.CancelFunc()

	s.optimizationsMu.Lock()
	if state.Status == StatusPending {
		state.Status = StatusRunning
	}
	s.optimizationsMu.Unlock()

	result, err := s.runner.Run(ctx, req)

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	now := time.Now()
	state.LastUpdated = now
	if state.EndTime == nil {
		state.EndTime = &now
	}

	switch {
	case state.Status == StatusCancelled:
		// Cancelled while the run was finishing.
	case err == nil:
		state.Status = StatusCompleted
		state.Result = result
	case errors.Is(err, context.Canceled):
		state.Status = StatusCancelled
	default:
		s.logger.Error("Optimization failed", map[string]interface{}{
			"optimization_id": state.ID,
			"error":           err.Error(),
		})
		state.Status = StatusFailed
		state.Err = err
	}
}

// optimizationStatus returns the current status and results of a job.
func (s *Server) optimizationStatus(id string) (map[string]interface{}, error) {
	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, exists := s.optimizations[id]
	if !exists {
		return nil, errNotFound
	}

	response := map[string]interface{}{
		"optimization_id": state.ID,
		"strategy":        state.Strategy,
		"k":               state.K,
		"seed":            state.Seed,
		"status":          state.Status,
		"progress":        state.Progress.Fraction(),
		"iteration":       state.Progress.Iteration,
		"best_fitness":    state.Progress.BestFitness,
		"start_time":      state.StartTime.Format(time.RFC3339),
		"last_update":     state.LastUpdated.Format(time.RFC3339),
	}

	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != nil {
		response["error"] = state.Err.Error()
	}

	if res := state.Result; res != nil {
		response["progress"] = 1.0
		response["best_fitness"] = res.BestSolution.Fitness
		response["best_solution"] = res.BestSolution
		response["summary"] = optimization.Summarize(res.BestSolution.Points)
		response["history"] = res.History
		response["iterations"] = res.Iterations
		response["evaluations"] = res.Evaluations
		response["duration_ms"] = float64(res.Duration.Microseconds()) / 1000.0
		if len(res.Meta) > 0 {
			response["meta"] = res.Meta
		}
	}

	return response, nil
}

// cancelOptimization cancels a pending or running job.
func (s *Server) cancelOptimization(id string) error {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, exists := s.optimizations[id]
	if !exists {
		return errNotFound
	}
	if state.terminal() {
		return fmt.Errorf("%w: status %s", errFinished, state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = StatusCancelled
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})

	return nil
}

func (s *Server) strategies() map[string]interface{} {
	return map[string]interface{}{
		"strategies": s.runner.Defaults.Strategies(),
	}
}

// compare runs the comparison synchronously under ctx.
func (s *Server) compare(ctx context.Context, req CompareRequest) (map[string]interface{}, error) {
	prob, err := problem(req.K, req.Region, req.InitialPoints)
	if err != nil {
		return nil, err
	}
	runs := req.Runs
	if runs == 0 {
		runs = s.cfg.Optimization.CompareRuns
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.Optimization.Seed
	}

	records, err := s.runner.Compare(ctx, runner.CompareRequest{
		Strategies: req.Strategies,
		Params:     req.Params,
		Problem:    prob,
		Runs:       runs,
		BaseSeed:   seed,
		Parallel:   s.cfg.Optimization.WorkerCount,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"k":       req.K,
		"runs":    runs,
		"records": records,
	}, nil
}
