package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/disperse/internal/config"
	"github.com/copyleftdev/disperse/internal/logging"
	"github.com/copyleftdev/disperse/internal/runner"
)

const squareRegion = `{"type":"rectangle","corners":[{"x":0,"y":0},{"x":1,"y":1}]}`

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Environment: "test",
	}

	// Set up HTTP config
	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	// Set up logging
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "stdout"

	// Set up optimization
	cfg.Optimization.WorkerCount = 2
	cfg.Optimization.SampleAttempts = 100000
	cfg.Optimization.MaxJobs = 4
	cfg.Optimization.CompareRuns = 2

	return cfg
}

// testLogger creates a test logger
func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	return logging.New(logging.DebugLevel, io.Discard)
}

// testRunner keeps every strategy small.
func testRunner() *runner.Runner {
	r := runner.New()
	d := runner.DefaultConfigs()
	d.PSO.Particles, d.PSO.Iterations = 10, 20
	d.GA.Population, d.GA.Generations = 10, 20
	d.ACO.Ants, d.ACO.Iterations, d.ACO.Candidates = 10, 20, 50
	d.SA.Iterations = 300
	r.Defaults = d
	return r
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, http.Handler) {
	t.Helper()
	srv := NewServer(cfg, testLogger(t), testRunner())
	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]interface{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr.Code, out
}

func waitForStatus(t *testing.T, h http.Handler, id string, want string) map[string]interface{} {
	t.Helper()
	var last map[string]interface{}
	require.Eventually(t, func() bool {
		code, body := doJSON(t, h, http.MethodGet, "/api/v1/status/"+id, "")
		if code != http.StatusOK {
			return false
		}
		last = body
		return body["status"] == want
	}, 10*time.Second, 10*time.Millisecond, "optimization %s never reached %s", id, want)
	return last
}

func TestNewServer(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t), nil)
	assert.NotNil(t, srv, "Server should be created")
	assert.NotNil(t, srv.runner, "a runner should be built from the config")
}

func TestRegisterRoutes(t *testing.T) {
	_, r := newTestServer(t, testConfig(t))

	tests := []struct {
		method      string
		path        string
		shouldExist bool
	}{
		{"POST", "/api/v1/optimize", true},
		{"GET", "/api/v1/status/123", true},
		{"DELETE", "/api/v1/optimization/123", true},
		{"GET", "/api/v1/strategies", true},
		{"POST", "/api/v1/compare", true},
		{"POST", "/rpc", true},
		{"GET", "/healthz", false}, // Not registered by server package
		{"GET", "/nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			// status/123 and optimization/123 answer 404 with a JSON body
			// for the unknown id, so look at the content type as well.
			routed := rr.Code != http.StatusNotFound || rr.Header().Get("Content-Type") == "application/json"
			assert.Equal(t, tt.shouldExist, routed)
		})
	}
}

func TestClose(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t), testRunner())
	err := srv.Close()
	assert.NoError(t, err, "Close should not return an error")
}

func TestRespondWithError(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t), testRunner())

	tests := []struct {
		name       string
		code       int
		message    string
		id         interface{}
		expectedID interface{}
	}{
		{name: "valid error response", code: codeInvalidParams, message: "invalid input", id: "123", expectedID: "123"},
		{name: "nil id", code: codeServerError, message: "server error", id: nil, expectedID: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.respondWithError(rr, tt.code, tt.message, tt.id)

			// JSON-RPC errors travel in a 200 response body.
			assert.Equal(t, http.StatusOK, rr.Code)

			var response map[string]interface{}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

			errObj, ok := response["error"].(map[string]interface{})
			require.True(t, ok, "response should contain error object")
			assert.Equal(t, float64(tt.code), errObj["code"])
			assert.Equal(t, tt.message, errObj["message"])
			assert.Equal(t, tt.expectedID, response["id"])
		})
	}
}

func TestOptimizeLifecycle(t *testing.T) {
	_, h := newTestServer(t, testConfig(t))

	for _, strategy := range runner.Names() {
		t.Run(strategy, func(t *testing.T) {
			code, body := doJSON(t, h, http.MethodPost, "/api/v1/optimize",
				`{"strategy":"`+strategy+`","k":4,"seed":9,"region":`+squareRegion+`}`)
			require.Equal(t, http.StatusAccepted, code, body)
			assert.Equal(t, StatusPending, body["status"])
			id, _ := body["optimization_id"].(string)
			require.True(t, strings.HasPrefix(id, "opt_"))

			status := waitForStatus(t, h, id, StatusCompleted)
			assert.Equal(t, strategy, status["strategy"])
			assert.Equal(t, 1.0, status["progress"])
			assert.Equal(t, 9.0, status["seed"])

			best := status["best_solution"].(map[string]interface{})
			points := best["points"].([]interface{})
			assert.Len(t, points, 4)
			assert.Greater(t, best["fitness"].(float64), 0.0)
			assert.Equal(t, best["fitness"], status["best_fitness"])

			summary := status["summary"].(map[string]interface{})
			assert.Equal(t, best["fitness"], summary["fitness"])
			assert.NotEmpty(t, status["history"])
			assert.Contains(t, status, "end_time")
		})
	}
}

func TestOptimizeWithInitialPoints(t *testing.T) {
	_, h := newTestServer(t, testConfig(t))

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/optimize", `{
		"strategy":"ga","k":3,"region":`+squareRegion+`,
		"params":{"generations":5},
		"initial_points":[{"x":0.5,"y":0.5},{"x":0.25,"y":0.5},{"x":0.5,"y":0.25}]}`)
	require.Equal(t, http.StatusAccepted, code, body)

	status := waitForStatus(t, h, body["optimization_id"].(string), StatusCompleted)
	assert.Equal(t, 5.0, status["iterations"])
}

func TestOptimizeValidation(t *testing.T) {
	_, h := newTestServer(t, testConfig(t))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"strategy":`},
		{"unknown strategy", `{"strategy":"tabu","k":3,"region":` + squareRegion + `}`},
		{"zero k", `{"strategy":"pso","k":0,"region":` + squareRegion + `}`},
		{"concave region", `{"strategy":"pso","k":3,"region":{"vertices":[{"x":0,"y":0},{"x":2,"y":0},{"x":1,"y":0.5},{"x":2,"y":2},{"x":0,"y":2}]}}`},
		{"too few vertices", `{"strategy":"pso","k":3,"region":{"vertices":[{"x":0,"y":0},{"x":1,"y":0}]}}`},
		{"bad params", `{"strategy":"sa","k":3,"region":` + squareRegion + `,"params":{"cooling_rate":2}}`},
		{"unknown params field", `{"strategy":"sa","k":3,"region":` + squareRegion + `,"params":{"tabu_tenure":2}}`},
		{"initial point count", `{"strategy":"ga","k":3,"region":` + squareRegion + `,"initial_points":[{"x":0.5,"y":0.5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, h, http.MethodPost, "/api/v1/optimize", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

// longRun keeps the annealer busy until it is cancelled.
const longRun = `{"strategy":"sa","k":3,"region":` + squareRegion + `,"params":{"iterations":100000000}}`

func TestCancel(t *testing.T) {
	_, h := newTestServer(t, testConfig(t))

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/optimize", longRun)
	require.Equal(t, http.StatusAccepted, code)
	id := body["optimization_id"].(string)

	code, body = doJSON(t, h, http.MethodDelete, "/api/v1/optimization/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancellation requested", body["status"])

	status := waitForStatus(t, h, id, StatusCancelled)
	assert.NotContains(t, status, "best_solution")

	code, _ = doJSON(t, h, http.MethodDelete, "/api/v1/optimization/"+id, "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = doJSON(t, h, http.MethodDelete, "/api/v1/optimization/missing", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, h, http.MethodGet, "/api/v1/status/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMaxJobs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Optimization.MaxJobs = 1
	_, h := newTestServer(t, cfg)

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/optimize", longRun)
	require.Equal(t, http.StatusAccepted, code)
	first := body["optimization_id"].(string)

	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/optimize", longRun)
	assert.Equal(t, http.StatusTooManyRequests, code)

	// A cancelled job frees its slot.
	code, _ = doJSON(t, h, http.MethodDelete, "/api/v1/optimization/"+first, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/optimize",
		`{"strategy":"pso","k":2,"region":`+squareRegion+`}`)
	assert.Equal(t, http.StatusAccepted, code)
}

func TestStrategiesEndpoint(t *testing.T) {
	_, h := newTestServer(t, testConfig(t))

	code, body := doJSON(t, h, http.MethodGet, "/api/v1/strategies", "")
	require.Equal(t, http.StatusOK, code)
	list := body["strategies"].([]interface{})
	require.Len(t, list, len(runner.Names()))

	first := list[0].(map[string]interface{})
	assert.Equal(t, "pso", first["name"])
	defaults := first["defaults"].(map[string]interface{})
	assert.Equal(t, 10.0, defaults["particles"])
}

func TestCompareEndpoint(t *testing.T) {
	_, h := newTestServer(t, testConfig(t))

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/compare",
		`{"k":3,"seed":4,"region":{"type":"regular","sides":6,"radius":1},"strategies":["pso","sa"]}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 2.0, body["runs"])

	records := body["records"].([]interface{})
	require.Len(t, records, 2)
	rec := records[0].(map[string]interface{})
	assert.Equal(t, "pso", rec["strategy"])
	assert.Equal(t, 2.0, rec["runs"])
	assert.GreaterOrEqual(t, rec["best_fitness"].(float64), rec["mean_fitness"].(float64))

	code, _ = doJSON(t, h, http.MethodPost, "/api/v1/compare", `{"k":0,"region":`+squareRegion+`}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func rpc(t *testing.T, h http.Handler, body string) map[string]interface{} {
	t.Helper()
	code, out := doJSON(t, h, http.MethodPost, "/rpc", body)
	require.Equal(t, http.StatusOK, code)
	return out
}

func rpcErrorCode(t *testing.T, resp map[string]interface{}) float64 {
	t.Helper()
	errObj, ok := resp["error"].(map[string]interface{})
	require.True(t, ok, "expected an error response, got %v", resp)
	return errObj["code"].(float64)
}

func TestJSONRPC(t *testing.T) {
	_, h := newTestServer(t, testConfig(t))

	t.Run("strategies.list", func(t *testing.T) {
		resp := rpc(t, h, `{"jsonrpc":"2.0","id":1,"method":"strategies.list"}`)
		result := resp["result"].(map[string]interface{})
		assert.Len(t, result["strategies"], 4)
		assert.Equal(t, 1.0, resp["id"])
	})

	t.Run("start status cancel", func(t *testing.T) {
		resp := rpc(t, h, `{"jsonrpc":"2.0","id":"a","method":"optimization.start","params":[{"strategy":"aco","k":3,"region":`+squareRegion+`}]}`)
		result := resp["result"].(map[string]interface{})
		id := result["optimization_id"].(string)

		waitForStatus(t, h, id, StatusCompleted)

		resp = rpc(t, h, `{"jsonrpc":"2.0","id":"b","method":"optimization.status","params":{"optimization_id":"`+id+`"}}`)
		status := resp["result"].(map[string]interface{})
		assert.Equal(t, StatusCompleted, status["status"])

		resp = rpc(t, h, `{"jsonrpc":"2.0","id":"c","method":"optimization.cancel","params":{"optimization_id":"`+id+`"}}`)
		assert.Equal(t, float64(codeServerError), rpcErrorCode(t, resp))
	})

	t.Run("compare", func(t *testing.T) {
		resp := rpc(t, h, `{"jsonrpc":"2.0","id":2,"method":"optimization.compare","params":{"k":2,"runs":1,"strategies":["sa"],"region":`+squareRegion+`}}`)
		result := resp["result"].(map[string]interface{})
		assert.Len(t, result["records"], 1)
	})

	errorCases := []struct {
		name string
		body string
		code int
	}{
		{"parse error", `{"jsonrpc":`, codeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"strategies.list"}`, codeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"optimization.pause"}`, codeMethodNotFound},
		{"missing params", `{"jsonrpc":"2.0","id":1,"method":"optimization.status"}`, codeInvalidParams},
		{"missing id", `{"jsonrpc":"2.0","id":1,"method":"optimization.cancel","params":{}}`, codeInvalidParams},
		{"two params", `{"jsonrpc":"2.0","id":1,"method":"optimization.status","params":[{},{}]}`, codeInvalidParams},
		{"invalid region", `{"jsonrpc":"2.0","id":1,"method":"optimization.start","params":{"strategy":"pso","k":2,"region":{"type":"blob"}}}`, codeInvalidParams},
		{"unknown optimization", `{"jsonrpc":"2.0","id":1,"method":"optimization.status","params":{"optimization_id":"nope"}}`, codeServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, float64(tc.code), rpcErrorCode(t, rpc(t, h, tc.body)))
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.ErrorLevel, &buf)

	h := RecoveryMiddleware(logger)(ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/explode", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "Recovered from panic")
}

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.ErrorLevel, &buf)

	h := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Empty(t, buf.String(), "client errors are not logged here")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Contains(t, buf.String(), `"status":502`)
}
