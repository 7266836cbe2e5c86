package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		var req OptimizeRequest
		if err = decodeParams(request.Params, &req); err == nil {
			result, err = s.startOptimization(req)
		}
	case "optimization.status":
		var req idRequest
		if err = decodeIDParams(request.Params, &req); err == nil {
			result, err = s.optimizationStatus(req.OptimizationID)
		}
	case "optimization.cancel":
		var req idRequest
		if err = decodeIDParams(request.Params, &req); err == nil {
			err = s.cancelOptimization(req.OptimizationID)
			result = map[string]string{"status": "cancellation requested"}
		}
	case "optimization.compare":
		var req CompareRequest
		if err = decodeParams(request.Params, &req); err == nil {
			result, err = s.compare(r.Context(), req)
		}
	case "strategies.list":
		result = s.strategies()
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, rpcCode(err), err.Error(), request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// decodeParams accepts the parameters either as an object or as a
// one-element array holding the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing required parameters", errInvalidParams)
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("%w: %v", errInvalidParams, err)
		}
		if len(list) != 1 {
			return fmt.Errorf("%w: expected one parameter object, got %d", errInvalidParams, len(list))
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: invalid parameter format, expected object: %v", errInvalidParams, err)
	}
	return nil
}

func decodeIDParams(raw json.RawMessage, req *idRequest) error {
	if err := decodeParams(raw, req); err != nil {
		return err
	}
	if req.OptimizationID == "" {
		return fmt.Errorf("%w: optimization_id is required", errInvalidParams)
	}
	return nil
}

// rpcCode maps an error to its JSON-RPC error code.
func rpcCode(err error) int {
	switch {
	case errors.Is(err, errInvalidParams),
		errors.Is(err, optimization.ErrInvalidParameter),
		errors.Is(err, optimization.ErrInvalidRegion):
		return codeInvalidParams
	default:
		return codeServerError
	}
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
