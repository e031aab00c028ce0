package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/service"
)

// JSON-RPC 2.0 error codes.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
	rpcNotFound       = -32004
)

type rpcError struct {
	code    int
	message string
}

func (e *rpcError) Error() string { return e.message }

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      interface{}       `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params,omitempty"`
	}

	if err := s.decodeJSON(w, r, &request); err != nil {
		s.respondWithError(w, rpcParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, rpcInvalidRequest, "Invalid Request", request.ID)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "config.synthesize":
		result, err = s.rpcSynthesize(r, request.Params)
	case "optimization.get":
		result, err = s.rpcGetOptimization(r, request.Params)
	case "engine.health":
		result = s.svc.EngineHealth(r.Context())
	default:
		s.respondWithError(w, rpcMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		code, message := rpcErrorOf(err)
		s.respondWithError(w, code, message, request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// rpcSynthesize handles config.synthesize. The single parameter is an
// experiment declaration; the result holds the synthesis and the engine
// configuration.
func (s *Server) rpcSynthesize(r *http.Request, params []json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, &rpcError{rpcInvalidParams, "missing required parameters"}
	}

	var in service.ExperimentInput
	if err := json.Unmarshal(params[0], &in); err != nil {
		return nil, &rpcError{rpcInvalidParams, fmt.Sprintf("invalid experiment: %v", err)}
	}

	res, err := s.svc.Preview(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return previewResponse(res), nil
}

// rpcGetOptimization handles optimization.get.
// Expected parameters: {"optimization_id": "..."}; the caller is taken from
// the user header.
func (s *Server) rpcGetOptimization(r *http.Request, params []json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, &rpcError{rpcInvalidParams, "missing required parameters"}
	}

	var p struct {
		OptimizationID string `json:"optimization_id"`
	}
	if err := json.Unmarshal(params[0], &p); err != nil || p.OptimizationID == "" {
		return nil, &rpcError{rpcInvalidParams, "optimization_id is required"}
	}
	if userID(r) == "" {
		return nil, &rpcError{rpcInvalidParams, UserHeader + " header is required"}
	}

	return s.svc.Get(r.Context(), userID(r), p.OptimizationID)
}

func rpcErrorOf(err error) (int, string) {
	if rerr, ok := err.(*rpcError); ok {
		return rerr.code, rerr.message
	}
	if _, ok := optimization.IsValidationError(err); ok {
		return rpcInvalidParams, err.Error()
	}
	if service.IsNotFound(err) {
		return rpcNotFound, "optimization not found"
	}
	return rpcServerError, "Server error"
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC request error", map[string]interface{}{
		"code":    code,
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
	json.NewEncoder(w).Encode(response)
}
