package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/silviu20/Web-App-sub001/internal/config"
	"github.com/silviu20/Web-App-sub001/internal/engine"
	"github.com/silviu20/Web-App-sub001/internal/logging"
	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/service"
	"github.com/silviu20/Web-App-sub001/internal/store"
)

// UserHeader carries the caller's identity. Authentication happens upstream.
const UserHeader = "X-User-ID"

const defaultMaxBodyBytes = 1 << 20

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

// Server implements the HTTP and JSON-RPC API of the experiment service.
type Server struct {
	cfg    *config.Config
	svc    *service.Service
	logger Logger
}

// NewServer creates a new server instance with the given config, service and logger
func NewServer(cfg *config.Config, svc *service.Service, logger Logger) *Server {
	return &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/configs/preview", s.handlePreview)
		r.Get("/engine/health", s.handleEngineHealth)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Post("/optimizations", s.handleCreate)
			r.Get("/optimizations", s.handleList)
			r.Route("/optimizations/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Get("/config", s.handleConfig)
				r.Get("/suggest", s.handleSuggest)
				r.Post("/measurements", s.handleMeasurements)
				r.Get("/best_point", s.handleBestPoint)
				r.Get("/insights", s.handleInsights)
				r.Post("/predict", s.handlePredict)
			})
		})
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// result is the envelope of every REST response.
type result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result{Success: true, Data: data}); err != nil {
		s.logger.Warn("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResult(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", map[string]interface{}{
			"path":   r.URL.Path,
			"status": status,
			"error":  err.Error(),
		})
	}
	writeResult(w, status, body)
}

func writeResult(w http.ResponseWriter, status int, body result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorResult maps service errors onto HTTP statuses.
func errorResult(err error) (int, result) {
	body := result{Error: err.Error()}

	if ve, ok := optimization.IsValidationError(err); ok {
		body.Details = map[string]string{"invariant": ve.Invariant, "field": ve.Field}
		return http.StatusBadRequest, body
	}

	var eerr *engine.Error
	switch {
	case service.IsNotFound(err):
		body.Error = "optimization not found"
		return http.StatusNotFound, body
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, body
	case errors.As(err, &eerr) && eerr.Type == engine.ErrInvalidRequest:
		return http.StatusUnprocessableEntity, body
	case service.IsUnavailable(err):
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get(UserHeader)) == "" {
			writeResult(w, http.StatusUnauthorized, result{Error: UserHeader + " header is required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

// decodeJSON decodes the request body, limited to HTTP.MaxBodyBytes.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	limit := s.cfg.HTTP.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}
