package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/silviu20/Web-App-sub001/internal/engine"
	"github.com/silviu20/Web-App-sub001/internal/optimization/synthesis"
	"github.com/silviu20/Web-App-sub001/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxBatchSize    = 100
)

// handlePreview handles POST /configs/preview, synthesizing without side effects.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var in service.ExperimentInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		writeResult(w, http.StatusBadRequest, result{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	res, err := s.svc.Preview(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, previewResponse(res))
}

type synthesisResponse struct {
	Synthesis    synthesis.Result       `json:"synthesis"`
	EngineConfig map[string]interface{} `json:"engine_config"`
}

func previewResponse(res synthesis.Result) synthesisResponse {
	cfg, _ := res.EngineConfig()
	return synthesisResponse{Synthesis: res, EngineConfig: cfg}
}

// handleCreate handles POST /optimizations.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.ExperimentInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		writeResult(w, http.StatusBadRequest, result{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	o, res, err := s.svc.Create(r.Context(), userID(r), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]interface{}{
		"optimization": o,
		"synthesis":    res,
	})
}

// handleList handles GET /optimizations?limit=&offset=.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		writeResult(w, http.StatusBadRequest, result{Error: fmt.Sprintf("limit must be between 1 and %d", maxPageSize)})
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeResult(w, http.StatusBadRequest, result{Error: "offset must not be negative"})
		return
	}

	out, err := s.svc.List(r.Context(), userID(r), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{
		"optimizations": out,
		"limit":         limit,
		"offset":        offset,
	})
}

// handleGet handles GET /optimizations/{id}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, o)
}

// handleDelete handles DELETE /optimizations/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Delete(r.Context(), userID(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"optimization_id": id, "status": "deleted"})
}

// handleConfig handles GET /optimizations/{id}/config. With refresh=true the
// configuration is synthesized again from the current measurement count.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		res, err := s.svc.Resynthesize(r.Context(), userID(r), id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respond(w, http.StatusOK, previewResponse(res))
		return
	}

	o, err := s.svc.Get(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]json.RawMessage{"engine_config": o.Config})
}

// handleSuggest handles GET /optimizations/{id}/suggest?batch_size=.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	batchSize, err := queryInt(r, "batch_size", 1)
	if err != nil || batchSize < 1 || batchSize > maxBatchSize {
		writeResult(w, http.StatusBadRequest, result{Error: fmt.Sprintf("batch_size must be between 1 and %d", maxBatchSize)})
		return
	}

	points, err := s.svc.Suggest(r.Context(), userID(r), chi.URLParam(r, "id"), batchSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{"suggestions": points})
}

// handleMeasurements handles POST /optimizations/{id}/measurements.
func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Measurements []engine.Measurement `json:"measurements"`
	}
	if err := s.decodeJSON(w, r, &body); err != nil {
		writeResult(w, http.StatusBadRequest, result{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	n, err := s.svc.AddMeasurements(r.Context(), userID(r), chi.URLParam(r, "id"), body.Measurements)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]int{
		"added": len(body.Measurements),
		"total": n,
	})
}

// handleBestPoint handles GET /optimizations/{id}/best_point.
func (s *Server) handleBestPoint(w http.ResponseWriter, r *http.Request) {
	bp, err := s.svc.BestPoint(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, bp)
}

// handleInsights handles GET /optimizations/{id}/insights.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Insights(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, report)
}

// handlePredict handles POST /optimizations/{id}/predict.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Points []engine.Point `json:"points"`
	}
	if err := s.decodeJSON(w, r, &body); err != nil {
		writeResult(w, http.StatusBadRequest, result{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if len(body.Points) == 0 {
		writeResult(w, http.StatusBadRequest, result{Error: "at least one point is required"})
		return
	}

	preds, err := s.svc.Predict(r.Context(), userID(r), chi.URLParam(r, "id"), body.Points)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{"predictions": preds})
}

// handleEngineHealth handles GET /engine/health. An unavailable engine is
// reported with 503.
func (s *Server) handleEngineHealth(w http.ResponseWriter, r *http.Request) {
	h := s.svc.EngineHealth(r.Context())
	status := http.StatusOK
	if !h.Available() {
		status = http.StatusServiceUnavailable
	}
	s.respond(w, status, h)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
