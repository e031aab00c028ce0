package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultHealthTimeout bounds the health check when none is configured.
const DefaultHealthTimeout = 5 * time.Second

// NewAPI returns an API implementation backed by c. A healthTimeout of 0
// uses DefaultHealthTimeout.
func NewAPI(c Client, healthTimeout time.Duration) API {
	if healthTimeout <= 0 {
		healthTimeout = DefaultHealthTimeout
	}
	return &httpAPI{client: c, healthTimeout: healthTimeout}
}

type httpAPI struct {
	client        Client
	healthTimeout time.Duration
}

func (h *httpAPI) optimizerURL(id string, parts ...string) string {
	ep := endpointOptimizers + "/" + url.PathEscape(id)
	for _, p := range parts {
		ep += "/" + p
	}
	return h.client.URL(ep).String()
}

func (h *httpAPI) Health(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(withOperation(ctx, "health"), h.healthTimeout)
	defer cancel()

	unavailable := Health{Status: StatusUnavailable}

	req, err := http.NewRequest(http.MethodGet, h.client.URL(endpointHealth).String(), nil)
	if err != nil {
		return unavailable
	}
	resp, body, err := h.client.Do(ctx, req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return unavailable
	}

	hl := Health{}
	if err := json.Unmarshal(body, &hl); err != nil {
		return unavailable
	}
	if hl.Status == "" {
		hl.Status = StatusHealthy
	}
	return hl
}

func (h *httpAPI) CreateOptimizer(ctx context.Context, cr CreateRequest) (CreateResponse, error) {
	out := CreateResponse{}
	if cr.Constraints == nil {
		cr.Constraints = []Constraint{}
	}

	req, err := httpNewJSONRequest(http.MethodPost, h.client.URL(endpointOptimizers).String(), cr)
	if err != nil {
		return out, err
	}
	resp, body, err := h.client.Do(withOperation(ctx, "create"), req)
	if err != nil {
		return out, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if len(body) > 0 {
			err = json.Unmarshal(body, &out)
		}
		if out.OptimizerID == "" {
			out.OptimizerID = cr.OptimizerID
		}
		return out, err
	default:
		return out, newError(resp, body)
	}
}

func (h *httpAPI) DeleteOptimizer(ctx context.Context, id string) error {
	req, err := http.NewRequest(http.MethodDelete, h.optimizerURL(id), nil)
	if err != nil {
		return err
	}
	resp, body, err := h.client.Do(withOperation(ctx, "delete"), req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	default:
		return notFoundMessage(newError(resp, body), id)
	}
}

func (h *httpAPI) Suggest(ctx context.Context, id string, batchSize int) ([]Point, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	u, err := url.Parse(h.optimizerURL(id, "suggest"))
	if err != nil {
		return nil, err
	}
	u.RawQuery = url.Values{"batch_size": []string{strconv.Itoa(batchSize)}}.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, body, err := h.client.Do(withOperation(ctx, "suggest"), req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Suggestions []Point `json:"suggestions"`
		}
		err = json.Unmarshal(body, &out)
		return out.Suggestions, err
	default:
		return nil, notFoundMessage(newError(resp, body), id)
	}
}

func (h *httpAPI) AddMeasurement(ctx context.Context, id string, m Measurement) error {
	return h.postMeasurements(withOperation(ctx, "measurement"), h.optimizerURL(id, "measurements"), id, m)
}

func (h *httpAPI) AddMeasurements(ctx context.Context, id string, ms []Measurement) error {
	payload := struct {
		Measurements []Measurement `json:"measurements"`
	}{Measurements: ms}
	return h.postMeasurements(withOperation(ctx, "measurements_batch"), h.optimizerURL(id, "measurements", "batch"), id, payload)
}

func (h *httpAPI) postMeasurements(ctx context.Context, u, id string, payload interface{}) error {
	req, err := httpNewJSONRequest(http.MethodPost, u, payload)
	if err != nil {
		return err
	}
	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return notFoundMessage(newError(resp, body), id)
	}
}

func (h *httpAPI) BestPoint(ctx context.Context, id string) (BestPoint, error) {
	bp := BestPoint{}
	err := h.getJSON(withOperation(ctx, "best_point"), h.optimizerURL(id, "best_point"), id, &bp)
	return bp, err
}

func (h *httpAPI) FeatureImportance(ctx context.Context, id string) (FeatureImportance, error) {
	fi := FeatureImportance{}
	err := h.getJSON(withOperation(ctx, "feature_importance"), h.optimizerURL(id, "feature_importance"), id, &fi)
	return fi, err
}

func (h *httpAPI) Predict(ctx context.Context, id string, points []Point) ([]Prediction, error) {
	payload := struct {
		Points []Point `json:"points"`
	}{Points: points}

	req, err := httpNewJSONRequest(http.MethodPost, h.optimizerURL(id, "predict"), payload)
	if err != nil {
		return nil, err
	}
	resp, body, err := h.client.Do(withOperation(ctx, "predict"), req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Predictions []Prediction `json:"predictions"`
		}
		err = json.Unmarshal(body, &out)
		return out.Predictions, err
	default:
		return nil, notFoundMessage(newError(resp, body), id)
	}
}

func (h *httpAPI) getJSON(ctx context.Context, u, id string, v interface{}) error {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return json.Unmarshal(body, v)
	default:
		return notFoundMessage(newError(resp, body), id)
	}
}

// notFoundMessage improves the "not found" message using the optimizer id.
func notFoundMessage(err *Error, id string) error {
	if err.Type == ErrOptimizerNotFound {
		err.Message = fmt.Sprintf(`optimizer "%s" not found`, id)
	}
	return err
}

// httpNewJSONRequest returns a new HTTP request with a JSON payload.
func httpNewJSONRequest(method, u string, body interface{}) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, u, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
