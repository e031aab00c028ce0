package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silviu20/Web-App-sub001/internal/logging"
)

var errSentinel = stderrors.New("sentinel")

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Op(nil, ComponentEngine, "Health"))

	err := Wrap(errSentinel, "creating optimizer").WithComponent(ComponentEngine).WithOperation("CreateOptimizer")
	assert.Equal(t, "engine.CreateOptimizer: creating optimizer: sentinel", err.Error())
	assert.True(t, Is(err, errSentinel))
	assert.NotEmpty(t, err.StackTrace())

	outer := Wrapf(err, "attempt %d", 2)
	assert.True(t, Is(outer, errSentinel))
	assert.Equal(t, err.StackTrace(), outer.StackTrace())

	var target *Error
	require.True(t, As(Op(errSentinel, ComponentStore, "Get"), &target))
	assert.Equal(t, ComponentStore, target.Component)
	assert.Equal(t, errSentinel, Unwrap(target))
}

func TestNew(t *testing.T) {
	assert.Equal(t, "boom", New("boom").Error())
	assert.Equal(t, "code 7", Errorf("code %d", 7).Error())
	assert.Equal(t, "service.Create: changed", New("x").WithMessage("changed").
		WithComponent(ComponentService).WithOperation("Create").Error())
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.DebugLevel, &buf)

	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, buf.String(), "Recovered from panic")
}

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.DebugLevel, &buf)

	handler := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, buf.String(), "Request error")
}
