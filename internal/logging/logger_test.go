package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf).WithField("service", "test")

	logger.Debug("hidden")
	logger.Info("synthesized", map[string]interface{}{"strategy": "BotorchRecommender", "err": errors.New("boom")})
	logger.WithError(errors.New("bad")).Warn("warned")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "synthesized", entries[0]["message"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "test", entries[0]["service"])
	assert.Equal(t, "BotorchRecommender", entries[0]["strategy"])
	assert.Equal(t, "boom", entries[0]["err"])
	assert.NotEmpty(t, entries[0]["caller"])

	assert.Equal(t, "WARN", entries[1]["level"])
	assert.Equal(t, "bad", entries[1]["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLevel("debug"))
	assert.Equal(t, WarnLevel, parseLevel("WARN"))
	assert.Equal(t, InfoLevel, parseLevel("verbose"))
}

func TestNewLoggerFileOutput(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, line string)
	}{
		{
			name:   "json",
			format: "JSON",
			check: func(t *testing.T, line string) {
				var entry map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(line), &entry))
				assert.Equal(t, "written", entry["message"])
				assert.Equal(t, "WARN", entry["level"])
			},
		},
		{
			name:   "console",
			format: "text",
			check: func(t *testing.T, line string) {
				assert.Contains(t, line, "WARN")
				assert.Contains(t, line, "written")
				assert.False(t, strings.HasPrefix(line, "{"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "service.log")
			logger, err := NewLogger(&Config{Level: "warn", Format: tt.format, Output: path})
			require.NoError(t, err)

			logger.Info("dropped")
			logger.Warn("written")
			require.NoError(t, logger.Sync())

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			require.Len(t, lines, 1)
			tt.check(t, lines[0])
		})
	}
}

func TestNewLoggerBadOutput(t *testing.T) {
	_, err := NewLogger(&Config{Output: filepath.Join(t.TempDir(), "missing", "service.log")})
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctxLogger := &CtxLogger{New(DebugLevel, &buf)}
	ctx := ctxLogger.WithContext(context.Background())

	assert.Same(t, ctxLogger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	var sawLogger bool
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawLogger = r.Context().Value(ctxLoggerKey{}).(*CtxLogger)
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/engine/health", nil))

	assert.True(t, sawLogger)
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "Request completed", entries[0]["message"])
	assert.Equal(t, float64(http.StatusTeapot), entries[0]["status"])
	assert.Equal(t, "/api/v1/engine/health", entries[0]["path"])
	assert.Equal(t, http.StatusText(http.StatusTeapot), entries[0]["error"])
}
