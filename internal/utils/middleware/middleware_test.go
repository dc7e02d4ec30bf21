package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botmarket/server/internal/utils/logger"
	"github.com/botmarket/server/internal/utils/requestctx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func bufferedLogger(level string) (*logger.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.New(&logger.Config{Level: level, Format: "json", Output: buf}), buf
}

// logLines decodes every JSON line written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(nil))
	router.GET("/payments/:order_id/status", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generated when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/ord_1/status", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated from the caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/ord_1/status", nil)
		req.Header.Set(RequestIDHeader, "checkout-7f3a")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "checkout-7f3a", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "checkout-7f3a", w.Body.String())
	})
}

func TestGetRequestID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Empty(t, GetRequestID(c))
}

func TestRequestID_StoresLoggerAndContext(t *testing.T) {
	log, buf := bufferedLogger("info")

	router := gin.New()
	router.Use(RequestID(log))
	router.GET("/health", func(c *gin.Context) {
		ctx := c.Request.Context()
		logger.FromContext(ctx).Info("inside handler")
		c.String(http.StatusOK, requestctx.RequestID(ctx))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Body.String())
	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-42", lines[0]["request_id"])
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusUnprocessableEntity, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			log, buf := bufferedLogger("debug")
			router := gin.New()
			router.Use(RequestID(nil), Logging(log))
			router.POST("/payments", func(c *gin.Context) {
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodPost, "/payments?source=storefront", nil)
			req.Header.Set(IdempotencyKeyHeader, "k-1")
			router.ServeHTTP(httptest.NewRecorder(), req)

			lines := logLines(t, buf)
			require.Len(t, lines, 1)
			line := lines[0]
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, "request completed", line["msg"])
			assert.EqualValues(t, tt.status, line["status"])
			assert.Equal(t, "/payments", line["path"])
			assert.Equal(t, "source=storefront", line["query"])
			assert.Equal(t, true, line["idempotent"])
			assert.NotEmpty(t, line["request_id"])
		})
	}
}

func TestLogging_SkipPaths(t *testing.T) {
	log, buf := bufferedLogger("info")
	router := gin.New()
	router.Use(Logging(log, "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, buf.String())
}

func TestRecovery(t *testing.T) {
	t.Run("answers 500 and logs the panic", func(t *testing.T) {
		log, buf := bufferedLogger("error")
		router := gin.New()
		router.Use(Recovery(log))
		router.POST("/reconcile", func(c *gin.Context) {
			panic("gateway registry missing")
		})

		w := httptest.NewRecorder()
		require.NotPanics(t, func() {
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reconcile", nil))
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "panic recovered", lines[0]["msg"])
		assert.Equal(t, "gateway registry missing", lines[0]["panic"])
	})

	t.Run("nil logger", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery(nil))
		router.GET("/panic", func(c *gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		require.NotPanics(t, func() {
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(DefaultCORSConfig([]string{"https://shop.example.com"})))
	router.POST("/pay", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("preflight allows the idempotency header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/pay", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rejects unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig(nil)

	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.ElementsMatch(t, []string{"GET", "POST", "OPTIONS"}, cfg.AllowMethods)
	assert.Contains(t, cfg.AllowHeaders, "Authorization")
	assert.Contains(t, cfg.AllowHeaders, IdempotencyKeyHeader)
	assert.Contains(t, cfg.ExposeHeaders, IdempotencyReplayedHeader)
	assert.False(t, cfg.AllowCredentials)
}
