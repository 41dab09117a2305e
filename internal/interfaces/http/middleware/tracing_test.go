package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

const testDriverUUID = "12345678-1234-1234-1234-123456789abc"

// setupTestTracer installs an in-memory tracer provider and returns its recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

// serveTraced runs a GET request through the given middlewares and a 200 handler
// registered at the given route, returning the recorder.
func serveTraced(route, path string, setHeaders func(*http.Request), status int, mws ...gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	for _, mw := range mws {
		router.Use(mw)
	}
	router.GET(route, func(c *gin.Context) {
		c.JSON(status, gin.H{"message": http.StatusText(status)})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if setHeaders != nil {
		setHeaders(req)
	}
	router.ServeHTTP(w, req)
	return w
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()

	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no ended span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}
	return "", false
}

func TestTracingWithConfig(t *testing.T) {
	enabled := TracingConfig{Enabled: true, ServiceName: "test-service"}

	t.Run("disabled config is a passthrough", func(t *testing.T) {
		cfg := TracingConfig{Enabled: false, ServiceName: "test-service"}
		w := serveTraced("/test", "/test", nil, http.StatusOK, TracingWithConfig(cfg))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("enabled config records a span per request", func(t *testing.T) {
		sr := setupTestTracer(t)
		w := serveTraced("/test", "/test", nil, http.StatusOK, TracingWithConfig(enabled))

		assert.Equal(t, http.StatusOK, w.Code)
		findSpan(t, sr, "GET /test")
	})

	t.Run("default config traces under the service name", func(t *testing.T) {
		cfg := DefaultTracingConfig()
		assert.Equal(t, "ride-finance", cfg.ServiceName)
		assert.True(t, cfg.Enabled)

		sr := setupTestTracer(t)
		w := serveTraced("/test", "/test", nil, http.StatusOK, Tracing())

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, sr.Ended())
	})
}

func TestTracingAttributeInjector(t *testing.T) {
	enabled := TracingConfig{Enabled: true, ServiceName: "test-service"}

	tests := []struct {
		name       string
		route      string
		path       string
		setHeaders func(*http.Request)
		attrKey    string
		attrValue  string
	}{
		{
			name:       "request id from header",
			route:      "/test",
			path:       "/test",
			setHeaders: func(r *http.Request) { r.Header.Set("X-Request-ID", "test-request-id-123") },
			attrKey:    "request_id",
			attrValue:  "test-request-id-123",
		},
		{
			name:      "driver id from route parameter",
			route:     "/drivers/:driverID/wallet",
			path:      "/drivers/" + testDriverUUID + "/wallet",
			attrKey:   "driver_id",
			attrValue: testDriverUUID,
		},
		{
			name:       "driver id from header",
			route:      "/test",
			path:       "/test",
			setHeaders: func(r *http.Request) { r.Header.Set("X-Driver-ID", testDriverUUID) },
			attrKey:    "driver_id",
			attrValue:  testDriverUUID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			w := serveTraced(tt.route, tt.path, tt.setHeaders, http.StatusOK,
				RequestID(), TracingWithConfig(enabled), TracingAttributeInjector())

			assert.Equal(t, http.StatusOK, w.Code)
			span := findSpan(t, sr, "GET "+tt.route)
			got, ok := spanAttr(span, tt.attrKey)
			require.True(t, ok, "attribute %q not recorded on span", tt.attrKey)
			assert.Equal(t, tt.attrValue, got)
		})
	}

	t.Run("no recording span is a no-op", func(t *testing.T) {
		otel.SetTracerProvider(noop.NewTracerProvider())
		w := serveTraced("/test", "/test", nil, http.StatusOK, TracingAttributeInjector())
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSpanErrorMarker(t *testing.T) {
	enabled := TracingConfig{Enabled: true, ServiceName: "test-service"}

	tests := []struct {
		name        string
		status      int
		wantCode    codes.Code
		description string
	}{
		{"not found marks the span", http.StatusNotFound, codes.Error, "Not Found"},
		{"conflict marks the span", http.StatusConflict, codes.Error, "Conflict"},
		{"bad request marks the span", http.StatusBadRequest, codes.Error, "Client Error"},
		// otelgin may set the 5xx description itself, only assert the code.
		{"server error marks the span", http.StatusInternalServerError, codes.Error, ""},
		{"success leaves the span unset", http.StatusOK, codes.Unset, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			w := serveTraced("/test", "/test", nil, tt.status,
				TracingWithConfig(enabled), SpanErrorMarker())

			assert.Equal(t, tt.status, w.Code)
			span := findSpan(t, sr, "GET /test")
			assert.Equal(t, tt.wantCode, span.Status().Code)
			if tt.description != "" {
				assert.Equal(t, tt.description, span.Status().Description)
			}
		})
	}

	t.Run("no recording span is a no-op", func(t *testing.T) {
		otel.SetTracerProvider(noop.NewTracerProvider())
		w := serveTraced("/test", "/test", nil, http.StatusInternalServerError, SpanErrorMarker())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetTraceRequestID(t *testing.T) {
	extract := func(mw gin.HandlerFunc, setHeaders func(*http.Request)) string {
		var got string
		router := gin.New()
		if mw != nil {
			router.Use(mw)
		}
		router.GET("/test", func(c *gin.Context) {
			got = getTraceRequestID(c)
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		if setHeaders != nil {
			setHeaders(req)
		}
		router.ServeHTTP(w, req)
		return got
	}

	t.Run("prefers the value stored in the gin context", func(t *testing.T) {
		got := extract(func(c *gin.Context) {
			c.Set("request_id", "context-request-id")
			c.Next()
		}, nil)
		assert.Equal(t, "context-request-id", got)
	})

	t.Run("falls back to the header", func(t *testing.T) {
		got := extract(nil, func(r *http.Request) {
			r.Header.Set("X-Request-ID", "header-request-id")
		})
		assert.Equal(t, "header-request-id", got)
	})

	t.Run("truncates oversized header values", func(t *testing.T) {
		got := extract(nil, func(r *http.Request) {
			r.Header.Set("X-Request-ID", strings.Repeat("a", 300))
		})
		assert.Len(t, got, MaxRequestIDLength)
	})
}

func TestGetTraceDriverID(t *testing.T) {
	extract := func(route, path string, setHeaders func(*http.Request)) string {
		var got string
		router := gin.New()
		router.GET(route, func(c *gin.Context) {
			got = getTraceDriverID(c)
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		if setHeaders != nil {
			setHeaders(req)
		}
		router.ServeHTTP(w, req)
		return got
	}

	t.Run("reads the route parameter", func(t *testing.T) {
		got := extract("/drivers/:driverID/wallet", "/drivers/"+testDriverUUID+"/wallet", nil)
		assert.Equal(t, testDriverUUID, got)
	})

	t.Run("reads the header", func(t *testing.T) {
		got := extract("/test", "/test", func(r *http.Request) {
			r.Header.Set("X-Driver-ID", testDriverUUID)
		})
		assert.Equal(t, testDriverUUID, got)
	})

	t.Run("rejects malformed header values", func(t *testing.T) {
		got := extract("/test", "/test", func(r *http.Request) {
			r.Header.Set("X-Driver-ID", "invalid-driver-id")
		})
		assert.Empty(t, got)
	})
}

func TestIsValidDriverID(t *testing.T) {
	tests := []struct {
		name     string
		driverID string
		valid    bool
	}{
		{"lowercase uuid", testDriverUUID, true},
		{"uppercase uuid", "12345678-1234-1234-1234-123456789ABC", true},
		{"mixed case uuid", "12345678-1234-1234-1234-123456789AbC", true},
		{"too short", "12345678-1234-1234", false},
		{"no dashes", "12345678123412341234123456789abc", false},
		{"special characters", "12345678-1234-1234-1234-123456789<>!", false},
		{"script injection attempt", "<script>alert(1)</script>", false},
		{"empty string", "", false},
		{"embedded space", "12345678-1234 -1234-1234-123456789abc", false},
		{"exceeds max length", testDriverUUID + strings.Repeat("extra", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidDriverID(tt.driverID))
		})
	}
}
