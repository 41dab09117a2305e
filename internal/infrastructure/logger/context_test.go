package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newCaptureLogger returns a JSON logger writing into the returned buffer.
func newCaptureLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

// noopSpanContext starts a span from a noop tracer. Its span context is
// deliberately invalid, which exercises the fallback paths.
func noopSpanContext() (context.Context, trace.Span) {
	tracer := noop.NewTracerProvider().Tracer("test")
	return tracer.Start(context.Background(), "test-span")
}

func TestWithContext(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	t.Run("round trips the logger", func(t *testing.T) {
		ctx := WithContext(context.Background(), logger)
		assert.NotNil(t, FromContext(ctx))
	})

	t.Run("missing logger yields a usable nop", func(t *testing.T) {
		l := FromContext(context.Background())
		assert.NotPanics(t, func() { l.Info("test") })
	})

	t.Run("wrong value type yields a usable nop", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		l := FromContext(ctx)
		assert.NotPanics(t, func() { l.Info("test") })
	})
}

func TestContextEnrichment(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		attach func(context.Context) (context.Context, *zap.Logger)
		read   func(context.Context) string
		value  string
	}{
		{
			name: "request id",
			attach: func(ctx context.Context) (context.Context, *zap.Logger) {
				return WithRequestID(ctx, logger, "req-123")
			},
			read:  GetRequestID,
			value: "req-123",
		},
		{
			name: "driver id",
			attach: func(ctx context.Context) (context.Context, *zap.Logger) {
				return WithDriverID(ctx, logger, "driver-456")
			},
			read:  GetDriverID,
			value: "driver-456",
		},
		{
			name: "operator id",
			attach: func(ctx context.Context) (context.Context, *zap.Logger) {
				return WithOperatorID(ctx, logger, "operator-789")
			},
			read:  GetOperatorID,
			value: "operator-789",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, tc.read(context.Background()))

			ctx, enriched := tc.attach(context.Background())
			assert.Equal(t, tc.value, tc.read(ctx))
			assert.NotNil(t, enriched)

			// the enriched logger replaces the one stored in context
			assert.NotEqual(t, logger, FromContext(ctx))
		})
	}
}

func TestContextChaining(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx := context.Background()
	ctx, logger = WithRequestID(ctx, logger, "req-1")
	ctx, logger = WithDriverID(ctx, logger, "driver-1")
	ctx, logger = WithOperatorID(ctx, logger, "operator-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "driver-1", GetDriverID(ctx))
	assert.Equal(t, "operator-1", GetOperatorID(ctx))
	assert.NotNil(t, logger)
}

func TestWithRequestID_Override(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx, _ := WithRequestID(context.Background(), logger, "first-id")
	assert.Equal(t, "first-id", GetRequestID(ctx))

	ctx, _ = WithRequestID(ctx, logger, "second-id")
	assert.Equal(t, "second-id", GetRequestID(ctx))
}

func TestContextKeysAreDistinct(t *testing.T) {
	keys := []contextKey{LoggerKey, RequestIDKey, DriverIDKey, OperatorIDKey}
	seen := make(map[contextKey]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate context key %q", k)
		seen[k] = true
	}
}

func TestTraceCorrelation(t *testing.T) {
	t.Run("no span yields empty IDs", func(t *testing.T) {
		assert.Empty(t, GetTraceID(context.Background()))
		assert.Empty(t, GetSpanID(context.Background()))
	})

	t.Run("invalid span context yields empty IDs", func(t *testing.T) {
		ctx, span := noopSpanContext()
		defer span.End()

		require.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
		assert.Empty(t, GetTraceID(ctx))
		assert.Empty(t, GetSpanID(ctx))
	})

	t.Run("WithTraceContext leaves logger unchanged without valid span", func(t *testing.T) {
		base := zap.NewNop()

		assert.Equal(t, base, WithTraceContext(context.Background(), base))

		ctx, span := noopSpanContext()
		defer span.End()
		assert.Equal(t, base, WithTraceContext(ctx, base))
	})
}

func TestL(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		cl := L(context.Background())
		assert.NotNil(t, cl)
		assert.NotPanics(t, func() { cl.Info("test") })
	})

	t.Run("logger from context", func(t *testing.T) {
		base, err := NewForEnvironment("development")
		require.NoError(t, err)

		cl := L(WithContext(context.Background(), base))
		assert.NotNil(t, cl.logger)
	})
}

func TestWithLogger_UsesProvidedLogger(t *testing.T) {
	base := zap.NewNop()
	cl := WithLogger(context.Background(), base)
	assert.Equal(t, base, cl.logger)
}

func TestContextLogger_With(t *testing.T) {
	base, _ := newCaptureLogger()
	ctx := context.Background()

	child := WithLogger(ctx, base).With(zap.String("key", "value"))

	assert.Equal(t, ctx, child.ctx)
	assert.NotEqual(t, base, child.logger)
}

func TestContextLogger_LogLevels(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop())

	assert.NotPanics(t, func() {
		cl.Debug("debug message")
		cl.Info("info message")
		cl.Warn("warn message")
		cl.Error("error message")
		cl.Zap().Info("as zap")
		cl.Sugar().Infof("as sugar %s", "message")
	})
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() { cl.Info("test") })
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	base, buf := newCaptureLogger()

	ctx := context.Background()
	ctx, _ = WithRequestID(ctx, base, "req-123")
	ctx, _ = WithDriverID(ctx, base, "driver-456")
	ctx, _ = WithOperatorID(ctx, base, "operator-789")
	ctx = WithContext(ctx, base)

	L(ctx).Info("payout dispatched", zap.String("provider", "pix"))

	output := buf.String()
	assert.Contains(t, output, `"request_id":"req-123"`)
	assert.Contains(t, output, `"driver_id":"driver-456"`)
	assert.Contains(t, output, `"operator_id":"operator-789"`)
	assert.Contains(t, output, `"provider":"pix"`)
	assert.Contains(t, output, `"msg":"payout dispatched"`)
}

func TestContextLogger_EmptyContextFieldsOmitted(t *testing.T) {
	base, buf := newCaptureLogger()

	WithLogger(context.Background(), base).Info("test")

	output := buf.String()
	assert.Contains(t, output, `"msg":"test"`)
	assert.NotContains(t, output, `"request_id"`)
	assert.NotContains(t, output, `"driver_id"`)
	assert.NotContains(t, output, `"operator_id"`)
}

func TestContextLogger_WithChaining(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop()).
		With(zap.String("field1", "value1")).
		With(zap.String("field2", "value2"))

	assert.NotPanics(t, func() { cl.Info("chained test") })
}
