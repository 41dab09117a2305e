package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(zapLevel zapcore.Level, gormLevel gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapLevel)
	return NewGormLogger(zap.New(core), gormLevel, opts...), recorded
}

func TestNewGormLogger(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

		assert.Equal(t, gormlogger.Info, gormLog.level)
		assert.Equal(t, defaultSlowThreshold, gormLog.slowThreshold)
	})

	t.Run("options override defaults", func(t *testing.T) {
		gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info,
			WithSlowThreshold(500*time.Millisecond),
			WithIgnoreRecordNotFoundError(false),
		)

		assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
		assert.False(t, gormLog.skipNotFound)
	})

	t.Run("satisfies the gorm logger interface", func(t *testing.T) {
		gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)
		var _ gormlogger.Interface = gormLog
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

	newLogger := gormLog.LogMode(gormlogger.Warn)

	// LogMode returns a copy and leaves the receiver untouched.
	assert.Equal(t, gormlogger.Info, gormLog.level)
	newGormLog, ok := newLogger.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, newGormLog.level)
}

func TestGormLogger_Levels(t *testing.T) {
	t.Run("info formats arguments", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)
		gormLog.Info(context.Background(), "test message %s", "value")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "test message value")
	})

	t.Run("info suppressed when silent", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Silent)
		gormLog.Info(context.Background(), "test message")

		assert.Empty(t, recorded.All())
	})

	t.Run("warn logs at warn level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.WarnLevel, gormlogger.Warn)
		gormLog.Warn(context.Background(), "warning message %d", 42)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "warning message 42")
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("error logs at error level", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)
		gormLog.Error(context.Background(), "error message")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	})
}

func TestGormLogger_Trace(t *testing.T) {
	queryFn := func(sql string, rows int64) func() (string, int64) {
		return func() (string, int64) { return sql, rows }
	}

	t.Run("query errors log as SQL Error", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)
		gormLog.Trace(context.Background(), time.Now(),
			queryFn("SELECT * FROM driver_wallets", 0), errors.New("test error"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Error")
	})

	t.Run("record not found can be ignored", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error,
			WithIgnoreRecordNotFoundError(true))
		gormLog.Trace(context.Background(), time.Now(),
			queryFn("SELECT * FROM driver_wallets WHERE driver_id = ?", 0), gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("slow queries log as SLOW SQL", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.WarnLevel, gormlogger.Warn,
			WithSlowThreshold(1*time.Nanosecond))
		gormLog.Trace(context.Background(), time.Now().Add(-1*time.Second),
			queryFn("SELECT * FROM settlements WHERE status = 'PENDING'", 10), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SLOW SQL")
	})

	t.Run("fast queries log as SQL Query", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)
		gormLog.Trace(context.Background(), time.Now(),
			queryFn("SELECT * FROM ledger_accounts", 5), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Query")
	})

	t.Run("silent level drops everything", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Silent)
		gormLog.Trace(context.Background(), time.Now(),
			queryFn("SELECT * FROM ledger_accounts", 5), nil)

		assert.Empty(t, recorded.All())
	})

	t.Run("request id from context is attached", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)
		ctx := context.WithValue(context.Background(), RequestIDKey, "test-req-id")
		gormLog.Trace(ctx, time.Now(), queryFn("SELECT * FROM financial_events", 5), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)

		found := false
		for _, field := range logs[0].Context {
			if field.Key == "request_id" {
				found = true
				assert.Equal(t, "test-req-id", field.String)
			}
		}
		assert.True(t, found, "request_id should be in log fields")
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGormLogLevel(tt.level))
		})
	}
}
