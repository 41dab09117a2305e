package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseDate(t *testing.T) {
	// 2025-06-02 is a Monday
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	t.Run("weekday plus one stays on weekday", func(t *testing.T) {
		got := ReleaseDate(monday, 1)
		assert.Equal(t, time.Tuesday, got.Weekday())
		assert.Equal(t, 3, got.Day())
	})

	t.Run("friday plus one rolls to monday", func(t *testing.T) {
		friday := time.Date(2025, 6, 6, 10, 0, 0, 0, time.UTC)
		got := ReleaseDate(friday, 1)
		assert.Equal(t, time.Monday, got.Weekday())
		assert.Equal(t, 9, got.Day())
	})

	t.Run("saturday plus one rolls to monday", func(t *testing.T) {
		saturday := time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC)
		got := ReleaseDate(saturday, 1)
		assert.Equal(t, time.Monday, got.Weekday())
		assert.Equal(t, 9, got.Day())
	})

	t.Run("plus zero keeps weekday base", func(t *testing.T) {
		got := ReleaseDate(monday, 0)
		assert.Equal(t, monday, got)
	})

	t.Run("preserves time of day", func(t *testing.T) {
		got := ReleaseDate(monday, 1)
		assert.Equal(t, 10, got.Hour())
	})
}

func TestNewSettlement(t *testing.T) {
	eventID := uuid.New()
	driverID := uuid.New()
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	t.Run("creates pending settlement with release date", func(t *testing.T) {
		s, err := NewSettlement(eventID, driverID, valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
		require.NoError(t, err)
		require.NotNil(t, s)

		assert.Equal(t, eventID, s.FinancialEventID)
		assert.Equal(t, driverID, s.DriverID)
		assert.True(t, s.Amount.Equal(decimal.NewFromFloat(80.00)))
		assert.Equal(t, StatusPending, s.Status)
		assert.Equal(t, time.Tuesday, s.ScheduledFor.Weekday())
		assert.Nil(t, s.ProcessedAt)
	})

	t.Run("publishes SettlementScheduled event", func(t *testing.T) {
		s, err := NewSettlement(eventID, driverID, valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
		require.NoError(t, err)

		events := s.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "SettlementScheduled", events[0].EventType())

		event, ok := events[0].(*SettlementScheduledEvent)
		require.True(t, ok)
		assert.Equal(t, s.ID, event.SettlementID)
		assert.Equal(t, driverID, event.DriverID)
	})

	t.Run("rejects nil event id", func(t *testing.T) {
		_, err := NewSettlement(uuid.Nil, driverID, valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
		require.Error(t, err)
	})

	t.Run("rejects nil driver id", func(t *testing.T) {
		_, err := NewSettlement(eventID, uuid.Nil, valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
		require.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewSettlement(eventID, driverID, valueobject.ZeroBRL(), monday, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("rejects negative settlement days", func(t *testing.T) {
		_, err := NewSettlement(eventID, driverID, valueobject.NewMoneyBRLFromFloat(80.00), monday, -1)
		require.Error(t, err)
	})
}

func TestSettlementRelease(t *testing.T) {
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	newPending := func(t *testing.T) *Settlement {
		t.Helper()
		s, err := NewSettlement(uuid.New(), uuid.New(), valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
		require.NoError(t, err)
		s.ClearDomainEvents()
		return s
	}

	t.Run("releases pending settlement", func(t *testing.T) {
		s := newPending(t)
		now := s.ScheduledFor.Add(time.Hour)

		require.NoError(t, s.Release(now))

		assert.Equal(t, StatusCompleted, s.Status)
		require.NotNil(t, s.ProcessedAt)
		assert.Equal(t, now, *s.ProcessedAt)

		events := s.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "SettlementReleased", events[0].EventType())
	})

	t.Run("releasing twice is a no-op", func(t *testing.T) {
		s := newPending(t)
		first := s.ScheduledFor.Add(time.Hour)
		require.NoError(t, s.Release(first))
		s.ClearDomainEvents()

		require.NoError(t, s.Release(first.Add(time.Hour)))
		assert.Equal(t, first, *s.ProcessedAt)
		assert.Empty(t, s.GetDomainEvents())
	})

	t.Run("rejects releasing a cancelled settlement", func(t *testing.T) {
		s := newPending(t)
		require.NoError(t, s.Cancel(time.Now()))

		err := s.Release(time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot release")
	})
}

func TestSettlementCancel(t *testing.T) {
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	t.Run("cancels pending settlement", func(t *testing.T) {
		s, err := NewSettlement(uuid.New(), uuid.New(), valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
		require.NoError(t, err)
		s.ClearDomainEvents()

		require.NoError(t, s.Cancel(time.Now()))
		assert.Equal(t, StatusCancelled, s.Status)

		events := s.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "SettlementCancelled", events[0].EventType())
	})

	t.Run("rejects cancelling a released settlement", func(t *testing.T) {
		s, err := NewSettlement(uuid.New(), uuid.New(), valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
		require.NoError(t, err)
		require.NoError(t, s.Release(s.ScheduledFor))

		err = s.Cancel(time.Now())
		require.Error(t, err)
	})
}

func TestSettlementIsDue(t *testing.T) {
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	s, err := NewSettlement(uuid.New(), uuid.New(), valueobject.NewMoneyBRLFromFloat(80.00), monday, 1)
	require.NoError(t, err)

	assert.False(t, s.IsDue(s.ScheduledFor.Add(-time.Minute)))
	assert.True(t, s.IsDue(s.ScheduledFor))
	assert.True(t, s.IsDue(s.ScheduledFor.Add(time.Hour)))

	require.NoError(t, s.Release(s.ScheduledFor))
	assert.False(t, s.IsDue(s.ScheduledFor.Add(time.Hour)))
}
