package payout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingPayout(t *testing.T) *Payout {
	t.Helper()
	p, err := NewPayout(uuid.New(), valueobject.NewMoneyBRLFromFloat(150.00), BankDetails{PixKey: "driver@bank.br"}, "efi")
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestNewPayout(t *testing.T) {
	t.Run("creates pending payout", func(t *testing.T) {
		driverID := uuid.New()
		p, err := NewPayout(driverID, valueobject.NewMoneyBRLFromFloat(150.00), BankDetails{PixKey: "driver@bank.br"}, "efi")
		require.NoError(t, err)
		require.NotNil(t, p)

		assert.Equal(t, driverID, p.DriverID)
		assert.True(t, p.Amount.Equal(decimal.NewFromFloat(150.00)))
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, MethodPix, p.Method)
		assert.Equal(t, "driver@bank.br", p.BankDetails.PixKey)
		assert.Equal(t, "efi", p.Provider)
		assert.Nil(t, p.ProviderTransactionID)
	})

	t.Run("publishes PayoutRequested event", func(t *testing.T) {
		p, err := NewPayout(uuid.New(), valueobject.NewMoneyBRLFromFloat(150.00), BankDetails{PixKey: "driver@bank.br"}, "efi")
		require.NoError(t, err)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "PayoutRequested", events[0].EventType())
	})

	t.Run("rejects nil driver", func(t *testing.T) {
		_, err := NewPayout(uuid.Nil, valueobject.NewMoneyBRLFromFloat(150.00), BankDetails{PixKey: "k"}, "efi")
		require.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPayout(uuid.New(), valueobject.ZeroBRL(), BankDetails{PixKey: "k"}, "efi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("rejects missing pix key", func(t *testing.T) {
		_, err := NewPayout(uuid.New(), valueobject.NewMoneyBRLFromFloat(150.00), BankDetails{}, "efi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Pix key")
	})
}

func TestPayoutLifecycle(t *testing.T) {
	t.Run("walks pending to completed", func(t *testing.T) {
		p := newPendingPayout(t)

		require.NoError(t, p.StartProcessing())
		assert.Equal(t, StatusProcessing, p.Status)
		require.NotNil(t, p.ProcessingStartedAt)

		require.NoError(t, p.Complete("efi-tx-001"))
		assert.Equal(t, StatusCompleted, p.Status)
		require.NotNil(t, p.ProviderTransactionID)
		assert.Equal(t, "efi-tx-001", *p.ProviderTransactionID)
		require.NotNil(t, p.CompletedAt)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "PayoutCompleted", events[0].EventType())
	})

	t.Run("rejects completing without processing", func(t *testing.T) {
		p := newPendingPayout(t)
		err := p.Complete("efi-tx-001")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot complete")
	})

	t.Run("rejects completing without provider id", func(t *testing.T) {
		p := newPendingPayout(t)
		require.NoError(t, p.StartProcessing())
		err := p.Complete("")
		require.Error(t, err)
	})

	t.Run("rejects double processing", func(t *testing.T) {
		p := newPendingPayout(t)
		require.NoError(t, p.StartProcessing())
		err := p.StartProcessing()
		require.Error(t, err)
	})

	t.Run("fails from processing with reason", func(t *testing.T) {
		p := newPendingPayout(t)
		require.NoError(t, p.StartProcessing())

		require.NoError(t, p.Fail("rail timeout"))
		assert.Equal(t, StatusFailed, p.Status)
		assert.Equal(t, "rail timeout", p.FailureReason)
		require.NotNil(t, p.FailedAt)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "PayoutFailed", events[0].EventType())
	})

	t.Run("fails directly from pending", func(t *testing.T) {
		p := newPendingPayout(t)
		require.NoError(t, p.Fail("driver account closed"))
		assert.Equal(t, StatusFailed, p.Status)
	})

	t.Run("rejects failing a terminal payout", func(t *testing.T) {
		p := newPendingPayout(t)
		require.NoError(t, p.StartProcessing())
		require.NoError(t, p.Complete("efi-tx-001"))

		err := p.Fail("too late")
		require.Error(t, err)
	})

	t.Run("requires a failure reason", func(t *testing.T) {
		p := newPendingPayout(t)
		err := p.Fail("")
		require.Error(t, err)
	})
}

func TestStatusIsOutstanding(t *testing.T) {
	assert.True(t, StatusPending.IsOutstanding())
	assert.True(t, StatusProcessing.IsOutstanding())
	assert.False(t, StatusCompleted.IsOutstanding())
	assert.False(t, StatusFailed.IsOutstanding())
}
