package wallet

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalancesAvailable(t *testing.T) {
	t.Run("subtracts held blocked and pending withdrawals", func(t *testing.T) {
		b := Balances{
			Total:              decimal.NewFromFloat(500.00),
			Held:               decimal.NewFromFloat(120.00),
			Blocked:            decimal.NewFromFloat(30.00),
			PendingWithdrawals: decimal.NewFromFloat(50.00),
		}

		available, negative := b.Available()
		assert.True(t, available.Equal(decimal.NewFromFloat(300.00)))
		assert.False(t, negative)
	})

	t.Run("floors negative result at zero and flags it", func(t *testing.T) {
		b := Balances{
			Total: decimal.NewFromFloat(100.00),
			Held:  decimal.NewFromFloat(150.00),
		}

		available, negative := b.Available()
		assert.True(t, available.IsZero())
		assert.True(t, negative)
	})

	t.Run("zero balances give zero available", func(t *testing.T) {
		available, negative := Balances{}.Available()
		assert.True(t, available.IsZero())
		assert.False(t, negative)
	})
}

func TestNewDriverWallet(t *testing.T) {
	t.Run("creates empty snapshot with default minimum", func(t *testing.T) {
		driverID := uuid.New()
		w, err := NewDriverWallet(driverID)
		require.NoError(t, err)

		assert.Equal(t, driverID, w.DriverID)
		assert.True(t, w.TotalBalance.IsZero())
		assert.True(t, w.AvailableBalance.IsZero())
		assert.True(t, w.MinimumWithdrawal.Equal(decimal.NewFromInt(50)))
		assert.False(t, w.NegativeAvailable)
	})

	t.Run("rejects nil driver", func(t *testing.T) {
		_, err := NewDriverWallet(uuid.Nil)
		require.Error(t, err)
	})
}

func TestWalletRefresh(t *testing.T) {
	t.Run("overwrites snapshot from derived balances", func(t *testing.T) {
		w, _ := NewDriverWallet(uuid.New())

		w.Refresh(Balances{
			Total:              decimal.NewFromFloat(500.00),
			Held:               decimal.NewFromFloat(120.00),
			Credit:             decimal.NewFromFloat(25.00),
			PendingWithdrawals: decimal.NewFromFloat(50.00),
		})

		assert.True(t, w.TotalBalance.Equal(decimal.NewFromFloat(500.00)))
		assert.True(t, w.HeldBalance.Equal(decimal.NewFromFloat(120.00)))
		assert.True(t, w.AvailableBalance.Equal(decimal.NewFromFloat(330.00)))
		assert.True(t, w.CreditBalance.Equal(decimal.NewFromFloat(25.00)))
		assert.False(t, w.NegativeAvailable)
		assert.Equal(t, 2, w.GetVersion())
	})

	t.Run("flags negative available", func(t *testing.T) {
		w, _ := NewDriverWallet(uuid.New())

		w.Refresh(Balances{
			Total: decimal.NewFromFloat(40.00),
			Held:  decimal.NewFromFloat(90.00),
		})

		assert.True(t, w.AvailableBalance.IsZero())
		assert.True(t, w.NegativeAvailable)
	})

	t.Run("publishes WalletRefreshed event", func(t *testing.T) {
		w, _ := NewDriverWallet(uuid.New())
		w.Refresh(Balances{Total: decimal.NewFromFloat(10.00)})

		events := w.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "WalletRefreshed", events[0].EventType())
	})
}

func TestWalletCanWithdraw(t *testing.T) {
	newFunded := func(t *testing.T, available float64) *DriverWallet {
		t.Helper()
		w, err := NewDriverWallet(uuid.New())
		require.NoError(t, err)
		w.Refresh(Balances{Total: decimal.NewFromFloat(available)})
		return w
	}

	t.Run("allows amount within available above minimum", func(t *testing.T) {
		w := newFunded(t, 200.00)
		assert.NoError(t, w.CanWithdraw(valueobject.NewMoneyBRLFromFloat(150.00)))
	})

	t.Run("allows exact available balance", func(t *testing.T) {
		w := newFunded(t, 200.00)
		assert.NoError(t, w.CanWithdraw(valueobject.NewMoneyBRLFromFloat(200.00)))
	})

	t.Run("allows exact minimum", func(t *testing.T) {
		w := newFunded(t, 200.00)
		assert.NoError(t, w.CanWithdraw(valueobject.NewMoneyBRLFromFloat(50.00)))
	})

	t.Run("rejects below minimum", func(t *testing.T) {
		w := newFunded(t, 200.00)
		err := w.CanWithdraw(valueobject.NewMoneyBRLFromFloat(49.99))
		require.Error(t, err)

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "BELOW_MINIMUM_WITHDRAWAL", de.Code)
	})

	t.Run("rejects above available", func(t *testing.T) {
		w := newFunded(t, 200.00)
		err := w.CanWithdraw(valueobject.NewMoneyBRLFromFloat(200.01))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		w := newFunded(t, 200.00)
		require.Error(t, w.CanWithdraw(valueobject.ZeroBRL()))
	})
}

func TestWalletLifetimeStats(t *testing.T) {
	w, _ := NewDriverWallet(uuid.New())

	w.RecordEarned(decimal.NewFromFloat(80.00))
	w.RecordEarned(decimal.NewFromFloat(20.00))
	w.RecordEarned(decimal.NewFromFloat(-5.00))
	w.RecordWithdrawn(decimal.NewFromFloat(50.00))

	assert.True(t, w.TotalEarned.Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, w.TotalWithdrawn.Equal(decimal.NewFromFloat(50.00)))
}
