package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("creates account with valid inputs", func(t *testing.T) {
		account, err := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, "1200", account.Code)
		assert.Equal(t, "Bank Clearing", account.Name)
		assert.Equal(t, AccountTypeAsset, account.Type)
		assert.True(t, account.Balance.IsZero())
		assert.True(t, account.Active)
		assert.NotEmpty(t, account.ID)
		assert.Equal(t, 1, account.GetVersion())
	})

	t.Run("publishes AccountOpened event", func(t *testing.T) {
		account, err := NewAccount("4000", "Platform Revenue", AccountTypeRevenue)
		require.NoError(t, err)

		events := account.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "AccountOpened", events[0].EventType())

		event, ok := events[0].(*AccountOpenedEvent)
		require.True(t, ok)
		assert.Equal(t, account.ID, event.AccountID)
		assert.Equal(t, account.Code, event.AccountCode)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		_, err := NewAccount("", "Bank Clearing", AccountTypeAsset)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewAccount("1200", "", AccountTypeAsset)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with unknown type", func(t *testing.T) {
		_, err := NewAccount("1200", "Bank Clearing", AccountType("PREPAID"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown account type")
	})
}

func TestDriverLiabilityCode(t *testing.T) {
	t.Run("derives code from first uuid segment", func(t *testing.T) {
		driverID := uuid.MustParse("1a2b3c4d-0000-0000-0000-000000000000")
		assert.Equal(t, "2100-1a2b3c4d", DriverLiabilityCode(driverID))
	})

	t.Run("is stable for the same driver", func(t *testing.T) {
		driverID := uuid.New()
		assert.Equal(t, DriverLiabilityCode(driverID), DriverLiabilityCode(driverID))
	})
}

func TestAccountApplyEntry(t *testing.T) {
	t.Run("debit increases asset account", func(t *testing.T) {
		account, _ := NewAccount("1200", "Bank Clearing", AccountTypeAsset)

		err := account.ApplyEntry(EntryTypeDebit, decimal.NewFromFloat(25.00))
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.NewFromFloat(25.00)))
	})

	t.Run("credit decreases asset account", func(t *testing.T) {
		account, _ := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		require.NoError(t, account.ApplyEntry(EntryTypeDebit, decimal.NewFromFloat(100.00)))

		err := account.ApplyEntry(EntryTypeCredit, decimal.NewFromFloat(40.00))
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.NewFromFloat(60.00)))
	})

	t.Run("credit increases liability account", func(t *testing.T) {
		driverID := uuid.New()
		account, _ := NewAccount(DriverLiabilityCode(driverID), "Driver Earnings Payable", AccountTypeLiability)

		err := account.ApplyEntry(EntryTypeCredit, decimal.NewFromFloat(80.00))
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.NewFromFloat(80.00)))
	})

	t.Run("debit decreases liability account", func(t *testing.T) {
		driverID := uuid.New()
		account, _ := NewAccount(DriverLiabilityCode(driverID), "Driver Earnings Payable", AccountTypeLiability)
		require.NoError(t, account.ApplyEntry(EntryTypeCredit, decimal.NewFromFloat(80.00)))

		err := account.ApplyEntry(EntryTypeDebit, decimal.NewFromFloat(80.00))
		require.NoError(t, err)
		assert.True(t, account.Balance.IsZero())
	})

	t.Run("credit increases revenue account", func(t *testing.T) {
		account, _ := NewAccount("4000", "Platform Revenue", AccountTypeRevenue)

		err := account.ApplyEntry(EntryTypeCredit, decimal.NewFromFloat(20.00))
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.NewFromFloat(20.00)))
	})

	t.Run("bumps version per applied entry", func(t *testing.T) {
		account, _ := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		require.NoError(t, account.ApplyEntry(EntryTypeDebit, decimal.NewFromFloat(1.00)))
		require.NoError(t, account.ApplyEntry(EntryTypeDebit, decimal.NewFromFloat(1.00)))
		assert.Equal(t, 3, account.GetVersion())
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		account, _ := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		err := account.ApplyEntry(EntryTypeDebit, decimal.Zero)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		account, _ := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		err := account.ApplyEntry(EntryTypeDebit, decimal.NewFromFloat(-5.00))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("rejects unknown entry type", func(t *testing.T) {
		account, _ := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		err := account.ApplyEntry(EntryType("TRANSFER"), decimal.NewFromFloat(5.00))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown entry type")
	})

	t.Run("rejects posting to inactive account", func(t *testing.T) {
		account, _ := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		account.Deactivate()

		err := account.ApplyEntry(EntryTypeDebit, decimal.NewFromFloat(5.00))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inactive")
	})
}

func TestAccountTypeNormalSide(t *testing.T) {
	assert.True(t, AccountTypeAsset.IsNormalDebit())
	assert.True(t, AccountTypeExpense.IsNormalDebit())
	assert.False(t, AccountTypeLiability.IsNormalDebit())
	assert.False(t, AccountTypeEquity.IsNormalDebit())
	assert.False(t, AccountTypeRevenue.IsNormalDebit())
}
