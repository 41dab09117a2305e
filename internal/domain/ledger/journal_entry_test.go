package ledger

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	return de.Code
}

func TestValidateBalanced(t *testing.T) {
	rideID := uuid.New()

	balancedLines := func() []EntryLine {
		return []EntryLine{
			{
				AccountCode:   "1300",
				EntryType:     EntryTypeDebit,
				Amount:        decimal.NewFromFloat(100.00),
				ReferenceType: ReferenceTypeRide,
				ReferenceID:   rideID,
			},
			{
				AccountCode:   "2100-1a2b3c4d",
				EntryType:     EntryTypeCredit,
				Amount:        decimal.NewFromFloat(80.00),
				ReferenceType: ReferenceTypeRide,
				ReferenceID:   rideID,
			},
			{
				AccountCode:   "4000",
				EntryType:     EntryTypeCredit,
				Amount:        decimal.NewFromFloat(20.00),
				ReferenceType: ReferenceTypeRide,
				ReferenceID:   rideID,
			},
		}
	}

	t.Run("accepts balanced multi-line post", func(t *testing.T) {
		require.NoError(t, ValidateBalanced(balancedLines()))
	})

	t.Run("rejects empty post", func(t *testing.T) {
		err := ValidateBalanced(nil)
		require.Error(t, err)
		assert.Equal(t, "EMPTY_TRANSACTION", domainCode(t, err))
	})

	t.Run("rejects unbalanced post", func(t *testing.T) {
		lines := balancedLines()
		lines[2].Amount = decimal.NewFromFloat(19.99)

		err := ValidateBalanced(lines)
		require.Error(t, err)
		assert.Equal(t, "UNBALANCED_TRANSACTION", domainCode(t, err))
	})

	t.Run("rejects one-cent imbalance", func(t *testing.T) {
		lines := []EntryLine{
			{AccountCode: "1200", EntryType: EntryTypeDebit, Amount: decimal.NewFromFloat(0.02)},
			{AccountCode: "4000", EntryType: EntryTypeCredit, Amount: decimal.NewFromFloat(0.01)},
		}
		err := ValidateBalanced(lines)
		require.Error(t, err)
		assert.Equal(t, "UNBALANCED_TRANSACTION", domainCode(t, err))
	})

	t.Run("rejects zero amount line", func(t *testing.T) {
		lines := balancedLines()
		lines[0].Amount = decimal.Zero

		err := ValidateBalanced(lines)
		require.Error(t, err)
		assert.Equal(t, "INVALID_AMOUNT", domainCode(t, err))
	})

	t.Run("rejects negative amount line", func(t *testing.T) {
		lines := balancedLines()
		lines[1].Amount = decimal.NewFromFloat(-80.00)

		err := ValidateBalanced(lines)
		require.Error(t, err)
		assert.Equal(t, "INVALID_AMOUNT", domainCode(t, err))
	})

	t.Run("rejects unknown entry type", func(t *testing.T) {
		lines := balancedLines()
		lines[0].EntryType = EntryType("TRANSFER")

		err := ValidateBalanced(lines)
		require.Error(t, err)
		assert.Equal(t, "INVALID_ENTRY_TYPE", domainCode(t, err))
	})

	t.Run("rejects missing account code", func(t *testing.T) {
		lines := balancedLines()
		lines[0].AccountCode = ""

		err := ValidateBalanced(lines)
		require.Error(t, err)
		assert.Equal(t, "INVALID_ACCOUNT_CODE", domainCode(t, err))
	})
}

func TestNewJournalEntry(t *testing.T) {
	t.Run("copies line onto resolved account", func(t *testing.T) {
		account, err := NewAccount("1200", "Bank Clearing", AccountTypeAsset)
		require.NoError(t, err)

		transactionID := uuid.New()
		payoutID := uuid.New()
		line := EntryLine{
			AccountCode:   "1200",
			EntryType:     EntryTypeCredit,
			Amount:        decimal.NewFromFloat(55.50),
			Description:   "Payout reservation",
			ReferenceType: ReferenceTypePayout,
			ReferenceID:   payoutID,
		}

		entry := NewJournalEntry(transactionID, account, line)

		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, transactionID, entry.TransactionID)
		assert.Equal(t, account.ID, entry.AccountID)
		assert.Equal(t, "1200", entry.AccountCode)
		assert.Equal(t, EntryTypeCredit, entry.EntryType)
		assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(55.50)))
		assert.Equal(t, "Payout reservation", entry.Description)
		assert.Equal(t, ReferenceTypePayout, entry.ReferenceType)
		assert.Equal(t, payoutID, entry.ReferenceID)
		assert.False(t, entry.CreatedAt.IsZero())
	})
}
