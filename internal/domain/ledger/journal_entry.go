package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EntryType is the side of a journal entry
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// ReferenceType names the business document a journal entry originated from
type ReferenceType string

const (
	ReferenceTypeRide           ReferenceType = "RIDE"
	ReferenceTypeFinancialEvent ReferenceType = "FINANCIAL_EVENT"
	ReferenceTypeSettlement     ReferenceType = "SETTLEMENT"
	ReferenceTypePayout         ReferenceType = "PAYOUT"
	ReferenceTypePayoutReversal ReferenceType = "PAYOUT_REVERSAL"
	ReferenceTypeAdjustment     ReferenceType = "ADJUSTMENT"
)

// EntryLine is the caller-supplied input for one line of a journal post.
// Lines are validated and balanced as a group before any row is written.
type EntryLine struct {
	AccountCode   string
	EntryType     EntryType
	Amount        decimal.Decimal
	Description   string
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
}

// JournalEntry is one posted DEBIT or CREDIT line against a single account.
// Entries are append-only: they are never updated or deleted, only offset by
// a later reversing transaction.
type JournalEntry struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountCode   string          `gorm:"type:varchar(50);not null;index"` // Denormalized for audit reads
	Amount        decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	EntryType     EntryType       `gorm:"type:varchar(10);not null"`
	Description   string          `gorm:"type:varchar(500)"`
	ReferenceType ReferenceType   `gorm:"type:varchar(30);index"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;index"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// NewJournalEntry materializes one validated entry line against a resolved account
func NewJournalEntry(transactionID uuid.UUID, account *Account, line EntryLine) *JournalEntry {
	return &JournalEntry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		AccountID:     account.ID,
		AccountCode:   account.Code,
		Amount:        line.Amount,
		EntryType:     line.EntryType,
		Description:   line.Description,
		ReferenceType: line.ReferenceType,
		ReferenceID:   line.ReferenceID,
		CreatedAt:     time.Now(),
	}
}

// GetAmountMoney returns the entry amount as Money
func (e *JournalEntry) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(e.Amount)
}

// ValidateBalanced checks the preconditions of a journal post: at least one
// line, every amount strictly positive, and debits equal to credits with
// exact decimal equality. Violations are correctness bugs in the caller, so
// the whole group is rejected.
func ValidateBalanced(lines []EntryLine) error {
	if len(lines) == 0 {
		return shared.NewDomainError("EMPTY_TRANSACTION", "A journal post requires at least one entry")
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		if !line.EntryType.IsValid() {
			return shared.NewDomainError("INVALID_ENTRY_TYPE", "Entry type must be DEBIT or CREDIT")
		}
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_AMOUNT", "Entry amounts must be positive")
		}
		if line.AccountCode == "" {
			return shared.NewDomainError("INVALID_ACCOUNT_CODE", "Entry account code cannot be empty")
		}
		if line.EntryType == EntryTypeDebit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}

	if !debits.Equal(credits) {
		return shared.NewDomainError("UNBALANCED_TRANSACTION",
			"Journal debits ("+debits.String()+") do not equal credits ("+credits.String()+")")
	}

	return nil
}
