package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account in the chart of accounts.
// The type decides the normal side of the account: ASSET and EXPENSE accounts
// increase on DEBIT, the others increase on CREDIT.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is a valid AccountType
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// IsNormalDebit returns true if the account increases on DEBIT entries
func (t AccountType) IsNormalDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Well-known account codes. Driver liability accounts are per driver and
// derived with DriverLiabilityCode; the rest are singletons.
const (
	CodeBankClearing    = "1200" // ASSET: bank/clearing account funds leave through
	CodePassengerClear  = "1300" // ASSET: passenger payments in transit
	CodePlatformRevenue = "4000" // REVENUE: platform commission
)

// DriverLiabilityCode returns the stable account code for a driver's
// earnings-payable account, e.g. "2100-1a2b3c4d".
func DriverLiabilityCode(driverID uuid.UUID) string {
	return fmt.Sprintf("2100-%s", driverID.String()[:8])
}

// Account represents one account in the chart of accounts.
//
// Balance is a denormalized cache of the signed sum of the account's posted
// entries. It is only ever written by a journal post; every other reader
// treats it as derived data and the entry log as the source of truth.
type Account struct {
	shared.BaseAggregateRoot
	Code     string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name     string               `gorm:"type:varchar(200);not null"`
	Type     AccountType          `gorm:"type:varchar(20);not null;index"`
	Balance  decimal.Decimal      `gorm:"type:decimal(19,4);not null"`
	Currency valueobject.Currency `gorm:"type:varchar(3);not null;default:'BRL'"`
	Active   bool                 `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "ledger_accounts"
}

// NewAccount creates a new account with a zero balance
func NewAccount(code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", fmt.Sprintf("Unknown account type %q", accountType))
	}

	a := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Type:              accountType,
		Balance:           decimal.Zero,
		Currency:          valueobject.DefaultCurrency,
		Active:            true,
	}

	a.AddDomainEvent(NewAccountOpenedEvent(a))

	return a, nil
}

// ApplyEntry adjusts the cached balance for one posted entry following the
// normal-side rule. Amount must be positive; the entry type carries the sign.
func (a *Account) ApplyEntry(entryType EntryType, amount decimal.Decimal) error {
	if !a.Active {
		return shared.NewDomainError("ACCOUNT_INACTIVE", fmt.Sprintf("Account %s is inactive", a.Code))
	}
	if !entryType.IsValid() {
		return shared.NewDomainError("INVALID_ENTRY_TYPE", fmt.Sprintf("Unknown entry type %q", entryType))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Entry amount must be positive")
	}

	increases := a.Type.IsNormalDebit() == (entryType == EntryTypeDebit)
	if increases {
		a.Balance = a.Balance.Add(amount)
	} else {
		a.Balance = a.Balance.Sub(amount)
	}

	a.IncrementVersion()
	return nil
}

// GetBalanceMoney returns the cached balance as Money
func (a *Account) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(a.Balance)
}

// Deactivate marks the account inactive. Inactive accounts reject postings.
func (a *Account) Deactivate() {
	a.Active = false
	a.IncrementVersion()
}
