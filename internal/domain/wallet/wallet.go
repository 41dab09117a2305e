package wallet

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultMinimumWithdrawal is R$ 50.00
var DefaultMinimumWithdrawal = decimal.NewFromInt(50)

// Balances is a recomputed view of a driver's money, derived entirely from
// the financial event log and pending settlements:
//
//	total     = sum of COMPLETED event amounts
//	held      = sum of PENDING settlement amounts
//	available = total - held - blocked - pending withdrawals, floored at zero
//	credit    = sum of COMPLETED INCENTIVE_CREDIT amounts (non-cash)
type Balances struct {
	Total              decimal.Decimal
	Held               decimal.Decimal
	Blocked            decimal.Decimal
	Credit             decimal.Decimal
	PendingWithdrawals decimal.Decimal
}

// Available computes the withdrawable amount and whether the raw figure was
// negative before flooring. A negative raw figure means the driver owes the
// platform, usually after a reversal landed on already-withdrawn funds.
func (b Balances) Available() (decimal.Decimal, bool) {
	raw := b.Total.Sub(b.Held).Sub(b.Blocked).Sub(b.PendingWithdrawals)
	if raw.IsNegative() {
		return decimal.Zero, true
	}
	return raw, false
}

// DriverWallet is the cached balance snapshot for one driver. It is never
// the source of truth: every refresh recomputes it from the event log, and
// withdrawal checks re-derive balances inside the payout transaction.
type DriverWallet struct {
	shared.BaseAggregateRoot
	DriverID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	TotalBalance       decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	HeldBalance        decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	BlockedBalance     decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	AvailableBalance   decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	CreditBalance      decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	NegativeAvailable  bool            `gorm:"not null;default:false"`
	MinimumWithdrawal  decimal.Decimal `gorm:"type:decimal(19,4);not null;default:50"`
	TotalEarned        decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	TotalWithdrawn     decimal.Decimal `gorm:"type:decimal(19,4);not null"`
}

// TableName returns the table name for GORM
func (DriverWallet) TableName() string {
	return "driver_wallets"
}

// NewDriverWallet creates an empty wallet snapshot for a driver
func NewDriverWallet(driverID uuid.UUID) (*DriverWallet, error) {
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Wallet requires a driver")
	}

	return &DriverWallet{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DriverID:          driverID,
		TotalBalance:      decimal.Zero,
		HeldBalance:       decimal.Zero,
		BlockedBalance:    decimal.Zero,
		AvailableBalance:  decimal.Zero,
		CreditBalance:     decimal.Zero,
		MinimumWithdrawal: DefaultMinimumWithdrawal,
		TotalEarned:       decimal.Zero,
		TotalWithdrawn:    decimal.Zero,
	}, nil
}

// Refresh overwrites the snapshot with freshly derived balances
func (w *DriverWallet) Refresh(b Balances) {
	available, wasNegative := b.Available()

	w.TotalBalance = b.Total
	w.HeldBalance = b.Held
	w.BlockedBalance = b.Blocked
	w.AvailableBalance = available
	w.CreditBalance = b.Credit
	w.NegativeAvailable = wasNegative
	w.IncrementVersion()

	w.AddDomainEvent(NewWalletRefreshedEvent(w))
}

// RecordEarned accumulates the lifetime earned stat
func (w *DriverWallet) RecordEarned(amount decimal.Decimal) {
	if amount.IsPositive() {
		w.TotalEarned = w.TotalEarned.Add(amount)
	}
}

// RecordWithdrawn accumulates the lifetime withdrawn stat
func (w *DriverWallet) RecordWithdrawn(amount decimal.Decimal) {
	if amount.IsPositive() {
		w.TotalWithdrawn = w.TotalWithdrawn.Add(amount)
	}
}

// CanWithdraw checks a withdrawal request against the snapshot. The payout
// flow repeats this check against live balances under a row lock; this one
// only gives the driver a fast answer.
func (w *DriverWallet) CanWithdraw(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	if amount.Amount().LessThan(w.MinimumWithdrawal) {
		return shared.NewDomainError("BELOW_MINIMUM_WITHDRAWAL",
			fmt.Sprintf("Minimum withdrawal is %s", w.MinimumWithdrawal.StringFixed(2)))
	}
	if amount.Amount().GreaterThan(w.AvailableBalance) {
		return shared.ErrInsufficientFunds
	}
	return nil
}

// GetAvailableMoney returns the available balance as Money
func (w *DriverWallet) GetAvailableMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(w.AvailableBalance)
}
