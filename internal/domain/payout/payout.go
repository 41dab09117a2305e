package payout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payout.
// PENDING -> PROCESSING -> COMPLETED | FAILED; nothing leaves a terminal state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsOutstanding returns true while the payout still holds reserved funds
func (s Status) IsOutstanding() bool {
	return s == StatusPending || s == StatusProcessing
}

// IsTerminal returns true once the payout can no longer transition
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Method is the rail a payout is sent over
type Method string

const (
	MethodPix Method = "PIX"
)

// BankDetails holds the destination the rail pays into
type BankDetails struct {
	PixKey string `json:"pix_key"`
}

// Payout is a driver withdrawal. Creating one reserves the funds in the
// ledger immediately; a failure later posts a compensating entry instead of
// deleting anything.
type Payout struct {
	shared.BaseAggregateRoot
	DriverID              uuid.UUID            `gorm:"type:uuid;not null;index:idx_payouts_driver_status"`
	Amount                decimal.Decimal      `gorm:"type:decimal(19,4);not null"`
	Currency              valueobject.Currency `gorm:"type:varchar(3);not null;default:'BRL'"`
	Status                Status               `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_payouts_driver_status"`
	Method                Method               `gorm:"type:varchar(20);not null;default:'PIX'"`
	BankDetails           BankDetails          `gorm:"serializer:json;not null"`
	Provider              string               `gorm:"type:varchar(50)"`
	ProviderTransactionID *string              `gorm:"type:varchar(100)"`
	FailureReason         string               `gorm:"type:varchar(255)"`
	ProcessingStartedAt   *time.Time
	CompletedAt           *time.Time
	FailedAt              *time.Time
}

// TableName returns the table name for GORM
func (Payout) TableName() string {
	return "payouts"
}

// NewPayout creates a PENDING payout request
func NewPayout(driverID uuid.UUID, amount valueobject.Money, details BankDetails, provider string) (*Payout, error) {
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payout requires a driver")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payout amount must be positive")
	}
	if details.PixKey == "" {
		return nil, shared.NewDomainError("INVALID_BANK_DETAILS", "Pix key is required")
	}

	p := &Payout{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DriverID:          driverID,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
		Status:            StatusPending,
		Method:            MethodPix,
		BankDetails:       details,
		Provider:          provider,
	}

	p.AddDomainEvent(NewPayoutRequestedEvent(p))

	return p, nil
}

// StartProcessing transitions PENDING -> PROCESSING
func (p *Payout) StartProcessing() error {
	if p.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot process payout %s in status %s", p.ID, p.Status))
	}

	now := time.Now()
	p.Status = StatusProcessing
	p.ProcessingStartedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}

// Complete transitions PROCESSING -> COMPLETED and records the rail's
// transaction id
func (p *Payout) Complete(providerTransactionID string) error {
	if p.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete payout %s in status %s", p.ID, p.Status))
	}
	if providerTransactionID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Provider transaction id is required")
	}

	now := time.Now()
	p.Status = StatusCompleted
	p.ProviderTransactionID = &providerTransactionID
	p.CompletedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPayoutCompletedEvent(p))

	return nil
}

// Fail transitions PENDING or PROCESSING -> FAILED. The caller must post the
// compensating ledger entry returning the reserved funds to the driver.
func (p *Payout) Fail(reason string) error {
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot fail payout %s in status %s", p.ID, p.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Failure reason is required")
	}

	now := time.Now()
	p.Status = StatusFailed
	p.FailureReason = reason
	p.FailedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPayoutFailedEvent(p, reason))

	return nil
}

// GetAmountMoney returns the payout amount as Money
func (p *Payout) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}
