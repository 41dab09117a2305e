package settlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a settlement hold
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true once the settlement can no longer transition
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// ReleaseDate computes the D+N release date from a base time, rolling weekend
// landings forward to Monday. Saturday moves two days, Sunday one.
func ReleaseDate(base time.Time, days int) time.Time {
	target := base.AddDate(0, 0, days)

	switch target.Weekday() {
	case time.Saturday:
		target = target.AddDate(0, 0, 2)
	case time.Sunday:
		target = target.AddDate(0, 0, 1)
	}

	return target
}

// Settlement is a D+N hold on one earning event. While PENDING it counts
// toward the driver's held balance; releasing it moves the amount to
// available without touching the event itself.
//
// FinancialEventID is unique: at most one settlement ever exists per event.
type Settlement struct {
	shared.BaseAggregateRoot
	FinancialEventID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	DriverID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_settlements_driver_status"`
	Amount           decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	ScheduledFor     time.Time       `gorm:"not null;index:idx_settlements_due,where:status = 'PENDING'"`
	ProcessedAt      *time.Time
	Status           Status `gorm:"type:varchar(15);not null;default:'PENDING';index:idx_settlements_driver_status"`
}

// TableName returns the table name for GORM
func (Settlement) TableName() string {
	return "settlements"
}

// NewSettlement schedules a hold for an earning event. The amount must be
// positive; earning events carry positive amounts by construction.
func NewSettlement(financialEventID, driverID uuid.UUID, amount valueobject.Money, eventTime time.Time, settlementDays int) (*Settlement, error) {
	if financialEventID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Settlement requires a financial event")
	}
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Settlement requires a driver")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Settlement amount must be positive")
	}
	if settlementDays < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Settlement days cannot be negative")
	}

	s := &Settlement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FinancialEventID:  financialEventID,
		DriverID:          driverID,
		Amount:            amount.Amount(),
		ScheduledFor:      ReleaseDate(eventTime, settlementDays),
		Status:            StatusPending,
	}

	s.AddDomainEvent(NewSettlementScheduledEvent(s))

	return s, nil
}

// IsDue returns true if a PENDING settlement has reached its release date
func (s *Settlement) IsDue(now time.Time) bool {
	return s.Status == StatusPending && !s.ScheduledFor.After(now)
}

// Release transitions PENDING -> COMPLETED. Releasing an already COMPLETED
// settlement is a no-op so sweep and manual release can race safely.
func (s *Settlement) Release(now time.Time) error {
	if s.Status == StatusCompleted {
		return nil
	}
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot release settlement %s in status %s", s.ID, s.Status))
	}

	s.Status = StatusCompleted
	s.ProcessedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSettlementReleasedEvent(s))

	return nil
}

// Cancel transitions PENDING -> CANCELLED, used when the underlying earning
// event is reversed before release
func (s *Settlement) Cancel(now time.Time) error {
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel settlement %s in status %s", s.ID, s.Status))
	}

	s.Status = StatusCancelled
	s.ProcessedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSettlementCancelledEvent(s))

	return nil
}

// GetAmountMoney returns the held amount as Money
func (s *Settlement) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(s.Amount)
}
