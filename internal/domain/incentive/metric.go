package incentive

import (
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DriverMetric is one driver's daily activity counters. Date is truncated to
// midnight UTC; one row exists per driver per day.
type DriverMetric struct {
	shared.BaseAggregateRoot
	DriverID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_metrics_driver_date"`
	Date           time.Time       `gorm:"not null;uniqueIndex:idx_metrics_driver_date"`
	RidesAccepted  int             `gorm:"not null;default:0"`
	RidesCompleted int             `gorm:"not null;default:0"`
	RidesCancelled int             `gorm:"not null;default:0"`
	TotalKm        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalEarnings  decimal.Decimal `gorm:"type:decimal(19,4);not null"`
}

// TableName returns the table name for GORM
func (DriverMetric) TableName() string {
	return "driver_metrics"
}

// MetricDay truncates a time to its UTC day
func MetricDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDriverMetric creates an empty metric row for one driver-day
func NewDriverMetric(driverID uuid.UUID, day time.Time) (*DriverMetric, error) {
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Metric requires a driver")
	}

	return &DriverMetric{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DriverID:          driverID,
		Date:              MetricDay(day),
		TotalKm:           decimal.Zero,
		TotalEarnings:     decimal.Zero,
	}, nil
}

// RecordAccepted counts one accepted ride
func (m *DriverMetric) RecordAccepted() {
	m.RidesAccepted++
	m.IncrementVersion()
}

// RecordCompleted counts one completed ride with its earnings and distance
func (m *DriverMetric) RecordCompleted(earnings, km decimal.Decimal) {
	m.RidesCompleted++
	m.TotalEarnings = m.TotalEarnings.Add(earnings)
	m.TotalKm = m.TotalKm.Add(km)
	m.IncrementVersion()
}

// RecordCancelled counts one cancelled ride
func (m *DriverMetric) RecordCancelled() {
	m.RidesCancelled++
	m.IncrementVersion()
}
