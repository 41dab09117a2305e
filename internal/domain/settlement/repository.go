package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for settlement persistence
type Repository interface {
	// Create inserts a new settlement
	Create(ctx context.Context, s *Settlement) error

	// FindByID finds a settlement by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Settlement, error)

	// FindByIDForUpdate finds a settlement by ID taking a row-level
	// exclusive lock, so concurrent sweeps cannot release the same row twice
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Settlement, error)

	// FindByFinancialEventID finds the settlement holding one event, if any
	FindByFinancialEventID(ctx context.Context, eventID uuid.UUID) (*Settlement, error)

	// FindDue lists PENDING settlements whose release date has passed,
	// oldest first, up to limit
	FindDue(ctx context.Context, now time.Time, limit int) ([]Settlement, error)

	// FindPendingByDriver lists a driver's PENDING settlements
	FindPendingByDriver(ctx context.Context, driverID uuid.UUID) ([]Settlement, error)

	// SumPendingByDriver sums PENDING settlement amounts for a driver; this
	// is the driver's held balance
	SumPendingByDriver(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error)

	// Save persists state transitions of an existing settlement
	Save(ctx context.Context, s *Settlement) error
}
