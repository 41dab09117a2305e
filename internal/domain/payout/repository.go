package payout

import (
	"context"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for payout persistence
type Repository interface {
	// Create inserts a new payout
	Create(ctx context.Context, p *Payout) error

	// FindByID finds a payout by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payout, error)

	// FindByIDForUpdate finds a payout by ID taking a row-level exclusive
	// lock; must be called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payout, error)

	// CountOutstandingByDriver counts a driver's PENDING and PROCESSING
	// payouts. Callers lock the driver's liability account first so the
	// check-then-create sequence cannot race.
	CountOutstandingByDriver(ctx context.Context, driverID uuid.UUID) (int64, error)

	// SumOutstandingByDriver sums PENDING and PROCESSING payout amounts
	SumOutstandingByDriver(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error)

	// FindByDriver lists a driver's payouts newest first
	FindByDriver(ctx context.Context, driverID uuid.UUID, filter shared.Filter) ([]Payout, int64, error)

	// Save persists state transitions of an existing payout
	Save(ctx context.Context, p *Payout) error
}
