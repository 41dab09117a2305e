package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for chart-of-accounts persistence
type AccountRepository interface {
	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its stable code
	FindByCode(ctx context.Context, code string) (*Account, error)

	// FindByCodeForUpdate finds an account by code taking a row-level
	// exclusive lock; must be called inside a transaction. Concurrent posts
	// against the same account serialize on this lock.
	FindByCodeForUpdate(ctx context.Context, code string) (*Account, error)

	// FindAll lists accounts with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error
}

// JournalEntryRepository defines the interface for the append-only entry log
type JournalEntryRepository interface {
	// CreateBatch inserts all entries of one posted transaction
	CreateBatch(ctx context.Context, entries []*JournalEntry) error

	// FindByTransactionID returns all entries posted under one transaction id
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]JournalEntry, error)

	// FindByReference returns entries created for a business document
	FindByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) ([]JournalEntry, error)

	// ExistsByReference reports whether any entry exists for a business
	// document; used to guard compensating posts against double execution
	ExistsByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) (bool, error)

	// SumByAccountAndType sums entry amounts for one account and side
	SumByAccountAndType(ctx context.Context, accountID uuid.UUID, entryType EntryType) (decimal.Decimal, error)

	// ListTransactionIDs returns the distinct transaction ids in the log,
	// oldest first; used by the integrity checker
	ListTransactionIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// FinancialEventFilter defines filtering options for event history queries
type FinancialEventFilter struct {
	shared.Filter
	EventType *EventType   // Filter by event type
	Status    *EventStatus // Filter by lifecycle status
	RideID    *uuid.UUID   // Filter by originating ride
	FromDate  *time.Time   // Created-at range start
	ToDate    *time.Time   // Created-at range end
}

// FinancialEventRepository defines the interface for the financial event log
type FinancialEventRepository interface {
	// Create appends a new event to the log
	Create(ctx context.Context, event *FinancialEvent) error

	// FindByID finds an event by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialEvent, error)

	// FindByIDForUpdate finds an event by ID taking a row-level exclusive
	// lock; must be called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*FinancialEvent, error)

	// FindByRideAndType finds one event for a ride with the given type
	FindByRideAndType(ctx context.Context, rideID uuid.UUID, eventType EventType) (*FinancialEvent, error)

	// FindByExternalTransactionID finds one event by its external correlation
	// id, e.g. the payout a withdrawal event belongs to
	FindByExternalTransactionID(ctx context.Context, txID string) (*FinancialEvent, error)

	// FindByDriver lists a driver's events with filtering and total count
	FindByDriver(ctx context.Context, driverID uuid.UUID, filter FinancialEventFilter) ([]FinancialEvent, int64, error)

	// FindByPassenger lists a passenger's events with filtering and total count
	FindByPassenger(ctx context.Context, passengerID uuid.UUID, filter FinancialEventFilter) ([]FinancialEvent, int64, error)

	// SumCompletedByDriver sums the signed amounts of COMPLETED events for a
	// driver; this is the driver's total cash balance. INCENTIVE_CREDIT
	// events are excluded, free usage credit is not withdrawable money
	SumCompletedByDriver(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error)

	// SumCompletedByDriverAndType sums COMPLETED amounts for a driver
	// restricted to one event type
	SumCompletedByDriverAndType(ctx context.Context, driverID uuid.UUID, eventType EventType) (decimal.Decimal, error)

	// SumPendingByDriverAndType sums PENDING amounts for a driver restricted
	// to one event type; used for in-flight withdrawal locks
	SumPendingByDriverAndType(ctx context.Context, driverID uuid.UUID, eventType EventType) (decimal.Decimal, error)

	// SumCompletedByPassenger sums COMPLETED event amounts for a passenger
	SumCompletedByPassenger(ctx context.Context, passengerID uuid.UUID) (decimal.Decimal, error)

	// Save persists state transitions of an existing event
	Save(ctx context.Context, event *FinancialEvent) error
}
