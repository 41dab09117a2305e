package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFinancialEventRepository implements ledger.FinancialEventRepository
type GormFinancialEventRepository struct {
	db *gorm.DB
}

// NewGormFinancialEventRepository creates a new GormFinancialEventRepository
func NewGormFinancialEventRepository(db *gorm.DB) *GormFinancialEventRepository {
	return &GormFinancialEventRepository{db: db}
}

// Create appends a new event to the log
func (r *GormFinancialEventRepository) Create(ctx context.Context, event *ledger.FinancialEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByID finds an event by ID
func (r *GormFinancialEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FinancialEvent, error) {
	var event ledger.FinancialEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate finds an event by ID taking a row-level exclusive lock
func (r *GormFinancialEventRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.FinancialEvent, error) {
	var event ledger.FinancialEvent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// FindByRideAndType finds one event for a ride with the given type
func (r *GormFinancialEventRepository) FindByRideAndType(ctx context.Context, rideID uuid.UUID, eventType ledger.EventType) (*ledger.FinancialEvent, error) {
	var event ledger.FinancialEvent
	err := r.db.WithContext(ctx).
		First(&event, "ride_id = ? AND event_type = ?", rideID, eventType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// FindByExternalTransactionID finds one event by its external correlation id
func (r *GormFinancialEventRepository) FindByExternalTransactionID(ctx context.Context, txID string) (*ledger.FinancialEvent, error) {
	var event ledger.FinancialEvent
	err := r.db.WithContext(ctx).
		First(&event, "external_transaction_id = ?", txID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// FindByDriver lists a driver's events with filtering and total count
func (r *GormFinancialEventRepository) FindByDriver(ctx context.Context, driverID uuid.UUID, filter ledger.FinancialEventFilter) ([]ledger.FinancialEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&ledger.FinancialEvent{}).Where("driver_id = ?", driverID)
	return r.listEvents(query, filter)
}

// FindByPassenger lists a passenger's events with filtering and total count
func (r *GormFinancialEventRepository) FindByPassenger(ctx context.Context, passengerID uuid.UUID, filter ledger.FinancialEventFilter) ([]ledger.FinancialEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&ledger.FinancialEvent{}).Where("passenger_id = ?", passengerID)
	return r.listEvents(query, filter)
}

func (r *GormFinancialEventRepository) listEvents(query *gorm.DB, filter ledger.FinancialEventFilter) ([]ledger.FinancialEvent, int64, error) {
	if filter.EventType != nil {
		query = query.Where("event_type = ?", *filter.EventType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RideID != nil {
		query = query.Where("ride_id = ?", *filter.RideID)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyOrdering(query, filter.Filter, map[string]bool{
		"created_at": true,
		"amount":     true,
		"event_type": true,
	}, "created_at desc")
	query = applyPagination(query, filter.Filter)

	var events []ledger.FinancialEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// SumCompletedByDriver sums COMPLETED event amounts for a driver. Usage
// credit events are excluded, they are not withdrawable money.
func (r *GormFinancialEventRepository) SumCompletedByDriver(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialEvent{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("driver_id = ? AND status = ? AND event_type <> ?",
			driverID, ledger.EventStatusCompleted, ledger.EventTypeIncentiveCredit).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumCompletedByDriverAndType sums COMPLETED amounts for one event type
func (r *GormFinancialEventRepository) SumCompletedByDriverAndType(ctx context.Context, driverID uuid.UUID, eventType ledger.EventType) (decimal.Decimal, error) {
	return r.sumByDriver(ctx, driverID, eventType, ledger.EventStatusCompleted)
}

// SumPendingByDriverAndType sums PENDING amounts for one event type
func (r *GormFinancialEventRepository) SumPendingByDriverAndType(ctx context.Context, driverID uuid.UUID, eventType ledger.EventType) (decimal.Decimal, error) {
	return r.sumByDriver(ctx, driverID, eventType, ledger.EventStatusPending)
}

func (r *GormFinancialEventRepository) sumByDriver(ctx context.Context, driverID uuid.UUID, eventType ledger.EventType, status ledger.EventStatus) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialEvent{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("driver_id = ? AND status = ? AND event_type = ?", driverID, status, eventType).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumCompletedByPassenger sums COMPLETED event amounts for a passenger
func (r *GormFinancialEventRepository) SumCompletedByPassenger(ctx context.Context, passengerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialEvent{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("passenger_id = ? AND status = ?", passengerID, ledger.EventStatusCompleted).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save persists state transitions of an existing event
func (r *GormFinancialEventRepository) Save(ctx context.Context, event *ledger.FinancialEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}
