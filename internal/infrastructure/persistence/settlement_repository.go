package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/settlement"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettlementRepository implements settlement.Repository
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// Create inserts a new settlement
func (r *GormSettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// FindByID finds a settlement by ID
func (r *GormSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindByIDForUpdate finds a settlement by ID taking a row-level exclusive lock
func (r *GormSettlementRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindByFinancialEventID finds the settlement holding one event, if any
func (r *GormSettlementRepository) FindByFinancialEventID(ctx context.Context, eventID uuid.UUID) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := r.db.WithContext(ctx).First(&s, "financial_event_id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindDue lists PENDING settlements whose release date has passed, oldest first
func (r *GormSettlementRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]settlement.Settlement, error) {
	var settlements []settlement.Settlement
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", settlement.StatusPending, now).
		Order("scheduled_for asc").
		Limit(limit).
		Find(&settlements).Error; err != nil {
		return nil, err
	}
	return settlements, nil
}

// FindPendingByDriver lists a driver's PENDING settlements
func (r *GormSettlementRepository) FindPendingByDriver(ctx context.Context, driverID uuid.UUID) ([]settlement.Settlement, error) {
	var settlements []settlement.Settlement
	if err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status = ?", driverID, settlement.StatusPending).
		Order("scheduled_for asc").
		Find(&settlements).Error; err != nil {
		return nil, err
	}
	return settlements, nil
}

// SumPendingByDriver sums PENDING settlement amounts for a driver
func (r *GormSettlementRepository) SumPendingByDriver(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&settlement.Settlement{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("driver_id = ? AND status = ?", driverID, settlement.StatusPending).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save persists state transitions of an existing settlement
func (r *GormSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	return r.db.WithContext(ctx).Save(s).Error
}
