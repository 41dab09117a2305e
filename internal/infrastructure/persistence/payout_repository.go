package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/payout"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPayoutRepository implements payout.Repository
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewGormPayoutRepository creates a new GormPayoutRepository
func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// Create inserts a new payout
func (r *GormPayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID finds a payout by ID
func (r *GormPayoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.Payout, error) {
	var p payout.Payout
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDForUpdate finds a payout by ID taking a row-level exclusive lock
func (r *GormPayoutRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payout.Payout, error) {
	var p payout.Payout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// CountOutstandingByDriver counts a driver's PENDING and PROCESSING payouts
func (r *GormPayoutRepository) CountOutstandingByDriver(ctx context.Context, driverID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&payout.Payout{}).
		Where("driver_id = ? AND status IN ?", driverID,
			[]payout.Status{payout.StatusPending, payout.StatusProcessing}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOutstandingByDriver sums PENDING and PROCESSING payout amounts
func (r *GormPayoutRepository) SumOutstandingByDriver(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&payout.Payout{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("driver_id = ? AND status IN ?", driverID,
			[]payout.Status{payout.StatusPending, payout.StatusProcessing}).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// FindByDriver lists a driver's payouts newest first
func (r *GormPayoutRepository) FindByDriver(ctx context.Context, driverID uuid.UUID, filter shared.Filter) ([]payout.Payout, int64, error) {
	query := r.db.WithContext(ctx).Model(&payout.Payout{}).Where("driver_id = ?", driverID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyOrdering(query, filter, map[string]bool{
		"created_at": true,
		"amount":     true,
		"status":     true,
	}, "created_at desc")
	query = applyPagination(query, filter)

	var payouts []payout.Payout
	if err := query.Find(&payouts).Error; err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}

// Save persists state transitions of an existing payout
func (r *GormPayoutRepository) Save(ctx context.Context, p *payout.Payout) error {
	return r.db.WithContext(ctx).Save(p).Error
}
