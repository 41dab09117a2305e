package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/incentive"
	"github.com/ridehail/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCampaignRepository implements incentive.CampaignRepository
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// Create inserts a new campaign
func (r *GormCampaignRepository) Create(ctx context.Context, c *incentive.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindByID finds a campaign by ID
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*incentive.Campaign, error) {
	var c incentive.Campaign
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// FindActive lists enabled campaigns whose window contains now
func (r *GormCampaignRepository) FindActive(ctx context.Context, now time.Time) ([]incentive.Campaign, error) {
	var campaigns []incentive.Campaign
	if err := r.db.WithContext(ctx).
		Where("enabled = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("start_date asc").
		Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// FindActiveByType lists active campaigns of one type
func (r *GormCampaignRepository) FindActiveByType(ctx context.Context, campaignType incentive.CampaignType, now time.Time) ([]incentive.Campaign, error) {
	var campaigns []incentive.Campaign
	if err := r.db.WithContext(ctx).
		Where("type = ? AND enabled = ? AND start_date <= ? AND end_date >= ?", campaignType, true, now, now).
		Order("start_date asc").
		Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// FindAll lists campaigns with filtering
func (r *GormCampaignRepository) FindAll(ctx context.Context, filter shared.Filter) ([]incentive.Campaign, int64, error) {
	query := r.db.WithContext(ctx).Model(&incentive.Campaign{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyOrdering(query, filter, map[string]bool{
		"created_at": true,
		"start_date": true,
		"end_date":   true,
		"name":       true,
	}, "start_date desc")
	query = applyPagination(query, filter)

	var campaigns []incentive.Campaign
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// Save persists changes to an existing campaign
func (r *GormCampaignRepository) Save(ctx context.Context, c *incentive.Campaign) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// GormDriverIncentiveRepository implements incentive.DriverIncentiveRepository
type GormDriverIncentiveRepository struct {
	db *gorm.DB
}

// NewGormDriverIncentiveRepository creates a new GormDriverIncentiveRepository
func NewGormDriverIncentiveRepository(db *gorm.DB) *GormDriverIncentiveRepository {
	return &GormDriverIncentiveRepository{db: db}
}

// Create inserts a new progress tracker
func (r *GormDriverIncentiveRepository) Create(ctx context.Context, i *incentive.DriverIncentive) error {
	return r.db.WithContext(ctx).Create(i).Error
}

// FindByID finds a tracker by ID
func (r *GormDriverIncentiveRepository) FindByID(ctx context.Context, id uuid.UUID) (*incentive.DriverIncentive, error) {
	var tracker incentive.DriverIncentive
	err := r.db.WithContext(ctx).First(&tracker, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tracker, nil
}

// FindByCampaignAndDriver finds a driver's tracker for one campaign
func (r *GormDriverIncentiveRepository) FindByCampaignAndDriver(ctx context.Context, campaignID, driverID uuid.UUID) (*incentive.DriverIncentive, error) {
	var tracker incentive.DriverIncentive
	err := r.db.WithContext(ctx).
		First(&tracker, "campaign_id = ? AND driver_id = ?", campaignID, driverID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tracker, nil
}

// FindByDriver lists all of a driver's trackers
func (r *GormDriverIncentiveRepository) FindByDriver(ctx context.Context, driverID uuid.UUID) ([]incentive.DriverIncentive, error) {
	var trackers []incentive.DriverIncentive
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at asc").
		Find(&trackers).Error; err != nil {
		return nil, err
	}
	return trackers, nil
}

// Save persists progress updates
func (r *GormDriverIncentiveRepository) Save(ctx context.Context, i *incentive.DriverIncentive) error {
	return r.db.WithContext(ctx).Save(i).Error
}

// GormDriverMetricRepository implements incentive.DriverMetricRepository
type GormDriverMetricRepository struct {
	db *gorm.DB
}

// NewGormDriverMetricRepository creates a new GormDriverMetricRepository
func NewGormDriverMetricRepository(db *gorm.DB) *GormDriverMetricRepository {
	return &GormDriverMetricRepository{db: db}
}

// FindByDriverAndDate finds the metric row for one driver-day
func (r *GormDriverMetricRepository) FindByDriverAndDate(ctx context.Context, driverID uuid.UUID, day time.Time) (*incentive.DriverMetric, error) {
	var m incentive.DriverMetric
	err := r.db.WithContext(ctx).
		First(&m, "driver_id = ? AND date = ?", driverID, incentive.MetricDay(day)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a new metric row
func (r *GormDriverMetricRepository) Create(ctx context.Context, m *incentive.DriverMetric) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Save persists counter updates
func (r *GormDriverMetricRepository) Save(ctx context.Context, m *incentive.DriverMetric) error {
	return r.db.WithContext(ctx).Save(m).Error
}
