package incentive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
)

// CampaignRepository defines the interface for campaign persistence
type CampaignRepository interface {
	// Create inserts a new campaign
	Create(ctx context.Context, c *Campaign) error

	// FindByID finds a campaign by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)

	// FindActive lists enabled campaigns whose window contains now
	FindActive(ctx context.Context, now time.Time) ([]Campaign, error)

	// FindActiveByType lists active campaigns of one type
	FindActiveByType(ctx context.Context, campaignType CampaignType, now time.Time) ([]Campaign, error)

	// FindAll lists campaigns with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Campaign, int64, error)

	// Save persists changes to an existing campaign
	Save(ctx context.Context, c *Campaign) error
}

// DriverIncentiveRepository defines the interface for progress persistence
type DriverIncentiveRepository interface {
	// Create inserts a new progress tracker
	Create(ctx context.Context, i *DriverIncentive) error

	// FindByID finds a tracker by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DriverIncentive, error)

	// FindByCampaignAndDriver finds a driver's tracker for one campaign
	FindByCampaignAndDriver(ctx context.Context, campaignID, driverID uuid.UUID) (*DriverIncentive, error)

	// FindByDriver lists all of a driver's trackers
	FindByDriver(ctx context.Context, driverID uuid.UUID) ([]DriverIncentive, error)

	// Save persists progress updates
	Save(ctx context.Context, i *DriverIncentive) error
}

// DriverMetricRepository defines the interface for daily metric persistence
type DriverMetricRepository interface {
	// FindByDriverAndDate finds the metric row for one driver-day
	FindByDriverAndDate(ctx context.Context, driverID uuid.UUID, day time.Time) (*DriverMetric, error)

	// Create inserts a new metric row
	Create(ctx context.Context, m *DriverMetric) error

	// Save persists counter updates
	Save(ctx context.Context, m *DriverMetric) error
}
