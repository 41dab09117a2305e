package incentive

import (
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DriverIncentive tracks one driver's progress in one campaign
type DriverIncentive struct {
	shared.BaseAggregateRoot
	CampaignID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_incentive_campaign_driver"`
	DriverID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_incentive_campaign_driver"`
	CurrentValue int             `gorm:"not null;default:0"`
	TargetValue  int             `gorm:"not null"`
	RewardAmount decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Achieved     bool            `gorm:"not null;default:false"`
	AchievedAt   *time.Time
	Paid         bool `gorm:"not null;default:false"`
	PaidAt       *time.Time
}

// TableName returns the table name for GORM
func (DriverIncentive) TableName() string {
	return "driver_incentives"
}

// NewDriverIncentive enrolls a driver in a target campaign
func NewDriverIncentive(campaign *Campaign, driverID uuid.UUID) (*DriverIncentive, error) {
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Incentive requires a driver")
	}
	if campaign.Type != CampaignTypeTargetRideCount {
		return nil, shared.NewDomainError("INVALID_CAMPAIGN_TYPE", "Progress tracking only applies to target campaigns")
	}

	return &DriverIncentive{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CampaignID:        campaign.ID,
		DriverID:          driverID,
		TargetValue:       campaign.Rules.TargetCount,
		RewardAmount:      campaign.Rules.RewardAmount,
	}, nil
}

// RecordProgress increments progress by one completed ride and reports
// whether the target was just reached. Progress past the target is ignored.
func (i *DriverIncentive) RecordProgress(now time.Time) bool {
	if i.Achieved {
		return false
	}

	i.CurrentValue++
	i.IncrementVersion()

	if i.CurrentValue >= i.TargetValue {
		i.Achieved = true
		i.AchievedAt = &now
		i.AddDomainEvent(NewIncentiveAchievedEvent(i))
		return true
	}

	return false
}

// MarkPaid records the reward payout. Paying twice is rejected so the
// achievement-to-payout handoff stays idempotent.
func (i *DriverIncentive) MarkPaid(now time.Time) error {
	if !i.Achieved {
		return shared.NewDomainError("INVALID_STATE", "Cannot pay an unachieved incentive")
	}
	if i.Paid {
		return shared.NewDomainError("ALREADY_PAID", "Incentive reward was already paid")
	}

	i.Paid = true
	i.PaidAt = &now
	i.IncrementVersion()

	return nil
}
