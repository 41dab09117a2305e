package incentive

import (
	"time"

	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Incentive expense account in the chart of accounts
const CodeIncentiveExpense = "5400"

// CampaignType selects how a campaign rewards drivers
type CampaignType string

const (
	CampaignTypeBonusPerRide       CampaignType = "BONUS_PER_RIDE"       // Fixed bonus on every completed ride
	CampaignTypeTargetRideCount    CampaignType = "TARGET_RIDE_COUNT"    // Complete N rides, earn a reward
	CampaignTypeCommissionDiscount CampaignType = "COMMISSION_DISCOUNT"  // Reduced platform commission
)

// IsValid checks if the campaign type is valid
func (t CampaignType) IsValid() bool {
	switch t {
	case CampaignTypeBonusPerRide, CampaignTypeTargetRideCount, CampaignTypeCommissionDiscount:
		return true
	}
	return false
}

// String returns the string representation of CampaignType
func (t CampaignType) String() string {
	return string(t)
}

// Rules is the per-type parameterization of a campaign. Only the fields the
// campaign type reads are meaningful.
type Rules struct {
	TargetCount  int             `json:"target_count,omitempty"`  // TARGET_RIDE_COUNT: rides to complete
	RewardAmount decimal.Decimal `json:"reward_amount,omitempty"` // BONUS_PER_RIDE and TARGET_RIDE_COUNT: payout
	DiscountRate decimal.Decimal `json:"discount_rate,omitempty"` // COMMISSION_DISCOUNT: subtracted from the base rate
}

// Campaign is a time-bounded driver incentive program
type Campaign struct {
	shared.BaseAggregateRoot
	Name        string       `gorm:"type:varchar(200);not null"`
	Description string       `gorm:"type:varchar(500)"`
	Type        CampaignType `gorm:"type:varchar(30);not null;index"`
	Rules       Rules        `gorm:"serializer:json;not null"`
	StartDate   time.Time    `gorm:"not null;index"`
	EndDate     time.Time    `gorm:"not null;index"`
	Enabled     bool         `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Campaign) TableName() string {
	return "campaigns"
}

// NewCampaign creates an enabled campaign
func NewCampaign(name string, campaignType CampaignType, rules Rules, start, end time.Time) (*Campaign, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Campaign name cannot be empty")
	}
	if !campaignType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CAMPAIGN_TYPE", "Unknown campaign type")
	}
	if !end.After(start) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Campaign end date must be after start date")
	}

	switch campaignType {
	case CampaignTypeTargetRideCount:
		if rules.TargetCount <= 0 {
			return nil, shared.NewDomainError("INVALID_RULES", "Target ride count must be positive")
		}
		if !rules.RewardAmount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_RULES", "Reward amount must be positive")
		}
	case CampaignTypeBonusPerRide:
		if !rules.RewardAmount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_RULES", "Reward amount must be positive")
		}
	case CampaignTypeCommissionDiscount:
		if !rules.DiscountRate.IsPositive() || rules.DiscountRate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, shared.NewDomainError("INVALID_RULES", "Discount rate must be in (0, 1]")
		}
	}

	return &Campaign{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              campaignType,
		Rules:             rules,
		StartDate:         start,
		EndDate:           end,
		Enabled:           true,
	}, nil
}

// IsActive returns true while the campaign is enabled and inside its window
func (c *Campaign) IsActive(now time.Time) bool {
	return c.Enabled && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Disable turns the campaign off immediately
func (c *Campaign) Disable() {
	c.Enabled = false
	c.IncrementVersion()
}
