package incentive

import (
	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// IncentiveAchievedEvent is raised when a driver reaches a campaign target
type IncentiveAchievedEvent struct {
	shared.BaseDomainEvent
	IncentiveID  uuid.UUID       `json:"incentive_id"`
	CampaignID   uuid.UUID       `json:"campaign_id"`
	DriverID     uuid.UUID       `json:"driver_id"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
}

// EventType returns the event type name
func (e *IncentiveAchievedEvent) EventType() string {
	return "IncentiveAchieved"
}

// NewIncentiveAchievedEvent creates a new IncentiveAchievedEvent
func NewIncentiveAchievedEvent(i *DriverIncentive) *IncentiveAchievedEvent {
	return &IncentiveAchievedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("IncentiveAchieved", "DriverIncentive", i.ID),
		IncentiveID:     i.ID,
		CampaignID:      i.CampaignID,
		DriverID:        i.DriverID,
		RewardAmount:    i.RewardAmount,
	}
}
