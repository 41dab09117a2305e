package wallet

import (
	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// WalletRefreshedEvent is raised when a snapshot is recomputed
type WalletRefreshedEvent struct {
	shared.BaseDomainEvent
	WalletID          uuid.UUID       `json:"wallet_id"`
	DriverID          uuid.UUID       `json:"driver_id"`
	TotalBalance      decimal.Decimal `json:"total_balance"`
	AvailableBalance  decimal.Decimal `json:"available_balance"`
	NegativeAvailable bool            `json:"negative_available"`
}

// EventType returns the event type name
func (e *WalletRefreshedEvent) EventType() string {
	return "WalletRefreshed"
}

// NewWalletRefreshedEvent creates a new WalletRefreshedEvent
func NewWalletRefreshedEvent(w *DriverWallet) *WalletRefreshedEvent {
	return &WalletRefreshedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("WalletRefreshed", "DriverWallet", w.ID),
		WalletID:          w.ID,
		DriverID:          w.DriverID,
		TotalBalance:      w.TotalBalance,
		AvailableBalance:  w.AvailableBalance,
		NegativeAvailable: w.NegativeAvailable,
	}
}
