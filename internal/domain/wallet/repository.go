package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for wallet snapshot persistence
type Repository interface {
	// FindByDriverID finds the wallet snapshot for a driver
	FindByDriverID(ctx context.Context, driverID uuid.UUID) (*DriverWallet, error)

	// Create inserts a new wallet snapshot
	Create(ctx context.Context, w *DriverWallet) error

	// Save persists a refreshed snapshot
	Save(ctx context.Context, w *DriverWallet) error
}
