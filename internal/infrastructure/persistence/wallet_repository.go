package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/wallet"
	"gorm.io/gorm"
)

// GormWalletRepository implements wallet.Repository
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository
func NewGormWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// FindByDriverID finds a driver's wallet snapshot
func (r *GormWalletRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID) (*wallet.DriverWallet, error) {
	var w wallet.DriverWallet
	err := r.db.WithContext(ctx).First(&w, "driver_id = ?", driverID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// Create inserts a new wallet snapshot
func (r *GormWalletRepository) Create(ctx context.Context, w *wallet.DriverWallet) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// Save persists an updated wallet snapshot
func (r *GormWalletRepository) Save(ctx context.Context, w *wallet.DriverWallet) error {
	return r.db.WithContext(ctx).Save(w).Error
}
