package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements ledger.JournalEntryRepository using
// GORM. The entry log is append-only; there is no update or delete path.
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// CreateBatch inserts all entries of one posted transaction
func (r *GormJournalEntryRepository) CreateBatch(ctx context.Context, entries []*ledger.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// FindByTransactionID returns all entries posted under one transaction id
func (r *GormJournalEntryRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByReference returns entries created for a business document
func (r *GormJournalEntryRepository) FindByReference(ctx context.Context, refType ledger.ReferenceType, refID uuid.UUID) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ExistsByReference reports whether any entry exists for a business document
func (r *GormJournalEntryRepository) ExistsByReference(ctx context.Context, refType ledger.ReferenceType, refID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.JournalEntry{}).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumByAccountAndType sums entry amounts for one account and side
func (r *GormJournalEntryRepository) SumByAccountAndType(ctx context.Context, accountID uuid.UUID, entryType ledger.EntryType) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.JournalEntry{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("account_id = ? AND entry_type = ?", accountID, entryType).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ListTransactionIDs returns the distinct transaction ids in the log, oldest first
func (r *GormJournalEntryRepository) ListTransactionIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&ledger.JournalEntry{}).
		Distinct("transaction_id").
		Order("transaction_id").
		Limit(limit).
		Pluck("transaction_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
