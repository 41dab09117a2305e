package persistence

import (
	"context"

	"github.com/ridehail/backend/internal/application/finance"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/payout"
	"github.com/ridehail/backend/internal/domain/settlement"
	"github.com/ridehail/backend/internal/domain/wallet"
	"gorm.io/gorm"
)

// GormTransactionScope implements finance.TransactionScope using GORM
// transactions. All repositories handed to the callback share one database
// transaction, so row locks taken through them hold until commit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos finance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides repositories bound to a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// AccountRepo returns the account repository scoped to the transaction
func (r *gormTransactionalRepositories) AccountRepo() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// JournalRepo returns the journal entry repository scoped to the transaction
func (r *gormTransactionalRepositories) JournalRepo() ledger.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.tx)
}

// EventRepo returns the financial event repository scoped to the transaction
func (r *gormTransactionalRepositories) EventRepo() ledger.FinancialEventRepository {
	return NewGormFinancialEventRepository(r.tx)
}

// SettlementRepo returns the settlement repository scoped to the transaction
func (r *gormTransactionalRepositories) SettlementRepo() settlement.Repository {
	return NewGormSettlementRepository(r.tx)
}

// PayoutRepo returns the payout repository scoped to the transaction
func (r *gormTransactionalRepositories) PayoutRepo() payout.Repository {
	return NewGormPayoutRepository(r.tx)
}

// WalletRepo returns the wallet repository scoped to the transaction
func (r *gormTransactionalRepositories) WalletRepo() wallet.Repository {
	return NewGormWalletRepository(r.tx)
}

// Ensure interfaces are satisfied
var _ finance.TransactionScope = (*GormTransactionScope)(nil)
var _ finance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
var _ ledger.FinancialEventRepository = (*GormFinancialEventRepository)(nil)
var _ settlement.Repository = (*GormSettlementRepository)(nil)
var _ payout.Repository = (*GormPayoutRepository)(nil)
var _ wallet.Repository = (*GormWalletRepository)(nil)
