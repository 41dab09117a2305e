package finance

import (
	"context"

	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/payout"
	"github.com/ridehail/backend/internal/domain/settlement"
	"github.com/ridehail/backend/internal/domain/wallet"
)

// TransactionScope provides transactional access to the finance repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the finance repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - AccountRepo: chart-of-accounts rows; FindByCodeForUpdate is the lock
//     that serializes concurrent posts against one account.
//   - JournalRepo: append-only entry log, written once per posted group.
//   - EventRepo: append-only financial event log.
//   - SettlementRepo, PayoutRepo, WalletRepo: their own aggregates, joined
//     into the same transaction when a workflow spans them.
type TransactionalRepositories interface {
	// AccountRepo returns the account repository scoped to the current transaction
	AccountRepo() ledger.AccountRepository
	// JournalRepo returns the journal entry repository scoped to the current transaction
	JournalRepo() ledger.JournalEntryRepository
	// EventRepo returns the financial event repository scoped to the current transaction
	EventRepo() ledger.FinancialEventRepository
	// SettlementRepo returns the settlement repository scoped to the current transaction
	SettlementRepo() settlement.Repository
	// PayoutRepo returns the payout repository scoped to the current transaction
	PayoutRepo() payout.Repository
	// WalletRepo returns the wallet repository scoped to the current transaction
	WalletRepo() wallet.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing.
type NoOpTransactionScope struct {
	accountRepo    ledger.AccountRepository
	journalRepo    ledger.JournalEntryRepository
	eventRepo      ledger.FinancialEventRepository
	settlementRepo settlement.Repository
	payoutRepo     payout.Repository
	walletRepo     wallet.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	accountRepo ledger.AccountRepository,
	journalRepo ledger.JournalEntryRepository,
	eventRepo ledger.FinancialEventRepository,
	settlementRepo settlement.Repository,
	payoutRepo payout.Repository,
	walletRepo wallet.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		accountRepo:    accountRepo,
		journalRepo:    journalRepo,
		eventRepo:      eventRepo,
		settlementRepo: settlementRepo,
		payoutRepo:     payoutRepo,
		walletRepo:     walletRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// AccountRepo returns the account repository.
func (s *NoOpTransactionScope) AccountRepo() ledger.AccountRepository {
	return s.accountRepo
}

// JournalRepo returns the journal entry repository.
func (s *NoOpTransactionScope) JournalRepo() ledger.JournalEntryRepository {
	return s.journalRepo
}

// EventRepo returns the financial event repository.
func (s *NoOpTransactionScope) EventRepo() ledger.FinancialEventRepository {
	return s.eventRepo
}

// SettlementRepo returns the settlement repository.
func (s *NoOpTransactionScope) SettlementRepo() settlement.Repository {
	return s.settlementRepo
}

// PayoutRepo returns the payout repository.
func (s *NoOpTransactionScope) PayoutRepo() payout.Repository {
	return s.payoutRepo
}

// WalletRepo returns the wallet repository.
func (s *NoOpTransactionScope) WalletRepo() wallet.Repository {
	return s.walletRepo
}
