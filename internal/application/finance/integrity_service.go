package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultAuditTransactionLimit bounds one audit run
const DefaultAuditTransactionLimit = 10000

// TransactionImbalance is one journal transaction whose debits and credits
// do not match
type TransactionImbalance struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	TotalDebits   decimal.Decimal `json:"total_debits"`
	TotalCredits  decimal.Decimal `json:"total_credits"`
	Difference    decimal.Decimal `json:"difference"`
}

// AccountMismatch is one account whose cached balance disagrees with the
// replayed sum of its journal entries
type AccountMismatch struct {
	AccountCode    string          `json:"account_code"`
	CachedBalance  decimal.Decimal `json:"cached_balance"`
	DerivedBalance decimal.Decimal `json:"derived_balance"`
	Difference     decimal.Decimal `json:"difference"`
}

// AuditReport is the outcome of one integrity run over the ledger
type AuditReport struct {
	TransactionsChecked int                    `json:"transactions_checked"`
	AccountsChecked     int                    `json:"accounts_checked"`
	Imbalances          []TransactionImbalance `json:"imbalances"`
	Mismatches          []AccountMismatch      `json:"mismatches"`
}

// Clean reports whether the audit found nothing wrong
func (r AuditReport) Clean() bool {
	return len(r.Imbalances) == 0 && len(r.Mismatches) == 0
}

// IntegrityService replays the journal and checks the ledger's two
// structural promises: every transaction balances, and every cached account
// balance equals the sum of its entries.
type IntegrityService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewIntegrityService creates a new IntegrityService
func NewIntegrityService(scope TransactionScope, logger *zap.Logger) *IntegrityService {
	return &IntegrityService{
		scope:  scope,
		logger: logger,
	}
}

// Audit runs a full integrity check and returns the report. A dirty report
// is not an error; callers decide what to do with it.
func (s *IntegrityService) Audit(ctx context.Context) (*AuditReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integrity", "audit")
	defer span.End()

	report := &AuditReport{
		Imbalances: []TransactionImbalance{},
		Mismatches: []AccountMismatch{},
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.checkTransactions(ctx, repos, report); err != nil {
			return err
		}
		return s.checkAccounts(ctx, repos, report)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if report.Clean() {
		s.logger.Info("Ledger audit clean",
			zap.Int("transactions_checked", report.TransactionsChecked),
			zap.Int("accounts_checked", report.AccountsChecked),
		)
	} else {
		s.logger.Error("Ledger audit found inconsistencies",
			zap.Int("imbalances", len(report.Imbalances)),
			zap.Int("mismatches", len(report.Mismatches)),
		)
	}

	return report, nil
}

func (s *IntegrityService) checkTransactions(ctx context.Context, repos TransactionalRepositories, report *AuditReport) error {
	ids, err := repos.JournalRepo().ListTransactionIDs(ctx, DefaultAuditTransactionLimit)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	for _, id := range ids {
		entries, err := repos.JournalRepo().FindByTransactionID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load transaction %s: %w", id, err)
		}

		debits := decimal.Zero
		credits := decimal.Zero
		for _, entry := range entries {
			switch entry.EntryType {
			case ledger.EntryTypeDebit:
				debits = debits.Add(entry.Amount)
			case ledger.EntryTypeCredit:
				credits = credits.Add(entry.Amount)
			}
		}

		if !debits.Equal(credits) {
			report.Imbalances = append(report.Imbalances, TransactionImbalance{
				TransactionID: id,
				TotalDebits:   debits,
				TotalCredits:  credits,
				Difference:    debits.Sub(credits),
			})
		}
	}

	report.TransactionsChecked = len(ids)
	return nil
}

func (s *IntegrityService) checkAccounts(ctx context.Context, repos TransactionalRepositories, report *AuditReport) error {
	accounts, err := repos.AccountRepo().FindAll(ctx, shared.Filter{})
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, account := range accounts {
		debits, err := repos.JournalRepo().SumByAccountAndType(ctx, account.ID, ledger.EntryTypeDebit)
		if err != nil {
			return fmt.Errorf("failed to sum debits for %s: %w", account.Code, err)
		}
		credits, err := repos.JournalRepo().SumByAccountAndType(ctx, account.ID, ledger.EntryTypeCredit)
		if err != nil {
			return fmt.Errorf("failed to sum credits for %s: %w", account.Code, err)
		}

		derived := credits.Sub(debits)
		if account.Type.IsNormalDebit() {
			derived = debits.Sub(credits)
		}

		if !derived.Equal(account.Balance) {
			report.Mismatches = append(report.Mismatches, AccountMismatch{
				AccountCode:    account.Code,
				CachedBalance:  account.Balance,
				DerivedBalance: derived,
				Difference:     account.Balance.Sub(derived),
			})
		}
	}

	report.AccountsChecked = len(accounts)
	return nil
}
