package finance

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountDef describes an account the caller wants auto-created on first use
type AccountDef struct {
	Code string
	Name string
	Type ledger.AccountType
}

// PostingRequest is one balanced group of entries to post atomically
type PostingRequest struct {
	Lines []ledger.EntryLine
	// EnsureAccounts are opened inside the posting transaction if a line
	// references a code that does not exist yet
	EnsureAccounts []AccountDef
}

// PostingResult reports one posted journal transaction
type PostingResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	EntryCount    int             `json:"entry_count"`
	TotalDebits   decimal.Decimal `json:"total_debits"`
}

// PostingService is the journal poster. It is the only writer of journal
// entries and cached account balances: every money movement in the system
// funnels through Post or PostIn.
type PostingService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewPostingService creates a new PostingService
func NewPostingService(scope TransactionScope, logger *zap.Logger) *PostingService {
	return &PostingService{
		scope:  scope,
		logger: logger,
	}
}

// Post posts one balanced group of entries in its own transaction
func (s *PostingService) Post(ctx context.Context, req PostingRequest) (*PostingResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "post")
	defer span.End()

	var result *PostingResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = s.PostIn(ctx, repos, req)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return result, nil
}

// PostIn posts one balanced group of entries inside an already-open
// transaction. Workflows that pair a posting with other writes (payout
// reservation, reversal compensation) call this from their own scope.
//
// Account rows are locked FOR UPDATE in ascending code order so concurrent
// posts touching the same accounts serialize instead of deadlocking.
func (s *PostingService) PostIn(ctx context.Context, repos TransactionalRepositories, req PostingRequest) (*PostingResult, error) {
	if err := ledger.ValidateBalanced(req.Lines); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(req.Lines))
	seen := make(map[string]bool, len(req.Lines))
	for _, line := range req.Lines {
		if !seen[line.AccountCode] {
			seen[line.AccountCode] = true
			codes = append(codes, line.AccountCode)
		}
	}
	sort.Strings(codes)

	accounts := make(map[string]*ledger.Account, len(codes))
	for _, code := range codes {
		account, err := s.lockOrOpenAccount(ctx, repos, code, req.EnsureAccounts)
		if err != nil {
			return nil, err
		}
		accounts[code] = account
	}

	transactionID := uuid.New()
	totalDebits := decimal.Zero
	entries := make([]*ledger.JournalEntry, 0, len(req.Lines))

	for _, line := range req.Lines {
		account := accounts[line.AccountCode]
		if err := account.ApplyEntry(line.EntryType, line.Amount); err != nil {
			return nil, err
		}
		if line.EntryType == ledger.EntryTypeDebit {
			totalDebits = totalDebits.Add(line.Amount)
		}
		entries = append(entries, ledger.NewJournalEntry(transactionID, account, line))
	}

	for _, code := range codes {
		if err := repos.AccountRepo().Save(ctx, accounts[code]); err != nil {
			return nil, fmt.Errorf("failed to save account %s: %w", code, err)
		}
	}

	if err := repos.JournalRepo().CreateBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to write journal entries: %w", err)
	}

	s.logger.Info("Journal transaction posted",
		zap.String("transaction_id", transactionID.String()),
		zap.Int("entry_count", len(entries)),
		zap.String("total_debits", totalDebits.String()),
	)

	return &PostingResult{
		TransactionID: transactionID,
		EntryCount:    len(entries),
		TotalDebits:   totalDebits,
	}, nil
}

func (s *PostingService) lockOrOpenAccount(ctx context.Context, repos TransactionalRepositories, code string, defs []AccountDef) (*ledger.Account, error) {
	account, err := repos.AccountRepo().FindByCodeForUpdate(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", code, err)
	}
	if account != nil {
		return account, nil
	}

	for _, def := range defs {
		if def.Code != code {
			continue
		}
		account, err = ledger.NewAccount(def.Code, def.Name, def.Type)
		if err != nil {
			return nil, err
		}
		if err := repos.AccountRepo().Save(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to open account %s: %w", code, err)
		}
		s.logger.Info("Ledger account opened",
			zap.String("code", account.Code),
			zap.String("type", account.Type.String()),
		)
		return account, nil
	}

	return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", fmt.Sprintf("Account %s does not exist", code))
}
