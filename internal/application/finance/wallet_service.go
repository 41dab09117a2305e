package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/wallet"
	"github.com/shopspring/decimal"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// WalletService maintains driver wallet snapshots. Balances are always
// derived from the event log and settlement table; the snapshot only caches
// the result of the last derivation.
type WalletService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewWalletService creates a new WalletService
func NewWalletService(scope TransactionScope, logger *zap.Logger) *WalletService {
	return &WalletService{
		scope:  scope,
		logger: logger,
	}
}

// ComputeBalancesIn derives a driver's balances inside an open transaction
func (s *WalletService) ComputeBalancesIn(ctx context.Context, repos TransactionalRepositories, driverID uuid.UUID) (wallet.Balances, error) {
	var b wallet.Balances

	total, err := repos.EventRepo().SumCompletedByDriver(ctx, driverID)
	if err != nil {
		return b, fmt.Errorf("failed to sum completed events: %w", err)
	}

	held, err := repos.SettlementRepo().SumPendingByDriver(ctx, driverID)
	if err != nil {
		return b, fmt.Errorf("failed to sum pending settlements: %w", err)
	}

	pendingWithdrawals, err := repos.EventRepo().SumPendingByDriverAndType(ctx, driverID, ledger.EventTypeWalletWithdrawal)
	if err != nil {
		return b, fmt.Errorf("failed to sum pending withdrawals: %w", err)
	}

	credit, err := repos.EventRepo().SumCompletedByDriverAndType(ctx, driverID, ledger.EventTypeIncentiveCredit)
	if err != nil {
		return b, fmt.Errorf("failed to sum incentive credits: %w", err)
	}

	b.Total = total
	b.Held = held
	// Withdrawal events carry negative amounts; the lock is their magnitude
	b.PendingWithdrawals = pendingWithdrawals.Abs()
	b.Credit = credit
	return b, nil
}

// RefreshIn recomputes and persists a driver's snapshot inside an open
// transaction, creating the wallet row on first touch
func (s *WalletService) RefreshIn(ctx context.Context, repos TransactionalRepositories, driverID uuid.UUID) (*wallet.DriverWallet, error) {
	return s.refreshIn(ctx, repos, driverID, nil)
}

func (s *WalletService) refreshIn(ctx context.Context, repos TransactionalRepositories, driverID uuid.UUID, blocked *decimal.Decimal) (*wallet.DriverWallet, error) {
	w, err := repos.WalletRepo().FindByDriverID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	created := false
	if w == nil {
		w, err = wallet.NewDriverWallet(driverID)
		if err != nil {
			return nil, err
		}
		created = true
	}

	balances, err := s.ComputeBalancesIn(ctx, repos, driverID)
	if err != nil {
		return nil, err
	}

	// Blocked funds come from the external dispute process, not the event
	// log; a plain refresh carries the current figure forward.
	balances.Blocked = w.BlockedBalance
	if blocked != nil {
		balances.Blocked = *blocked
	}

	w.Refresh(balances)

	if w.NegativeAvailable {
		s.logger.Warn("Driver available balance is negative, floored at zero",
			zap.String("driver_id", driverID.String()),
			zap.String("total_balance", balances.Total.String()),
			zap.String("held_balance", balances.Held.String()),
			zap.String("pending_withdrawals", balances.PendingWithdrawals.String()),
		)
	}

	if created {
		if err := repos.WalletRepo().Create(ctx, w); err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	} else if err := repos.WalletRepo().Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	return w, nil
}

// Refresh recomputes a driver's snapshot in its own transaction
func (s *WalletService) Refresh(ctx context.Context, driverID uuid.UUID) (*wallet.DriverWallet, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "refresh")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrDriverID, driverID.String())

	var w *wallet.DriverWallet
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		w, err = s.RefreshIn(ctx, repos, driverID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return w, nil
}

// SetBlocked records the dispute-blocked amount for a driver and rederives
// the snapshot so the available figure reflects the block immediately
func (s *WalletService) SetBlocked(ctx context.Context, driverID uuid.UUID, amount decimal.Decimal) (*wallet.DriverWallet, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "wallet", "set_blocked")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrDriverID, driverID.String())

	if amount.IsNegative() {
		err := shared.NewDomainError("INVALID_AMOUNT", "Blocked amount cannot be negative")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var w *wallet.DriverWallet
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		w, err = s.refreshIn(ctx, repos, driverID, &amount)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Blocked balance updated",
		zap.String("driver_id", driverID.String()),
		zap.String("blocked_balance", amount.String()),
	)
	return w, nil
}

// GetWallet returns a driver's snapshot, refreshing it first so the caller
// always sees balances consistent with the current event log
func (s *WalletService) GetWallet(ctx context.Context, driverID uuid.UUID) (*wallet.DriverWallet, error) {
	return s.Refresh(ctx, driverID)
}
