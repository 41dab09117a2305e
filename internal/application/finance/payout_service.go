package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/payout"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequestPayoutRequest is a driver's withdrawal request
type RequestPayoutRequest struct {
	DriverID uuid.UUID
	Amount   valueobject.Money
	PixKey   string
}

// PayoutService drives withdrawals end to end. Requesting a payout reserves
// the funds in the ledger inside one transaction; executing it talks to the
// payment rail outside any transaction and then records the outcome.
type PayoutService struct {
	scope          TransactionScope
	posting        *PostingService
	walletService  *WalletService
	gateway        payout.Gateway
	idempotency    shared.IdempotencyStore
	idempotencyCfg shared.IdempotencyConfig
	logger         *zap.Logger
}

// NewPayoutService creates a new PayoutService
func NewPayoutService(
	scope TransactionScope,
	posting *PostingService,
	walletService *WalletService,
	gateway payout.Gateway,
	idempotency shared.IdempotencyStore,
	idempotencyCfg shared.IdempotencyConfig,
	logger *zap.Logger,
) *PayoutService {
	return &PayoutService{
		scope:          scope,
		posting:        posting,
		walletService:  walletService,
		gateway:        gateway,
		idempotency:    idempotency,
		idempotencyCfg: idempotencyCfg,
		logger:         logger,
	}
}

// RequestPayout creates a PENDING payout and reserves the funds.
//
// The driver's liability account is locked first, so the balance check, the
// single-outstanding-payout check, and the reservation posting are one
// serialized unit. Two concurrent requests for the same driver queue behind
// the lock and the second one fails its check cleanly.
func (s *PayoutService) RequestPayout(ctx context.Context, req RequestPayoutRequest) (*payout.Payout, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "request")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, req.DriverID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var p *payout.Payout
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		liabilityCode := ledger.DriverLiabilityCode(req.DriverID)
		account, err := repos.AccountRepo().FindByCodeForUpdate(ctx, liabilityCode)
		if err != nil {
			return fmt.Errorf("failed to lock driver account: %w", err)
		}
		if account == nil {
			// No liability account means no earnings were ever posted
			return shared.ErrInsufficientFunds
		}

		w, err := s.walletService.RefreshIn(ctx, repos, req.DriverID)
		if err != nil {
			return err
		}
		if err := w.CanWithdraw(req.Amount); err != nil {
			return err
		}

		outstanding, err := repos.PayoutRepo().CountOutstandingByDriver(ctx, req.DriverID)
		if err != nil {
			return fmt.Errorf("failed to count outstanding payouts: %w", err)
		}
		if outstanding > 0 {
			return shared.ErrConcurrentPayout
		}

		p, err = payout.NewPayout(req.DriverID, req.Amount, payout.BankDetails{PixKey: req.PixKey}, s.gateway.Name())
		if err != nil {
			return err
		}
		if err := repos.PayoutRepo().Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create payout: %w", err)
		}

		withdrawal, err := ledger.NewFinancialEvent(
			ledger.EventTypeWalletWithdrawal,
			req.Amount.Negate(),
			fmt.Sprintf("Withdrawal via %s", p.Method),
		)
		if err != nil {
			return err
		}
		withdrawal.WithDriver(req.DriverID).
			WithExternalTransactionID(p.ID.String()).
			WithMetadata("payout_id", p.ID.String())
		if err := repos.EventRepo().Create(ctx, withdrawal); err != nil {
			return fmt.Errorf("failed to create withdrawal event: %w", err)
		}

		// Move the funds out of the driver's liability into the bank
		// clearing account so the reservation is visible in the ledger
		_, err = s.posting.PostIn(ctx, repos, PostingRequest{
			Lines: []ledger.EntryLine{
				{
					AccountCode:   liabilityCode,
					EntryType:     ledger.EntryTypeDebit,
					Amount:        req.Amount.Amount(),
					Description:   "Payout reservation",
					ReferenceType: ledger.ReferenceTypePayout,
					ReferenceID:   p.ID,
				},
				{
					AccountCode:   ledger.CodeBankClearing,
					EntryType:     ledger.EntryTypeCredit,
					Amount:        req.Amount.Amount(),
					Description:   "Payout reservation",
					ReferenceType: ledger.ReferenceTypePayout,
					ReferenceID:   p.ID,
				},
			},
			EnsureAccounts: []AccountDef{
				{Code: ledger.CodeBankClearing, Name: "Bank clearing", Type: ledger.AccountTypeAsset},
			},
		})
		if err != nil {
			return err
		}

		_, err = s.walletService.RefreshIn(ctx, repos, req.DriverID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrPayoutID, p.ID.String())
	s.logger.Info("Payout requested",
		zap.String("payout_id", p.ID.String()),
		zap.String("driver_id", req.DriverID.String()),
		zap.String("amount", req.Amount.String()),
	)

	return p, nil
}

// ExecutePayout sends a requested payout over the payment rail.
//
// The rail call happens outside any database transaction; no row locks are
// held while waiting on the provider. A rail failure does not delete the
// reservation, it posts the compensating entry that gives the funds back.
func (s *PayoutService) ExecutePayout(ctx context.Context, payoutID uuid.UUID) (*payout.Payout, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "execute")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrPayoutID, payoutID.String())

	if s.idempotency != nil && s.idempotencyCfg.Enabled {
		key := fmt.Sprintf("payout:execute:%s", payoutID)
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyCfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !fresh {
			s.logger.Warn("Payout execution already in flight, skipping",
				zap.String("payout_id", payoutID.String()),
			)
			return s.GetPayout(ctx, payoutID)
		}
	}

	var p *payout.Payout
	alreadyTerminal := false
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.PayoutRepo().FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			return fmt.Errorf("failed to lock payout: %w", err)
		}
		if p == nil {
			return fmt.Errorf("payout %s: %w", payoutID, shared.ErrNotFound)
		}
		if p.Status.IsTerminal() {
			alreadyTerminal = true
			return nil
		}
		if p.Status == payout.StatusProcessing {
			// Re-driven after a crash mid-execution; send again under the
			// same idempotency key
			return nil
		}
		if err := p.StartProcessing(); err != nil {
			return err
		}
		return repos.PayoutRepo().Save(ctx, p)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if alreadyTerminal {
		return p, nil
	}

	result, sendErr := s.gateway.SendTransfer(ctx, payout.TransferRequest{
		PayoutID:       p.ID,
		Amount:         p.GetAmountMoney(),
		PixKey:         p.BankDetails.PixKey,
		IdempotencyKey: p.ID.String(),
	})
	if sendErr != nil {
		if failErr := s.failPayout(ctx, payoutID, sendErr.Error()); failErr != nil {
			telemetry.RecordError(span, failErr)
			return nil, failErr
		}
		telemetry.RecordError(span, sendErr)
		s.logger.Error("Payout transfer failed, reservation compensated",
			zap.String("payout_id", payoutID.String()),
			zap.Error(sendErr),
		)
		refreshed, err := s.GetPayout(ctx, payoutID)
		if err != nil {
			return nil, err
		}
		return refreshed, fmt.Errorf("%w: %s", shared.ErrExternalRailFailure, sendErr.Error())
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.PayoutRepo().FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			return fmt.Errorf("failed to lock payout: %w", err)
		}
		if p == nil {
			return fmt.Errorf("payout %s: %w", payoutID, shared.ErrNotFound)
		}

		if err := p.Complete(result.ProviderTransactionID); err != nil {
			return err
		}
		if err := repos.PayoutRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payout: %w", err)
		}

		withdrawal, err := repos.EventRepo().FindByExternalTransactionID(ctx, p.ID.String())
		if err != nil {
			return fmt.Errorf("failed to load withdrawal event: %w", err)
		}
		if withdrawal != nil && withdrawal.Status == ledger.EventStatusPending {
			if err := withdrawal.Complete(); err != nil {
				return err
			}
			if err := repos.EventRepo().Save(ctx, withdrawal); err != nil {
				return fmt.Errorf("failed to save withdrawal event: %w", err)
			}
		}

		if err := s.recordPayoutAudit(ctx, repos, p, ledger.EventTypePayoutCompleted, ""); err != nil {
			return err
		}

		w, err := s.walletService.RefreshIn(ctx, repos, p.DriverID)
		if err != nil {
			return err
		}
		w.RecordWithdrawn(p.Amount)
		return repos.WalletRepo().Save(ctx, w)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Payout completed",
		zap.String("payout_id", p.ID.String()),
		zap.String("driver_id", p.DriverID.String()),
		zap.String("provider_transaction_id", result.ProviderTransactionID),
	)

	return p, nil
}

// failPayout records a rail failure: the payout goes FAILED, the withdrawal
// event goes FAILED, and the reservation is given back with a compensating
// journal entry.
func (s *PayoutService) failPayout(ctx context.Context, payoutID uuid.UUID, reason string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.PayoutRepo().FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			return fmt.Errorf("failed to lock payout: %w", err)
		}
		if p == nil {
			return fmt.Errorf("payout %s: %w", payoutID, shared.ErrNotFound)
		}

		if err := p.Fail(reason); err != nil {
			return err
		}
		if err := repos.PayoutRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payout: %w", err)
		}

		withdrawal, err := repos.EventRepo().FindByExternalTransactionID(ctx, p.ID.String())
		if err != nil {
			return fmt.Errorf("failed to load withdrawal event: %w", err)
		}
		if withdrawal != nil && withdrawal.Status == ledger.EventStatusPending {
			if err := withdrawal.Fail(reason); err != nil {
				return err
			}
			if err := repos.EventRepo().Save(ctx, withdrawal); err != nil {
				return fmt.Errorf("failed to save withdrawal event: %w", err)
			}
		}

		liabilityCode := ledger.DriverLiabilityCode(p.DriverID)
		_, err = s.posting.PostIn(ctx, repos, PostingRequest{
			Lines: []ledger.EntryLine{
				{
					AccountCode:   ledger.CodeBankClearing,
					EntryType:     ledger.EntryTypeDebit,
					Amount:        p.Amount,
					Description:   "Payout reservation returned",
					ReferenceType: ledger.ReferenceTypePayoutReversal,
					ReferenceID:   p.ID,
				},
				{
					AccountCode:   liabilityCode,
					EntryType:     ledger.EntryTypeCredit,
					Amount:        p.Amount,
					Description:   "Payout reservation returned",
					ReferenceType: ledger.ReferenceTypePayoutReversal,
					ReferenceID:   p.ID,
				},
			},
		})
		if err != nil {
			return err
		}

		if err := s.recordPayoutAudit(ctx, repos, p, ledger.EventTypePayoutFailed, reason); err != nil {
			return err
		}

		_, err = s.walletService.RefreshIn(ctx, repos, p.DriverID)
		return err
	})
}

// recordPayoutAudit appends a COMPLETED audit event for a payout outcome.
// The event carries no driver attribution so it never enters balance sums;
// the money movement is already fully described by the withdrawal event and
// the journal entries.
func (s *PayoutService) recordPayoutAudit(ctx context.Context, repos TransactionalRepositories, p *payout.Payout, eventType ledger.EventType, reason string) error {
	description := fmt.Sprintf("Payout %s %s", p.ID, p.Status)
	audit, err := ledger.NewFinancialEvent(eventType, p.GetAmountMoney(), description)
	if err != nil {
		return err
	}
	audit.WithMetadata("payout_id", p.ID.String())
	audit.WithMetadata("driver_id", p.DriverID.String())
	if p.ProviderTransactionID != nil {
		audit.WithMetadata("provider_transaction_id", *p.ProviderTransactionID)
	}
	if reason != "" {
		audit.WithMetadata("failure_reason", reason)
	}
	if err := audit.Complete(); err != nil {
		return err
	}
	if err := repos.EventRepo().Create(ctx, audit); err != nil {
		return fmt.Errorf("failed to create payout audit event: %w", err)
	}
	return nil
}

// GetPayout loads one payout by id
func (s *PayoutService) GetPayout(ctx context.Context, payoutID uuid.UUID) (*payout.Payout, error) {
	var p *payout.Payout
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		p, err = repos.PayoutRepo().FindByID(ctx, payoutID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("payout %s: %w", payoutID, shared.ErrNotFound)
	}
	return p, nil
}

// OutstandingTotal returns the amount tied up in a driver's PENDING and
// PROCESSING payouts
func (s *PayoutService) OutstandingTotal(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		total, err = repos.PayoutRepo().SumOutstandingByDriver(ctx, driverID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListDriverPayouts lists a driver's payouts newest first
func (s *PayoutService) ListDriverPayouts(ctx context.Context, driverID uuid.UUID, filter shared.Filter) ([]payout.Payout, int64, error) {
	var payouts []payout.Payout
	var total int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payouts, total, err = repos.PayoutRepo().FindByDriver(ctx, driverID, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}
