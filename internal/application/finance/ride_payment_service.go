package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/settlement"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentMethod is how the passenger paid for a ride
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodPix  PaymentMethod = "PIX"
	PaymentMethodCash PaymentMethod = "CASH"
)

// RideCompletedRequest carries the facts of a finished, paid ride
type RideCompletedRequest struct {
	RideID        uuid.UUID
	DriverID      uuid.UUID
	PassengerID   uuid.UUID
	Fare          valueobject.Money
	PaymentMethod PaymentMethod
	CompletedAt   time.Time
}

// RideSettlementResult reports the financial records created for one ride
type RideSettlementResult struct {
	Breakdown      CommissionBreakdown
	EarningEventID uuid.UUID
	TransactionID  uuid.UUID
	SettlementID   *uuid.UUID
	AlreadySettled bool
}

// CancellationFeeRequest charges a passenger for a late cancel; the driver
// gets the whole fee, no commission is taken
type CancellationFeeRequest struct {
	RideID      uuid.UUID
	DriverID    uuid.UUID
	PassengerID uuid.UUID
	Fee         valueobject.Money
}

// RideMetricsTracker receives completed rides for incentive progress.
// A tracker failure never fails the ride settlement.
type RideMetricsTracker interface {
	TrackRideCompleted(ctx context.Context, driverID, rideID uuid.UUID, earnings valueobject.Money, at time.Time) error
}

// RidePaymentService turns a completed ride into ledger facts: the event
// records, the balanced journal entries, the settlement hold, and the
// refreshed wallet snapshot, all in one transaction.
type RidePaymentService struct {
	scope             TransactionScope
	posting           *PostingService
	commission        *CommissionService
	settlementService *SettlementService
	walletService     *WalletService
	tracker           RideMetricsTracker
	logger            *zap.Logger
}

// NewRidePaymentService creates a new RidePaymentService
func NewRidePaymentService(
	scope TransactionScope,
	posting *PostingService,
	commission *CommissionService,
	settlementService *SettlementService,
	walletService *WalletService,
	tracker RideMetricsTracker,
	logger *zap.Logger,
) *RidePaymentService {
	return &RidePaymentService{
		scope:             scope,
		posting:           posting,
		commission:        commission,
		settlementService: settlementService,
		walletService:     walletService,
		tracker:           tracker,
		logger:            logger,
	}
}

// OnRideCompleted settles a finished ride.
//
// Re-delivery of the same ride is a no-op: the RIDE_PAYMENT event is the
// idempotency anchor, one per ride. Cash rides post the same way as card and
// Pix rides; the driver share stays held until OnCashConfirmed reports that
// the driver collected the fare in person.
func (s *RidePaymentService) OnRideCompleted(ctx context.Context, req RideCompletedRequest) (*RideSettlementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ride_payment", "ride_completed")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRideID, req.RideID.String(),
		telemetry.SpanAttrDriverID, req.DriverID.String(),
		telemetry.SpanAttrAmount, req.Fare.String(),
	)

	if req.CompletedAt.IsZero() {
		req.CompletedAt = time.Now()
	}

	breakdown, err := s.commission.Split(ctx, req.Fare, req.DriverID, req.CompletedAt)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *RideSettlementResult
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.EventRepo().FindByRideAndType(ctx, req.RideID, ledger.EventTypeRidePayment)
		if err != nil {
			return fmt.Errorf("failed to check for existing settlement: %w", err)
		}
		if existing != nil {
			s.logger.Warn("Ride already settled, skipping",
				zap.String("ride_id", req.RideID.String()),
				zap.String("event_id", existing.ID.String()),
			)
			result = &RideSettlementResult{AlreadySettled: true}
			return nil
		}

		earning, err := s.recordRideEvents(ctx, repos, req, breakdown)
		if err != nil {
			return err
		}

		transactionID, err := s.postRideEntries(ctx, repos, req, breakdown)
		if err != nil {
			return err
		}

		hold, err := s.settlementService.HoldForIn(ctx, repos, earning)
		if err != nil {
			return err
		}

		if _, err := s.walletService.RefreshIn(ctx, repos, req.DriverID); err != nil {
			return err
		}

		result = &RideSettlementResult{
			Breakdown:      breakdown,
			EarningEventID: earning.ID,
			TransactionID:  transactionID,
		}
		if hold != nil {
			result.SettlementID = &hold.ID
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.tracker != nil {
		if err := s.tracker.TrackRideCompleted(ctx, req.DriverID, req.RideID, breakdown.DriverShare, req.CompletedAt); err != nil {
			s.logger.Warn("Incentive tracking failed for ride",
				zap.String("ride_id", req.RideID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Ride settled",
		zap.String("ride_id", req.RideID.String()),
		zap.String("driver_id", req.DriverID.String()),
		zap.String("gross", breakdown.Gross.String()),
		zap.String("driver_share", breakdown.DriverShare.String()),
		zap.String("platform_share", breakdown.PlatformShare.String()),
	)

	return result, nil
}

func (s *RidePaymentService) recordRideEvents(ctx context.Context, repos TransactionalRepositories, req RideCompletedRequest, breakdown CommissionBreakdown) (*ledger.FinancialEvent, error) {
	payment, err := ledger.NewFinancialEvent(
		ledger.EventTypeRidePayment,
		req.Fare.Negate(),
		"Ride fare",
	)
	if err != nil {
		return nil, err
	}
	payment.WithPassenger(req.PassengerID).WithRide(req.RideID).
		WithMetadata("payment_method", string(req.PaymentMethod))
	if err := payment.Complete(); err != nil {
		return nil, err
	}
	if err := repos.EventRepo().Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment event: %w", err)
	}

	earning, err := ledger.NewFinancialEvent(
		ledger.EventTypeRideEarning,
		breakdown.DriverShare,
		"Ride earning",
	)
	if err != nil {
		return nil, err
	}
	earning.WithDriver(req.DriverID).WithRide(req.RideID).
		WithMetadata("gross_fare", breakdown.Gross.String()).
		WithMetadata("commission_rate", breakdown.Rate.String()).
		WithMetadata("payment_method", string(req.PaymentMethod))
	if err := earning.Complete(); err != nil {
		return nil, err
	}
	if err := repos.EventRepo().Create(ctx, earning); err != nil {
		return nil, fmt.Errorf("failed to create earning event: %w", err)
	}

	if breakdown.PlatformShare.IsPositive() {
		fee, err := ledger.NewFinancialEvent(
			ledger.EventTypePlatformCommission,
			breakdown.PlatformShare,
			"Platform commission",
		)
		if err != nil {
			return nil, err
		}
		fee.WithRide(req.RideID).WithMetadata("driver_id", req.DriverID.String())
		if err := fee.Complete(); err != nil {
			return nil, err
		}
		if err := repos.EventRepo().Create(ctx, fee); err != nil {
			return nil, fmt.Errorf("failed to create commission event: %w", err)
		}
	}

	return earning, nil
}

func (s *RidePaymentService) postRideEntries(ctx context.Context, repos TransactionalRepositories, req RideCompletedRequest, breakdown CommissionBreakdown) (uuid.UUID, error) {
	driverCode := ledger.DriverLiabilityCode(req.DriverID)
	ensure := []AccountDef{
		{Code: driverCode, Name: fmt.Sprintf("Driver %s payable", req.DriverID), Type: ledger.AccountTypeLiability},
		{Code: ledger.CodePassengerClear, Name: "Passenger clearing", Type: ledger.AccountTypeAsset},
		{Code: ledger.CodePlatformRevenue, Name: "Platform revenue", Type: ledger.AccountTypeRevenue},
	}

	lines := []ledger.EntryLine{
		{
			AccountCode:   ledger.CodePassengerClear,
			EntryType:     ledger.EntryTypeDebit,
			Amount:        breakdown.Gross.Amount(),
			Description:   "Ride fare receivable",
			ReferenceType: ledger.ReferenceTypeRide,
			ReferenceID:   req.RideID,
		},
		{
			AccountCode:   driverCode,
			EntryType:     ledger.EntryTypeCredit,
			Amount:        breakdown.DriverShare.Amount(),
			Description:   "Driver share",
			ReferenceType: ledger.ReferenceTypeRide,
			ReferenceID:   req.RideID,
		},
	}
	if breakdown.PlatformShare.IsPositive() {
		lines = append(lines, ledger.EntryLine{
			AccountCode:   ledger.CodePlatformRevenue,
			EntryType:     ledger.EntryTypeCredit,
			Amount:        breakdown.PlatformShare.Amount(),
			Description:   "Platform commission",
			ReferenceType: ledger.ReferenceTypeRide,
			ReferenceID:   req.RideID,
		})
	}

	posted, err := s.posting.PostIn(ctx, repos, PostingRequest{Lines: lines, EnsureAccounts: ensure})
	if err != nil {
		return uuid.Nil, err
	}
	return posted.TransactionID, nil
}

// OnCashConfirmed releases the settlement hold on a cash ride once the driver
// confirms the fare changed hands. The money is already in the driver's
// pocket, so the hold has nothing left to wait out. Confirming a ride twice
// is a no-op.
func (s *RidePaymentService) OnCashConfirmed(ctx context.Context, rideID uuid.UUID) (*settlement.Settlement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ride_payment", "cash_confirmed")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrRideID, rideID.String())

	var hold *settlement.Settlement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		earning, err := repos.EventRepo().FindByRideAndType(ctx, rideID, ledger.EventTypeRideEarning)
		if err != nil {
			return fmt.Errorf("failed to look up earning event: %w", err)
		}
		if earning == nil {
			return fmt.Errorf("no earning recorded for ride %s: %w", rideID, shared.ErrNotFound)
		}

		hold, err = repos.SettlementRepo().FindByFinancialEventID(ctx, earning.ID)
		if err != nil {
			return fmt.Errorf("failed to look up settlement: %w", err)
		}
		if hold == nil {
			return fmt.Errorf("no settlement for ride %s: %w", rideID, shared.ErrNotFound)
		}
		if hold.Status == settlement.StatusCompleted {
			return nil
		}

		if err := hold.Release(time.Now()); err != nil {
			return err
		}
		if err := repos.SettlementRepo().Save(ctx, hold); err != nil {
			return fmt.Errorf("failed to save released settlement: %w", err)
		}
		_, err = s.walletService.RefreshIn(ctx, repos, hold.DriverID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Cash fare confirmed, settlement released",
		zap.String("ride_id", rideID.String()),
		zap.String("settlement_id", hold.ID.String()),
		zap.String("driver_id", hold.DriverID.String()),
	)
	return hold, nil
}

// ChargeCancellationFee records a late-cancel fee. The driver receives the
// full fee as a settlement-eligible earning.
func (s *RidePaymentService) ChargeCancellationFee(ctx context.Context, req CancellationFeeRequest) (*ledger.FinancialEvent, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ride_payment", "cancellation_fee")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRideID, req.RideID.String(),
		telemetry.SpanAttrAmount, req.Fee.String(),
	)

	if !req.Fee.IsPositive() {
		err := shared.NewDomainError("INVALID_AMOUNT", "Cancellation fee must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var earning *ledger.FinancialEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.EventRepo().FindByRideAndType(ctx, req.RideID, ledger.EventTypeCancellationFee)
		if err != nil {
			return fmt.Errorf("failed to check for existing fee: %w", err)
		}
		if existing != nil {
			// The fee and its earning are created in the same transaction,
			// so a recorded fee always has a matching earning to return.
			earning, err = repos.EventRepo().FindByRideAndType(ctx, req.RideID, ledger.EventTypeRideEarning)
			if err != nil {
				return fmt.Errorf("failed to load fee earning: %w", err)
			}
			if earning == nil {
				return fmt.Errorf("earning for ride %s: %w", req.RideID, shared.ErrNotFound)
			}
			return nil
		}

		charge, err := ledger.NewFinancialEvent(
			ledger.EventTypeCancellationFee,
			req.Fee.Negate(),
			"Cancellation fee",
		)
		if err != nil {
			return err
		}
		charge.WithPassenger(req.PassengerID).WithRide(req.RideID)
		if err := charge.Complete(); err != nil {
			return err
		}
		if err := repos.EventRepo().Create(ctx, charge); err != nil {
			return fmt.Errorf("failed to create fee event: %w", err)
		}

		earning, err = ledger.NewFinancialEvent(
			ledger.EventTypeRideEarning,
			req.Fee,
			"Cancellation fee earning",
		)
		if err != nil {
			return err
		}
		earning.WithDriver(req.DriverID).WithRide(req.RideID).
			WithMetadata("source", "cancellation_fee")
		if err := earning.Complete(); err != nil {
			return err
		}
		if err := repos.EventRepo().Create(ctx, earning); err != nil {
			return fmt.Errorf("failed to create earning event: %w", err)
		}

		driverCode := ledger.DriverLiabilityCode(req.DriverID)
		_, err = s.posting.PostIn(ctx, repos, PostingRequest{
			Lines: []ledger.EntryLine{
				{
					AccountCode:   ledger.CodePassengerClear,
					EntryType:     ledger.EntryTypeDebit,
					Amount:        req.Fee.Amount(),
					Description:   "Cancellation fee receivable",
					ReferenceType: ledger.ReferenceTypeRide,
					ReferenceID:   req.RideID,
				},
				{
					AccountCode:   driverCode,
					EntryType:     ledger.EntryTypeCredit,
					Amount:        req.Fee.Amount(),
					Description:   "Cancellation fee to driver",
					ReferenceType: ledger.ReferenceTypeRide,
					ReferenceID:   req.RideID,
				},
			},
			EnsureAccounts: []AccountDef{
				{Code: driverCode, Name: fmt.Sprintf("Driver %s payable", req.DriverID), Type: ledger.AccountTypeLiability},
				{Code: ledger.CodePassengerClear, Name: "Passenger clearing", Type: ledger.AccountTypeAsset},
			},
		})
		if err != nil {
			return err
		}

		if _, err := s.settlementService.HoldForIn(ctx, repos, earning); err != nil {
			return err
		}

		_, err = s.walletService.RefreshIn(ctx, repos, req.DriverID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return earning, nil
}
