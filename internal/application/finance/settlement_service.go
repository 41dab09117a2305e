package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/settlement"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	// DefaultSettlementDays is the D+N offset for releasing earnings
	DefaultSettlementDays = 1

	// DefaultSweepBatchSize bounds one sweep pass
	DefaultSweepBatchSize = 500
)

// SettlementService schedules and releases D+N holds on earning events
type SettlementService struct {
	scope          TransactionScope
	walletService  *WalletService
	settlementDays int
	sweepBatch     int
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(scope TransactionScope, walletService *WalletService, settlementDays int, logger *zap.Logger) *SettlementService {
	if settlementDays <= 0 {
		settlementDays = DefaultSettlementDays
	}
	return &SettlementService{
		scope:          scope,
		walletService:  walletService,
		settlementDays: settlementDays,
		sweepBatch:     DefaultSweepBatchSize,
		logger:         logger,
	}
}

// SetSweepBatchSize bounds how many settlements one sweep pass releases.
// Non-positive values keep the current bound.
func (s *SettlementService) SetSweepBatchSize(n int) {
	if n > 0 {
		s.sweepBatch = n
	}
}

// HoldForIn schedules a hold for a completed earning event inside an open
// transaction. The call is idempotent: a second call for the same event, an
// ineligible event type, or a non-completed event all return (nil, nil).
func (s *SettlementService) HoldForIn(ctx context.Context, repos TransactionalRepositories, event *ledger.FinancialEvent) (*settlement.Settlement, error) {
	if !event.EventType.IsSettlementEligible() {
		return nil, nil
	}
	if event.Status != ledger.EventStatusCompleted {
		return nil, nil
	}
	if event.DriverID == nil {
		return nil, nil
	}
	if !event.Amount.IsPositive() {
		return nil, nil
	}

	existing, err := repos.SettlementRepo().FindByFinancialEventID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing settlement: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	hold, err := settlement.NewSettlement(event.ID, *event.DriverID, event.GetAmountMoney(), event.CreatedAt, s.settlementDays)
	if err != nil {
		return nil, err
	}

	if err := repos.SettlementRepo().Create(ctx, hold); err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	s.logger.Info("Settlement hold scheduled",
		zap.String("settlement_id", hold.ID.String()),
		zap.String("event_id", event.ID.String()),
		zap.String("driver_id", event.DriverID.String()),
		zap.String("amount", hold.Amount.String()),
		zap.Time("scheduled_for", hold.ScheduledFor),
	)

	return hold, nil
}

// HoldFor schedules a hold in its own transaction and refreshes the wallet
func (s *SettlementService) HoldFor(ctx context.Context, eventID uuid.UUID) (*settlement.Settlement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "hold_for")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrEventID, eventID.String())

	var hold *settlement.Settlement
	var driverID *uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		event, err := repos.EventRepo().FindByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load event: %w", err)
		}
		if event == nil {
			return fmt.Errorf("event %s: %w", eventID, shared.ErrNotFound)
		}
		driverID = event.DriverID

		hold, err = s.HoldForIn(ctx, repos, event)
		if err != nil {
			return err
		}
		if hold != nil && driverID != nil {
			if _, err := s.walletService.RefreshIn(ctx, repos, *driverID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return hold, nil
}

// ReleaseDue releases every PENDING settlement past its release date and
// refreshes the wallets of the affected drivers. Each settlement is released
// in its own transaction so one failure does not poison the sweep.
func (s *SettlementService) ReleaseDue(ctx context.Context, now time.Time) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "release_due")
	defer span.End()

	var due []settlement.Settlement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		due, err = repos.SettlementRepo().FindDue(ctx, now, s.sweepBatch)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to list due settlements: %w", err)
	}

	released := 0
	drivers := make(map[uuid.UUID]bool)
	for i := range due {
		id := due[i].ID
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			current, err := repos.SettlementRepo().FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if current == nil || current.Status != settlement.StatusPending {
				return nil
			}
			if err := current.Release(now); err != nil {
				return err
			}
			if err := repos.SettlementRepo().Save(ctx, current); err != nil {
				return err
			}
			released++
			drivers[current.DriverID] = true
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to release settlement",
				zap.String("settlement_id", id.String()),
				zap.Error(err),
			)
		}
	}

	for driverID := range drivers {
		if _, err := s.walletService.Refresh(ctx, driverID); err != nil {
			s.logger.Error("Failed to refresh wallet after release",
				zap.String("driver_id", driverID.String()),
				zap.Error(err),
			)
		}
	}

	if released > 0 {
		s.logger.Info("Released due settlements", zap.Int("count", released))
	}
	telemetry.SetAttribute(span, "released_count", released)

	return released, nil
}

// ReleaseNow releases one settlement immediately, e.g. for cash rides where
// the driver already holds the money. Releasing an already released
// settlement is a no-op.
func (s *SettlementService) ReleaseNow(ctx context.Context, settlementID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "release_now")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrSettlementID, settlementID.String())

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.SettlementRepo().FindByIDForUpdate(ctx, settlementID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("settlement %s: %w", settlementID, shared.ErrNotFound)
		}
		if err := current.Release(time.Now()); err != nil {
			return err
		}
		if err := repos.SettlementRepo().Save(ctx, current); err != nil {
			return err
		}
		_, err = s.walletService.RefreshIn(ctx, repos, current.DriverID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// CancelForEventIn cancels the PENDING hold on an event inside an open
// transaction, used when the event is reversed before release. A missing or
// already-terminal hold is a no-op.
func (s *SettlementService) CancelForEventIn(ctx context.Context, repos TransactionalRepositories, eventID uuid.UUID, now time.Time) error {
	hold, err := repos.SettlementRepo().FindByFinancialEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to look up settlement: %w", err)
	}
	if hold == nil || hold.Status != settlement.StatusPending {
		return nil
	}

	if err := hold.Cancel(now); err != nil {
		return err
	}
	if err := repos.SettlementRepo().Save(ctx, hold); err != nil {
		return fmt.Errorf("failed to save cancelled settlement: %w", err)
	}

	s.logger.Info("Settlement hold cancelled",
		zap.String("settlement_id", hold.ID.String()),
		zap.String("event_id", eventID.String()),
	)
	return nil
}
