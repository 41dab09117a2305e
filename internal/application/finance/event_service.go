package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CreateEventRequest describes one new financial event
type CreateEventRequest struct {
	EventType             ledger.EventType
	Amount                valueobject.Money
	Description           string
	DriverID              *uuid.UUID
	PassengerID           *uuid.UUID
	RideID                *uuid.UUID
	ExternalTransactionID string
	Metadata              map[string]string
}

// AdjustmentRequest describes a manual operator adjustment
type AdjustmentRequest struct {
	DriverID    uuid.UUID
	Amount      valueobject.Money // positive; direction comes from Debit
	Debit       bool              // true: ADJUSTMENT_DEBIT, false: ADJUSTMENT_CREDIT
	Description string
	OperatorRef string
}

// EventService owns the financial event log: creation, lifecycle
// transitions, reversals, adjustments, and history reads.
type EventService struct {
	scope             TransactionScope
	posting           *PostingService
	settlementService *SettlementService
	walletService     *WalletService
	logger            *zap.Logger
}

// NewEventService creates a new EventService
func NewEventService(scope TransactionScope, posting *PostingService, settlementService *SettlementService, walletService *WalletService, logger *zap.Logger) *EventService {
	return &EventService{
		scope:             scope,
		posting:           posting,
		settlementService: settlementService,
		walletService:     walletService,
		logger:            logger,
	}
}

func buildEvent(req CreateEventRequest) (*ledger.FinancialEvent, error) {
	event, err := ledger.NewFinancialEvent(req.EventType, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}
	if req.DriverID != nil {
		event.WithDriver(*req.DriverID)
	}
	if req.PassengerID != nil {
		event.WithPassenger(*req.PassengerID)
	}
	if req.RideID != nil {
		event.WithRide(*req.RideID)
	}
	if req.ExternalTransactionID != "" {
		event.WithExternalTransactionID(req.ExternalTransactionID)
	}
	for k, v := range req.Metadata {
		event.WithMetadata(k, v)
	}
	return event, nil
}

// CreateEvent appends a PENDING event to the log
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*ledger.FinancialEvent, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "event", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEventType, string(req.EventType),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	event, err := buildEvent(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.EventRepo().Create(ctx, event)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("Financial event created",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType.String()),
		zap.String("amount", event.Amount.String()),
	)

	return event, nil
}

// CompleteEvent transitions an event to COMPLETED. Completing a
// settlement-eligible event also schedules its D+N hold and refreshes the
// driver's wallet, all in one transaction.
func (s *EventService) CompleteEvent(ctx context.Context, eventID uuid.UUID) (*ledger.FinancialEvent, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "event", "complete")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrEventID, eventID.String())

	var event *ledger.FinancialEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		event, err = repos.EventRepo().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}
		if event == nil {
			return fmt.Errorf("event %s: %w", eventID, shared.ErrNotFound)
		}

		if err := event.Complete(); err != nil {
			return err
		}
		if err := repos.EventRepo().Save(ctx, event); err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}

		if _, err := s.settlementService.HoldForIn(ctx, repos, event); err != nil {
			return err
		}

		if event.DriverID != nil {
			if _, err := s.walletService.RefreshIn(ctx, repos, *event.DriverID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Financial event completed",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType.String()),
	)

	return event, nil
}

// FailEvent transitions an event to FAILED with a reason
func (s *EventService) FailEvent(ctx context.Context, eventID uuid.UUID, reason string) (*ledger.FinancialEvent, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "event", "fail")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrEventID, eventID.String())

	var event *ledger.FinancialEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		event, err = repos.EventRepo().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}
		if event == nil {
			return fmt.Errorf("event %s: %w", eventID, shared.ErrNotFound)
		}

		if err := event.Fail(reason); err != nil {
			return err
		}
		if err := repos.EventRepo().Save(ctx, event); err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}

		if event.DriverID != nil {
			if _, err := s.walletService.RefreshIn(ctx, repos, *event.DriverID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return event, nil
}

// ReverseEvent creates the offsetting REVERSAL event for a COMPLETED event
// and posts the compensating journal entries for the original's footprint.
// The original is never mutated beyond the link; a PENDING settlement on it
// is cancelled in the same transaction.
func (s *EventService) ReverseEvent(ctx context.Context, eventID uuid.UUID, reason string) (*ledger.FinancialEvent, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "event", "reverse")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrEventID, eventID.String())

	var reversal *ledger.FinancialEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.EventRepo().FindByIDForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}
		if original == nil {
			return fmt.Errorf("event %s: %w", eventID, shared.ErrNotFound)
		}

		reversal, err = original.BuildReversal(reason)
		if err != nil {
			return err
		}

		if err := repos.EventRepo().Create(ctx, reversal); err != nil {
			return fmt.Errorf("failed to create reversal: %w", err)
		}
		if err := repos.EventRepo().Save(ctx, original); err != nil {
			return fmt.Errorf("failed to link original: %w", err)
		}

		if err := s.compensateIn(ctx, repos, original, reversal); err != nil {
			return err
		}

		if err := s.settlementService.CancelForEventIn(ctx, repos, original.ID, time.Now()); err != nil {
			return err
		}

		if original.DriverID != nil {
			if _, err := s.walletService.RefreshIn(ctx, repos, *original.DriverID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Financial event reversed",
		zap.String("event_id", eventID.String()),
		zap.String("reversal_id", reversal.ID.String()),
		zap.String("reason", reason),
	)

	return reversal, nil
}

// compensateIn posts the journal offset for a reversed event so account
// balances keep tracking the event log. Entries posted under the original
// event's own reference are inverted line by line; ride-linked earnings and
// commission move the subject's share back into passenger clearing. Events
// with no journal footprint post nothing: manual adjustments never post at
// creation, passenger-side charges live entirely in clearing, and payout
// compensation is owned by the payout service.
func (s *EventService) compensateIn(ctx context.Context, repos TransactionalRepositories, original, reversal *ledger.FinancialEvent) error {
	posted, err := repos.JournalRepo().FindByReference(ctx, ledger.ReferenceTypeFinancialEvent, original.ID)
	if err != nil {
		return fmt.Errorf("failed to load entries for reversal: %w", err)
	}

	var lines []ledger.EntryLine
	switch {
	case len(posted) > 0:
		lines = invertEntries(posted, reversal.ID)
	case original.RideID != nil:
		lines = rideReversalLines(original, reversal.ID)
	}
	if len(lines) == 0 {
		return nil
	}

	_, err = s.posting.PostIn(ctx, repos, PostingRequest{Lines: lines})
	return err
}

func invertEntries(posted []ledger.JournalEntry, reversalID uuid.UUID) []ledger.EntryLine {
	lines := make([]ledger.EntryLine, 0, len(posted))
	for i := range posted {
		entry := &posted[i]
		side := ledger.EntryTypeDebit
		if entry.EntryType == ledger.EntryTypeDebit {
			side = ledger.EntryTypeCredit
		}
		lines = append(lines, ledger.EntryLine{
			AccountCode:   entry.AccountCode,
			EntryType:     side,
			Amount:        entry.Amount,
			Description:   "Reversal: " + entry.Description,
			ReferenceType: ledger.ReferenceTypeFinancialEvent,
			ReferenceID:   reversalID,
		})
	}
	return lines
}

// rideReversalLines rebuilds the one-sided ride footprint of an event, the
// driver share or the platform commission, offset against passenger clearing
// where the disputed fare is owed back.
func rideReversalLines(original *ledger.FinancialEvent, reversalID uuid.UUID) []ledger.EntryLine {
	var code string
	switch {
	case original.DriverID != nil:
		code = ledger.DriverLiabilityCode(*original.DriverID)
	case original.EventType == ledger.EventTypePlatformCommission:
		code = ledger.CodePlatformRevenue
	default:
		return nil
	}

	amount := original.Amount.Abs()
	if amount.IsZero() {
		return nil
	}
	subjectSide, clearingSide := ledger.EntryTypeDebit, ledger.EntryTypeCredit
	if original.Amount.IsNegative() {
		subjectSide, clearingSide = ledger.EntryTypeCredit, ledger.EntryTypeDebit
	}

	description := "Reversal: " + original.Description
	return []ledger.EntryLine{
		{
			AccountCode:   code,
			EntryType:     subjectSide,
			Amount:        amount,
			Description:   description,
			ReferenceType: ledger.ReferenceTypeFinancialEvent,
			ReferenceID:   reversalID,
		},
		{
			AccountCode:   ledger.CodePassengerClear,
			EntryType:     clearingSide,
			Amount:        amount,
			Description:   description,
			ReferenceType: ledger.ReferenceTypeFinancialEvent,
			ReferenceID:   reversalID,
		},
	}
}

// ApplyAdjustment records a manual operator adjustment as a COMPLETED event.
// Credits are settlement-eligible and get a D+N hold like any earning.
func (s *EventService) ApplyAdjustment(ctx context.Context, req AdjustmentRequest) (*ledger.FinancialEvent, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "event", "adjust")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, req.DriverID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if !req.Amount.IsPositive() {
		err := shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	eventType := ledger.EventTypeAdjustmentCredit
	amount := req.Amount
	if req.Debit {
		eventType = ledger.EventTypeAdjustmentDebit
		amount = req.Amount.Negate()
	}

	event, err := ledger.NewFinancialEvent(eventType, amount, req.Description)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	event.WithDriver(req.DriverID)
	if req.OperatorRef != "" {
		event.WithMetadata("operator_ref", req.OperatorRef)
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := event.Complete(); err != nil {
			return err
		}
		if err := repos.EventRepo().Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create adjustment: %w", err)
		}
		if _, err := s.settlementService.HoldForIn(ctx, repos, event); err != nil {
			return err
		}
		_, err := s.walletService.RefreshIn(ctx, repos, req.DriverID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Adjustment applied",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType.String()),
		zap.String("driver_id", req.DriverID.String()),
		zap.String("amount", event.Amount.String()),
	)

	return event, nil
}

// GetDriverHistory lists a driver's events with filtering and a total count
func (s *EventService) GetDriverHistory(ctx context.Context, driverID uuid.UUID, filter ledger.FinancialEventFilter) ([]ledger.FinancialEvent, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "event", "driver_history")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrDriverID, driverID.String())

	var events []ledger.FinancialEvent
	var total int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		events, total, err = repos.EventRepo().FindByDriver(ctx, driverID, filter)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}
	return events, total, nil
}

// GetEvent loads one event by id
func (s *EventService) GetEvent(ctx context.Context, eventID uuid.UUID) (*ledger.FinancialEvent, error) {
	var event *ledger.FinancialEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		event, err = repos.EventRepo().FindByID(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, shared.ErrNotFound)
	}
	return event, nil
}
