package incentive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/application/finance"
	"github.com/ridehail/backend/internal/domain/incentive"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/ridehail/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateCampaignRequest describes a new incentive campaign
type CreateCampaignRequest struct {
	Name        string
	Description string
	Type        incentive.CampaignType
	Rules       incentive.Rules
	StartDate   time.Time
	EndDate     time.Time
}

// Service runs the incentive programs: campaign administration, per-ride
// progress tracking, and reward payouts into the ledger.
type Service struct {
	campaignRepo  incentive.CampaignRepository
	incentiveRepo incentive.DriverIncentiveRepository
	metricRepo    incentive.DriverMetricRepository
	scope         finance.TransactionScope
	posting       *finance.PostingService
	settlement    *finance.SettlementService
	wallet        *finance.WalletService
	logger        *zap.Logger
}

// NewService creates a new incentive Service
func NewService(
	campaignRepo incentive.CampaignRepository,
	incentiveRepo incentive.DriverIncentiveRepository,
	metricRepo incentive.DriverMetricRepository,
	scope finance.TransactionScope,
	posting *finance.PostingService,
	settlement *finance.SettlementService,
	wallet *finance.WalletService,
	logger *zap.Logger,
) *Service {
	return &Service{
		campaignRepo:  campaignRepo,
		incentiveRepo: incentiveRepo,
		metricRepo:    metricRepo,
		scope:         scope,
		posting:       posting,
		settlement:    settlement,
		wallet:        wallet,
		logger:        logger,
	}
}

// CreateCampaign creates and enables a new campaign
func (s *Service) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*incentive.Campaign, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "incentive", "create_campaign")
	defer span.End()

	c, err := incentive.NewCampaign(req.Name, req.Type, req.Rules, req.StartDate, req.EndDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	c.Description = req.Description

	if err := s.campaignRepo.Create(ctx, c); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.logger.Info("Campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("name", c.Name),
		zap.String("type", c.Type.String()),
	)

	return c, nil
}

// GetCampaign loads one campaign by id
func (s *Service) GetCampaign(ctx context.Context, campaignID uuid.UUID) (*incentive.Campaign, error) {
	c, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, shared.ErrNotFound)
	}
	return c, nil
}

// ListCampaigns lists campaigns with filtering
func (s *Service) ListCampaigns(ctx context.Context, filter shared.Filter) ([]incentive.Campaign, int64, error) {
	return s.campaignRepo.FindAll(ctx, filter)
}

// DisableCampaign turns a campaign off immediately
func (s *Service) DisableCampaign(ctx context.Context, campaignID uuid.UUID) error {
	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	c.Disable()
	if err := s.campaignRepo.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}

	s.logger.Info("Campaign disabled", zap.String("campaign_id", campaignID.String()))
	return nil
}

// GetDriverProgress lists a driver's campaign trackers
func (s *Service) GetDriverProgress(ctx context.Context, driverID uuid.UUID) ([]incentive.DriverIncentive, error) {
	return s.incentiveRepo.FindByDriver(ctx, driverID)
}

// TrackRideCompleted records one completed ride against the driver's daily
// metrics and every active campaign. Bonuses that fall due are paid into the
// ledger right away.
func (s *Service) TrackRideCompleted(ctx context.Context, driverID, rideID uuid.UUID, earnings valueobject.Money, at time.Time) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "incentive", "track_ride")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, driverID.String(),
		telemetry.SpanAttrRideID, rideID.String(),
	)

	if err := s.recordMetric(ctx, driverID, earnings, at); err != nil {
		// Metrics are advisory; campaign progress still counts
		s.logger.Warn("Failed to record driver metric",
			zap.String("driver_id", driverID.String()),
			zap.Error(err),
		)
	}

	campaigns, err := s.campaignRepo.FindActive(ctx, at)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to list active campaigns: %w", err)
	}

	for i := range campaigns {
		c := &campaigns[i]
		switch c.Type {
		case incentive.CampaignTypeBonusPerRide:
			if err := s.payPerRideBonus(ctx, c, driverID, rideID, at); err != nil {
				s.logger.Error("Failed to pay per-ride bonus",
					zap.String("campaign_id", c.ID.String()),
					zap.String("ride_id", rideID.String()),
					zap.Error(err),
				)
			}
		case incentive.CampaignTypeTargetRideCount:
			if err := s.advanceTarget(ctx, c, driverID, at); err != nil {
				s.logger.Error("Failed to advance target campaign",
					zap.String("campaign_id", c.ID.String()),
					zap.String("driver_id", driverID.String()),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

func (s *Service) recordMetric(ctx context.Context, driverID uuid.UUID, earnings valueobject.Money, at time.Time) error {
	day := incentive.MetricDay(at)
	m, err := s.metricRepo.FindByDriverAndDate(ctx, driverID, day)
	if err != nil {
		return err
	}
	created := false
	if m == nil {
		m, err = incentive.NewDriverMetric(driverID, day)
		if err != nil {
			return err
		}
		created = true
	}

	// Ride distance is not part of the settlement payload yet
	m.RecordCompleted(earnings.Amount(), decimal.Zero)

	if created {
		return s.metricRepo.Create(ctx, m)
	}
	return s.metricRepo.Save(ctx, m)
}

func (s *Service) advanceTarget(ctx context.Context, c *incentive.Campaign, driverID uuid.UUID, at time.Time) error {
	tracker, err := s.incentiveRepo.FindByCampaignAndDriver(ctx, c.ID, driverID)
	if err != nil {
		return err
	}
	created := false
	if tracker == nil {
		tracker, err = incentive.NewDriverIncentive(c, driverID)
		if err != nil {
			return err
		}
		created = true
	}

	achieved := tracker.RecordProgress(at)

	if created {
		if err := s.incentiveRepo.Create(ctx, tracker); err != nil {
			return err
		}
	} else if err := s.incentiveRepo.Save(ctx, tracker); err != nil {
		return err
	}

	if achieved {
		s.logger.Info("Incentive target reached",
			zap.String("campaign_id", c.ID.String()),
			zap.String("driver_id", driverID.String()),
			zap.Int("target", tracker.TargetValue),
		)
		return s.PayReward(ctx, tracker.ID)
	}
	return nil
}

func (s *Service) payPerRideBonus(ctx context.Context, c *incentive.Campaign, driverID, rideID uuid.UUID, at time.Time) error {
	correlation := fmt.Sprintf("bonus:%s:%s", c.ID, rideID)
	amount := valueobject.NewMoneyBRL(c.Rules.RewardAmount)
	description := fmt.Sprintf("Per-ride bonus: %s", c.Name)
	return s.creditBonus(ctx, driverID, amount, description, correlation, map[string]string{
		"campaign_id": c.ID.String(),
		"ride_id":     rideID.String(),
	})
}

// PayReward pays out an achieved target incentive. Re-driving the call is
// safe: the INCENTIVE_BONUS event's correlation id is checked before any
// money moves, and MarkPaid rejects a second payment.
func (s *Service) PayReward(ctx context.Context, incentiveID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "incentive", "pay_reward")
	defer span.End()

	tracker, err := s.findTracker(ctx, incentiveID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if tracker.Paid {
		return nil
	}
	if !tracker.Achieved {
		return shared.NewDomainError("INVALID_STATE", "Cannot pay an unachieved incentive")
	}

	correlation := fmt.Sprintf("incentive:%s", tracker.ID)
	amount := valueobject.NewMoneyBRL(tracker.RewardAmount)
	err = s.creditBonus(ctx, tracker.DriverID, amount, "Incentive target reward", correlation, map[string]string{
		"campaign_id":  tracker.CampaignID.String(),
		"incentive_id": tracker.ID.String(),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if err := tracker.MarkPaid(time.Now()); err != nil {
		return err
	}
	return s.incentiveRepo.Save(ctx, tracker)
}

// GrantCredit grants non-cash free usage credit to a driver. Credit shows in
// the wallet's credit balance and is never withdrawable.
func (s *Service) GrantCredit(ctx context.Context, driverID uuid.UUID, amount valueobject.Money, reason string) (*ledger.FinancialEvent, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "incentive", "grant_credit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, driverID.String(),
		telemetry.SpanAttrAmount, amount.String(),
	)

	if !amount.IsPositive() {
		err := shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	event, err := ledger.NewFinancialEvent(ledger.EventTypeIncentiveCredit, amount, reason)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	event.WithDriver(driverID)

	err = s.scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
		if err := event.Complete(); err != nil {
			return err
		}
		if err := repos.EventRepo().Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create credit event: %w", err)
		}
		_, err := s.wallet.RefreshIn(ctx, repos, driverID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Usage credit granted",
		zap.String("driver_id", driverID.String()),
		zap.String("amount", amount.String()),
	)

	return event, nil
}

// creditBonus writes one cash bonus into the ledger: the INCENTIVE_BONUS
// event, the expense posting, the settlement hold, and the wallet refresh,
// all in one transaction. The correlation id makes the write idempotent.
func (s *Service) creditBonus(ctx context.Context, driverID uuid.UUID, amount valueobject.Money, description, correlation string, metadata map[string]string) error {
	return s.scope.Execute(ctx, func(repos finance.TransactionalRepositories) error {
		existing, err := repos.EventRepo().FindByExternalTransactionID(ctx, correlation)
		if err != nil {
			return fmt.Errorf("failed to check bonus correlation: %w", err)
		}
		if existing != nil {
			return nil
		}

		event, err := ledger.NewFinancialEvent(ledger.EventTypeIncentiveBonus, amount, description)
		if err != nil {
			return err
		}
		event.WithDriver(driverID).WithExternalTransactionID(correlation)
		for k, v := range metadata {
			event.WithMetadata(k, v)
		}
		if err := event.Complete(); err != nil {
			return err
		}
		if err := repos.EventRepo().Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create bonus event: %w", err)
		}

		driverCode := ledger.DriverLiabilityCode(driverID)
		_, err = s.posting.PostIn(ctx, repos, finance.PostingRequest{
			Lines: []ledger.EntryLine{
				{
					AccountCode:   incentive.CodeIncentiveExpense,
					EntryType:     ledger.EntryTypeDebit,
					Amount:        amount.Amount(),
					Description:   description,
					ReferenceType: ledger.ReferenceTypeFinancialEvent,
					ReferenceID:   event.ID,
				},
				{
					AccountCode:   driverCode,
					EntryType:     ledger.EntryTypeCredit,
					Amount:        amount.Amount(),
					Description:   description,
					ReferenceType: ledger.ReferenceTypeFinancialEvent,
					ReferenceID:   event.ID,
				},
			},
			EnsureAccounts: []finance.AccountDef{
				{Code: incentive.CodeIncentiveExpense, Name: "Incentive expense", Type: ledger.AccountTypeExpense},
				{Code: driverCode, Name: fmt.Sprintf("Driver %s payable", driverID), Type: ledger.AccountTypeLiability},
			},
		})
		if err != nil {
			return err
		}

		if _, err := s.settlement.HoldForIn(ctx, repos, event); err != nil {
			return err
		}

		_, err = s.wallet.RefreshIn(ctx, repos, driverID)
		return err
	})
}

func (s *Service) findTracker(ctx context.Context, incentiveID uuid.UUID) (*incentive.DriverIncentive, error) {
	tracker, err := s.incentiveRepo.FindByID(ctx, incentiveID)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		return nil, fmt.Errorf("incentive %s: %w", incentiveID, shared.ErrNotFound)
	}
	return tracker, nil
}
