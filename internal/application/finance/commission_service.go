package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/incentive"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCommissionRate is the platform's base cut: 20%
var DefaultCommissionRate = decimal.NewFromFloat(0.20)

// CommissionBreakdown is the exact split of one gross fare.
// DriverShare + PlatformShare always equals Gross to the cent: the platform
// share is rounded to currency precision and the driver gets the remainder.
type CommissionBreakdown struct {
	Gross         valueobject.Money
	DriverShare   valueobject.Money
	PlatformShare valueobject.Money
	Rate          decimal.Decimal
}

// CommissionService computes the platform/driver split of a fare, applying
// any active commission discount campaign for the driver.
type CommissionService struct {
	baseRate     decimal.Decimal
	campaignRepo incentive.CampaignRepository
	logger       *zap.Logger
}

// NewCommissionService creates a new CommissionService. campaignRepo may be
// nil; the base rate then always applies.
func NewCommissionService(baseRate decimal.Decimal, campaignRepo incentive.CampaignRepository, logger *zap.Logger) *CommissionService {
	if baseRate.IsZero() {
		baseRate = DefaultCommissionRate
	}
	return &CommissionService{
		baseRate:     baseRate,
		campaignRepo: campaignRepo,
		logger:       logger,
	}
}

// EffectiveRate returns the commission rate for a driver at a point in time.
// The largest discount among active COMMISSION_DISCOUNT campaigns is
// subtracted from the base rate, floored at zero.
func (s *CommissionService) EffectiveRate(ctx context.Context, driverID uuid.UUID, now time.Time) decimal.Decimal {
	rate := s.baseRate

	if s.campaignRepo != nil {
		campaigns, err := s.campaignRepo.FindActiveByType(ctx, incentive.CampaignTypeCommissionDiscount, now)
		if err != nil {
			s.logger.Warn("Commission discount lookup failed, using base rate",
				zap.String("driver_id", driverID.String()),
				zap.Error(err),
			)
			return rate
		}

		discount := decimal.Zero
		for _, c := range campaigns {
			if c.Rules.DiscountRate.GreaterThan(discount) {
				discount = c.Rules.DiscountRate
			}
		}
		rate = rate.Sub(discount)
		if rate.IsNegative() {
			rate = decimal.Zero
		}
	}

	return rate
}

// Split divides a gross fare between driver and platform
func (s *CommissionService) Split(ctx context.Context, gross valueobject.Money, driverID uuid.UUID, now time.Time) (CommissionBreakdown, error) {
	if !gross.IsPositive() {
		return CommissionBreakdown{}, shared.NewDomainError("INVALID_AMOUNT", "Fare must be positive")
	}

	rate := s.EffectiveRate(ctx, driverID, now)

	platformShare := gross.Multiply(rate).RoundCurrency()
	driverShare, err := gross.Subtract(platformShare)
	if err != nil {
		return CommissionBreakdown{}, err
	}

	return CommissionBreakdown{
		Gross:         gross,
		DriverShare:   driverShare,
		PlatformShare: platformShare,
		Rate:          rate,
	}, nil
}
