package handler

import (
	"time"

	incentiveapp "github.com/ridehail/backend/internal/application/incentive"
	"github.com/ridehail/backend/internal/domain/incentive"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
	"github.com/ridehail/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CampaignHandler handles incentive campaign API endpoints
type CampaignHandler struct {
	BaseHandler
	incentiveService *incentiveapp.Service
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(incentiveService *incentiveapp.Service) *CampaignHandler {
	return &CampaignHandler{
		incentiveService: incentiveService,
	}
}

// ===================== Request/Response DTOs =====================

// CampaignRulesRequest represents campaign parameterization
//
//	@Description	Per-type campaign rules
type CampaignRulesRequest struct {
	TargetCount  int     `json:"target_count,omitempty" example:"50"`
	RewardAmount float64 `json:"reward_amount,omitempty" example:"200.00"`
	DiscountRate float64 `json:"discount_rate,omitempty" example:"0.05"`
}

// CreateCampaignRequest represents a campaign to create
//
//	@Description	Request body for creating an incentive campaign
type CreateCampaignRequest struct {
	Name        string               `json:"name" binding:"required" example:"September ride challenge"`
	Description string               `json:"description" example:"Complete 50 rides in September"`
	Type        string               `json:"type" binding:"required,oneof=BONUS_PER_RIDE TARGET_RIDE_COUNT COMMISSION_DISCOUNT" example:"TARGET_RIDE_COUNT"`
	Rules       CampaignRulesRequest `json:"rules" binding:"required"`
	StartDate   string               `json:"start_date" binding:"required" example:"2026-09-01T00:00:00Z"`
	EndDate     string               `json:"end_date" binding:"required" example:"2026-09-30T23:59:59Z"`
}

// GrantCreditRequest represents a usage credit grant
//
//	@Description	Request body for granting free usage credit
type GrantCreditRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0" example:"20.00"`
	Reason string  `json:"reason" binding:"required" example:"Referral reward"`
}

// CampaignResponse represents a campaign in API responses
//
//	@Description	Campaign response
type CampaignResponse struct {
	ID          string               `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string               `json:"name" example:"September ride challenge"`
	Description string               `json:"description,omitempty"`
	Type        string               `json:"type" example:"TARGET_RIDE_COUNT"`
	Rules       CampaignRulesRequest `json:"rules"`
	StartDate   time.Time            `json:"start_date"`
	EndDate     time.Time            `json:"end_date"`
	Enabled     bool                 `json:"enabled" example:"true"`
	CreatedAt   time.Time            `json:"created_at"`
}

// DriverIncentiveResponse represents a driver's campaign progress
//
//	@Description	Driver incentive progress response
type DriverIncentiveResponse struct {
	ID           string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CampaignID   string     `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	DriverID     string     `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	CurrentValue int        `json:"current_value" example:"32"`
	TargetValue  int        `json:"target_value" example:"50"`
	RewardAmount float64    `json:"reward_amount" example:"200.00"`
	Achieved     bool       `json:"achieved" example:"false"`
	AchievedAt   *time.Time `json:"achieved_at,omitempty"`
	Paid         bool       `json:"paid" example:"false"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}

// ===================== Handler Methods =====================

// CreateCampaign godoc
//
//	@ID				createCampaign
//	@Summary		Create an incentive campaign
//	@Description	Creates and enables a new driver incentive campaign
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateCampaignRequest	true	"Campaign"
//	@Success		201		{object}	APIResponse[CampaignResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		h.BadRequest(c, "Invalid start_date format. Expected RFC3339")
		return
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		h.BadRequest(c, "Invalid end_date format. Expected RFC3339")
		return
	}

	campaign, err := h.incentiveService.CreateCampaign(c.Request.Context(), incentiveapp.CreateCampaignRequest{
		Name:        req.Name,
		Description: req.Description,
		Type:        incentive.CampaignType(req.Type),
		Rules: incentive.Rules{
			TargetCount:  req.Rules.TargetCount,
			RewardAmount: decimal.NewFromFloat(req.Rules.RewardAmount),
			DiscountRate: decimal.NewFromFloat(req.Rules.DiscountRate),
		},
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toCampaignResponse(campaign))
}

// GetCampaign godoc
//
//	@ID				getCampaign
//	@Summary		Get a campaign
//	@Description	Returns a campaign by ID
//	@Tags			campaigns
//	@Produce		json
//	@Param			id	path		string	true	"Campaign ID"
//	@Success		200	{object}	APIResponse[CampaignResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	campaign, err := h.incentiveService.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCampaignResponse(campaign))
}

// ListCampaigns godoc
//
//	@ID				listCampaigns
//	@Summary		List campaigns
//	@Description	Returns campaigns, newest start date first
//	@Tags			campaigns
//	@Produce		json
//	@Param			page		query		int	false	"Page number"	default(1)
//	@Param			page_size	query		int	false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]CampaignResponse]
//	@Router			/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := toDomainFilter(listReq)
	campaigns, total, err := h.incentiveService.ListCampaigns(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		responses[i] = toCampaignResponse(&campaigns[i])
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// DisableCampaign godoc
//
//	@ID				disableCampaign
//	@Summary		Disable a campaign
//	@Description	Turns a campaign off immediately. Existing progress is kept but no longer advances.
//	@Tags			campaigns
//	@Produce		json
//	@Param			id	path	string	true	"Campaign ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/campaigns/{id}/disable [post]
func (h *CampaignHandler) DisableCampaign(c *gin.Context) {
	campaignID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid campaign ID")
		return
	}

	if err := h.incentiveService.DisableCampaign(c.Request.Context(), campaignID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetDriverProgress godoc
//
//	@ID				getDriverIncentiveProgress
//	@Summary		Get driver incentive progress
//	@Description	Returns the driver's progress trackers across campaigns
//	@Tags			campaigns
//	@Produce		json
//	@Param			driverID	path		string	true	"Driver ID"
//	@Success		200			{object}	APIResponse[[]DriverIncentiveResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/incentives [get]
func (h *CampaignHandler) GetDriverProgress(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	trackers, err := h.incentiveService.GetDriverProgress(c.Request.Context(), driverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]DriverIncentiveResponse, len(trackers))
	for i := range trackers {
		responses[i] = toDriverIncentiveResponse(&trackers[i])
	}

	h.Success(c, responses)
}

// PayReward godoc
//
//	@ID				payIncentiveReward
//	@Summary		Pay an incentive reward
//	@Description	Pays out an achieved target incentive into the driver's ledger. Safe to retry.
//	@Tags			campaigns
//	@Produce		json
//	@Param			id	path	string	true	"Incentive ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/incentives/{id}/pay [post]
func (h *CampaignHandler) PayReward(c *gin.Context) {
	incentiveID, err := getPathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid incentive ID")
		return
	}

	if err := h.incentiveService.PayReward(c.Request.Context(), incentiveID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GrantCredit godoc
//
//	@ID				grantDriverCredit
//	@Summary		Grant usage credit
//	@Description	Grants non-withdrawable free usage credit to a driver
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Param			driverID	path		string				true	"Driver ID"
//	@Param			request		body		GrantCreditRequest	true	"Credit grant"
//	@Success		201			{object}	APIResponse[EventResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/credits [post]
func (h *CampaignHandler) GrantCredit(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	var req GrantCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	event, err := h.incentiveService.GrantCredit(c.Request.Context(), driverID,
		valueobject.NewMoneyBRLFromFloat(req.Amount), req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toEventResponse(event))
}

// ===================== Response Conversion Functions =====================

func toCampaignResponse(campaign *incentive.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:          campaign.ID.String(),
		Name:        campaign.Name,
		Description: campaign.Description,
		Type:        string(campaign.Type),
		Rules: CampaignRulesRequest{
			TargetCount:  campaign.Rules.TargetCount,
			RewardAmount: campaign.Rules.RewardAmount.InexactFloat64(),
			DiscountRate: campaign.Rules.DiscountRate.InexactFloat64(),
		},
		StartDate: campaign.StartDate,
		EndDate:   campaign.EndDate,
		Enabled:   campaign.Enabled,
		CreatedAt: campaign.CreatedAt,
	}
}

func toDriverIncentiveResponse(t *incentive.DriverIncentive) DriverIncentiveResponse {
	return DriverIncentiveResponse{
		ID:           t.ID.String(),
		CampaignID:   t.CampaignID.String(),
		DriverID:     t.DriverID.String(),
		CurrentValue: t.CurrentValue,
		TargetValue:  t.TargetValue,
		RewardAmount: t.RewardAmount.InexactFloat64(),
		Achieved:     t.Achieved,
		AchievedAt:   t.AchievedAt,
		Paid:         t.Paid,
		PaidAt:       t.PaidAt,
	}
}
