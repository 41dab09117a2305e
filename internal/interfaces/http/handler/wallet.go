package handler

import (
	"time"

	financeapp "github.com/ridehail/backend/internal/application/finance"
	"github.com/ridehail/backend/internal/domain/wallet"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WalletHandler handles driver wallet API endpoints
type WalletHandler struct {
	BaseHandler
	walletService *financeapp.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *financeapp.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// ===================== Request/Response DTOs =====================

// WalletResponse represents a driver wallet snapshot
//
//	@Description	Driver wallet balance snapshot
type WalletResponse struct {
	ID                string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	DriverID          string    `json:"driver_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	TotalBalance      float64   `json:"total_balance" example:"1250.00"`
	HeldBalance       float64   `json:"held_balance" example:"85.50"`
	BlockedBalance    float64   `json:"blocked_balance" example:"0.00"`
	AvailableBalance  float64   `json:"available_balance" example:"1164.50"`
	CreditBalance     float64   `json:"credit_balance" example:"15.00"`
	NegativeAvailable bool      `json:"negative_available" example:"false"`
	MinimumWithdrawal float64   `json:"minimum_withdrawal" example:"50.00"`
	TotalEarned       float64   `json:"total_earned" example:"8420.75"`
	TotalWithdrawn    float64   `json:"total_withdrawn" example:"7100.00"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SetBlockedBalanceRequest represents a dispute hold update
//
//	@Description	Blocked balance update for an open dispute
type SetBlockedBalanceRequest struct {
	BlockedAmount float64 `json:"blocked_amount" binding:"gte=0" example:"30.00"`
}

// ===================== Handler Methods =====================

// GetWallet godoc
//
//	@ID				getDriverWallet
//	@Summary		Get driver wallet
//	@Description	Returns the driver's wallet snapshot, refreshed from the ledger
//	@Tags			wallets
//	@Produce		json
//	@Param			driverID	path		string	true	"Driver ID"
//	@Success		200			{object}	APIResponse[WalletResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	w, err := h.walletService.GetWallet(c.Request.Context(), driverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toWalletResponse(w))
}

// RefreshWallet godoc
//
//	@ID				refreshDriverWallet
//	@Summary		Refresh driver wallet
//	@Description	Recomputes the wallet snapshot from the event log and persists it
//	@Tags			wallets
//	@Produce		json
//	@Param			driverID	path		string	true	"Driver ID"
//	@Success		200			{object}	APIResponse[WalletResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/wallet/refresh [post]
func (h *WalletHandler) RefreshWallet(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	w, err := h.walletService.Refresh(c.Request.Context(), driverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toWalletResponse(w))
}

// SetBlockedBalance godoc
//
//	@ID				setDriverBlockedBalance
//	@Summary		Set blocked balance
//	@Description	Records the dispute-blocked amount for a driver and refreshes the snapshot
//	@Tags			wallets
//	@Accept			json
//	@Produce		json
//	@Param			driverID	path		string						true	"Driver ID"
//	@Param			request		body		SetBlockedBalanceRequest	true	"Blocked amount"
//	@Success		200			{object}	APIResponse[WalletResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/drivers/{driverID}/wallet/blocked [put]
func (h *WalletHandler) SetBlockedBalance(c *gin.Context) {
	driverID, err := getDriverID(c)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID")
		return
	}

	var req SetBlockedBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	w, err := h.walletService.SetBlocked(c.Request.Context(), driverID, decimal.NewFromFloat(req.BlockedAmount))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toWalletResponse(w))
}

// ===================== Response Conversion Functions =====================

func toWalletResponse(w *wallet.DriverWallet) WalletResponse {
	return WalletResponse{
		ID:                w.ID.String(),
		DriverID:          w.DriverID.String(),
		TotalBalance:      w.TotalBalance.InexactFloat64(),
		HeldBalance:       w.HeldBalance.InexactFloat64(),
		BlockedBalance:    w.BlockedBalance.InexactFloat64(),
		AvailableBalance:  w.AvailableBalance.InexactFloat64(),
		CreditBalance:     w.CreditBalance.InexactFloat64(),
		NegativeAvailable: w.NegativeAvailable,
		MinimumWithdrawal: w.MinimumWithdrawal.InexactFloat64(),
		TotalEarned:       w.TotalEarned.InexactFloat64(),
		TotalWithdrawn:    w.TotalWithdrawn.InexactFloat64(),
		UpdatedAt:         w.UpdatedAt,
	}
}
