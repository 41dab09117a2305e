package handler

import (
	financeapp "github.com/ridehail/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// AuditHandler handles ledger integrity API endpoints
type AuditHandler struct {
	BaseHandler
	integrityService *financeapp.IntegrityService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(integrityService *financeapp.IntegrityService) *AuditHandler {
	return &AuditHandler{
		integrityService: integrityService,
	}
}

// ===================== Request/Response DTOs =====================

// AuditReportResponse represents a ledger integrity run
//
//	@Description	Ledger audit report response
type AuditReportResponse struct {
	Clean               bool                              `json:"clean" example:"true"`
	TransactionsChecked int                               `json:"transactions_checked" example:"1240"`
	AccountsChecked     int                               `json:"accounts_checked" example:"6"`
	Imbalances          []financeapp.TransactionImbalance `json:"imbalances"`
	Mismatches          []financeapp.AccountMismatch      `json:"mismatches"`
}

// ===================== Handler Methods =====================

// RunAudit godoc
//
//	@ID				runLedgerAudit
//	@Summary		Run a ledger integrity audit
//	@Description	Replays the journal and verifies that every transaction balances and every cached account balance matches the replayed sum
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	APIResponse[AuditReportResponse]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/admin/ledger/audit [post]
func (h *AuditHandler) RunAudit(c *gin.Context) {
	report, err := h.integrityService.Audit(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, AuditReportResponse{
		Clean:               report.Clean(),
		TransactionsChecked: report.TransactionsChecked,
		AccountsChecked:     report.AccountsChecked,
		Imbalances:          report.Imbalances,
		Mismatches:          report.Mismatches,
	})
}
