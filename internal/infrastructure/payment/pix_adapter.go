package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ridehail/backend/internal/domain/payout"
)

const pixTransferPath = "/v2/pix/transfers"

// PixAdapter implements payout.Gateway against an HTTP Pix transfer API.
// The provider deduplicates on the idempotency key, so resending a transfer
// after a crash returns the original result instead of moving money twice.
type PixAdapter struct {
	config     *PixConfig
	httpClient *http.Client
}

// NewPixAdapter creates a new Pix adapter
func NewPixAdapter(config *PixConfig) (*PixAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &PixAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}, nil
}

// Name identifies the provider
func (a *PixAdapter) Name() string {
	return "pix"
}

// pixTransferRequest is the provider's wire format for a transfer
type pixTransferRequest struct {
	ExternalID string `json:"external_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	PixKey     string `json:"pix_key"`
}

// pixTransferResponse is the provider's wire format for a confirmation
type pixTransferResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ErrorCode     string `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// SendTransfer executes one transfer through the provider API
func (a *PixAdapter) SendTransfer(ctx context.Context, req payout.TransferRequest) (payout.TransferResult, error) {
	body := pixTransferRequest{
		ExternalID: req.PayoutID.String(),
		Amount:     req.Amount.StringFixed(2),
		Currency:   string(req.Amount.Currency()),
		PixKey:     req.PixKey,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return payout.TransferResult{}, fmt.Errorf("pix: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+pixTransferPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return payout.TransferResult{}, fmt.Errorf("pix: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return payout.TransferResult{}, fmt.Errorf("pix: transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return payout.TransferResult{}, fmt.Errorf("pix: failed to read response: %w", err)
	}

	var respData pixTransferResponse
	if err := json.Unmarshal(respBytes, &respData); err != nil {
		return payout.TransferResult{}, fmt.Errorf("pix: failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if respData.ErrorMessage != "" {
			return payout.TransferResult{}, fmt.Errorf("pix: transfer rejected (%s): %s", respData.ErrorCode, respData.ErrorMessage)
		}
		return payout.TransferResult{}, fmt.Errorf("pix: transfer rejected with status %d", resp.StatusCode)
	}

	if respData.TransactionID == "" {
		return payout.TransferResult{}, fmt.Errorf("pix: provider returned no transaction id")
	}

	return payout.TransferResult{
		ProviderTransactionID: respData.TransactionID,
		RawResponse:           string(respBytes),
	}, nil
}

// Ensure PixAdapter implements Gateway
var _ payout.Gateway = (*PixAdapter)(nil)
