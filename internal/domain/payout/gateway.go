package payout

import (
	"context"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
)

// TransferRequest is the instruction sent to the payment rail
type TransferRequest struct {
	PayoutID       uuid.UUID
	Amount         valueobject.Money
	PixKey         string
	IdempotencyKey string
}

// TransferResult is the rail's confirmation of a transfer
type TransferResult struct {
	ProviderTransactionID string
	RawResponse           string
}

// Gateway is the port to the external payment rail. Implementations must be
// safe to call outside a database transaction; callers never hold row locks
// across a rail call.
type Gateway interface {
	// SendTransfer executes one transfer. An error means the transfer did
	// not happen and the reservation must be compensated.
	SendTransfer(ctx context.Context, req TransferRequest) (TransferResult, error)

	// Name identifies the provider, e.g. "efi"
	Name() string
}
