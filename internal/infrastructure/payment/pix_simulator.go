package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/payout"
)

// PixSimulator is an in-process payment rail for development and testing.
// It remembers idempotency keys so a resent transfer returns the original
// transaction id, matching how the real provider deduplicates.
type PixSimulator struct {
	delay       time.Duration
	failureRate float64

	mu   sync.Mutex
	rng  *rand.Rand
	seen map[string]string // idempotency key -> provider transaction id
}

// PixSimulatorOption configures the simulator
type PixSimulatorOption func(*PixSimulator)

// WithDelay adds artificial latency per transfer
func WithDelay(d time.Duration) PixSimulatorOption {
	return func(s *PixSimulator) {
		s.delay = d
	}
}

// WithFailureRate injects random transfer failures (0.0-1.0)
func WithFailureRate(rate float64) PixSimulatorOption {
	return func(s *PixSimulator) {
		s.failureRate = rate
	}
}

// WithSeed fixes the random seed for deterministic tests
func WithSeed(seed int64) PixSimulatorOption {
	return func(s *PixSimulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// NewPixSimulator creates a new simulated Pix rail
func NewPixSimulator(opts ...PixSimulatorOption) *PixSimulator {
	s := &PixSimulator{
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		seen: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the provider
func (s *PixSimulator) Name() string {
	return "pix-simulator"
}

// SendTransfer simulates one transfer
func (s *PixSimulator) SendTransfer(ctx context.Context, req payout.TransferRequest) (payout.TransferResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return payout.TransferResult{}, ctx.Err()
		}
	}

	if req.PixKey == "" {
		return payout.TransferResult{}, fmt.Errorf("pix-simulator: transfer rejected (INVALID_KEY): pix key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replays return the original confirmation
	if txID, ok := s.seen[req.IdempotencyKey]; ok {
		return payout.TransferResult{
			ProviderTransactionID: txID,
			RawResponse:           `{"status":"COMPLETED","replay":true}`,
		}, nil
	}

	if s.failureRate > 0 && s.rng.Float64() < s.failureRate {
		return payout.TransferResult{}, fmt.Errorf("pix-simulator: transfer rejected (RAIL_UNAVAILABLE): injected failure")
	}

	txID := "sim-" + uuid.NewString()
	s.seen[req.IdempotencyKey] = txID

	return payout.TransferResult{
		ProviderTransactionID: txID,
		RawResponse:           `{"status":"COMPLETED"}`,
	}, nil
}

// Ensure PixSimulator implements Gateway
var _ payout.Gateway = (*PixSimulator)(nil)
