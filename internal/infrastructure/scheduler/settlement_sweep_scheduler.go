package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ridehail/backend/internal/application/finance"
	"go.uber.org/zap"
)

var (
	// ErrSchedulerNotRunning is returned when triggering a run on a stopped scheduler.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when the sweep interval is not positive.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// SettlementSweepScheduler periodically releases settlements whose hold
// period has passed, moving held driver earnings into available balance.
type SettlementSweepScheduler struct {
	service   *finance.SettlementService
	logger    *zap.Logger
	config    SettlementSweepConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// SettlementSweepConfig holds configuration for the settlement sweep
type SettlementSweepConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval is how often due settlements are released
	Interval time.Duration

	// SweepTimeout is the maximum time for one sweep run
	SweepTimeout time.Duration
}

// DefaultSettlementSweepConfig returns default configuration
func DefaultSettlementSweepConfig() SettlementSweepConfig {
	return SettlementSweepConfig{
		Enabled:      true,
		Interval:     5 * time.Minute,
		SweepTimeout: 2 * time.Minute,
	}
}

// NewSettlementSweepScheduler creates a new settlement sweep scheduler
func NewSettlementSweepScheduler(
	service *finance.SettlementService,
	logger *zap.Logger,
	config SettlementSweepConfig,
) *SettlementSweepScheduler {
	return &SettlementSweepScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the settlement sweep scheduler
func (s *SettlementSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Settlement sweep scheduler is disabled")
		return nil
	}
	if s.config.Interval <= 0 {
		s.mu.Unlock()
		return ErrInvalidConfig
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweepLoop(ctx)

	s.logger.Info("Settlement sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SettlementSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Settlement sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Settlement sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// runSweepLoop releases due settlements on every tick
func (s *SettlementSweepScheduler) runSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Settlement sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs one release pass over due settlements
func (s *SettlementSweepScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	released, err := s.service.ReleaseDue(sweepCtx, time.Now())
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Settlement sweep failed",
			zap.Duration("duration", duration),
			zap.Int("released", released),
			zap.Error(err),
		)
		return
	}

	if released > 0 {
		s.logger.Info("Settlement sweep completed",
			zap.Duration("duration", duration),
			zap.Int("released", released),
		)
	} else {
		s.logger.Debug("Settlement sweep found nothing due",
			zap.Duration("duration", duration),
		)
	}
}

// TriggerImmediateSweep triggers an immediate release run
func (s *SettlementSweepScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate settlement sweep")

	// Run in a goroutine to not block
	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *SettlementSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
