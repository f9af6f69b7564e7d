package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const probeTimeout = 5 * time.Second

// HealthProbe reports whether a dependency is reachable
type HealthProbe func(ctx context.Context) error

// HealthStatus is the last probe result
type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// CronService runs the database health probe on a schedule
type CronService struct {
	cron   *cron.Cron
	probe  HealthProbe
	logger *slog.Logger

	mu     sync.RWMutex
	status HealthStatus
}

// NewCronService creates a cron service. schedule accepts standard cron
// expressions and descriptors such as "@every 1m".
func NewCronService(probe HealthProbe, schedule string, logger *slog.Logger) (*CronService, error) {
	s := &CronService{
		cron:   cron.New(),
		probe:  probe,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.Check(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid health schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs one probe immediately and then follows the schedule
func (s *CronService) Start() {
	s.Check(context.Background())
	s.cron.Start()
	s.logger.Info("cron service started")
}

// Stop stops the scheduler and waits for a running probe to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron service stopped")
}

// Check runs the probe once and records the result
func (s *CronService) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := HealthStatus{Healthy: true, CheckedAt: time.Now()}
	if err := s.probe(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
		s.logger.Warn("database health check failed", "error", err)
	}

	s.mu.Lock()
	prev := s.status
	s.status = status
	s.mu.Unlock()

	if status.Healthy && !prev.Healthy && !prev.CheckedAt.IsZero() {
		s.logger.Info("database health recovered")
	}
	return status
}

// Status returns the last recorded probe result
func (s *CronService) Status() HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
