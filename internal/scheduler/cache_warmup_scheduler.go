package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const warmupTimeout = 2 * time.Minute

// CacheWarmupScheduler reloads the export cache on a cron schedule so the
// first client request after an expiry or a deploy is served warm.
type CacheWarmupScheduler struct {
	cron     *cron.Cron
	warmer   service.CacheWarmer
	spec     string
	mu       sync.Mutex
	running  bool
	lastRun  time.Time
	runCount int
}

// NewCacheWarmupScheduler builds a scheduler for a standard five-field cron
// expression such as "*/15 * * * *".
func NewCacheWarmupScheduler(warmer service.CacheWarmer, spec string) *CacheWarmupScheduler {
	return &CacheWarmupScheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		warmer: warmer,
		spec:   spec,
	}
}

// Start registers the warm-up job and starts the cron loop. An empty spec
// disables the scheduler.
func (s *CacheWarmupScheduler) Start() error {
	if s.spec == "" {
		logger.Info("Cache warm-up scheduler disabled", nil)
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for cache warm-up", err, map[string]interface{}{
			"schedule": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cache warm-up scheduler started", map[string]interface{}{
		"schedule": s.spec,
	})
	return nil
}

// RunOnce performs a single warm-up pass. Overlapping calls are skipped.
func (s *CacheWarmupScheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Debug("Cache warm-up already running, skipping", nil)
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRun = time.Now()
		s.runCount++
		s.mu.Unlock()
	}()

	logger.Info("Starting scheduled cache warm-up", nil)
	if _, err := s.warmer.WarmUp(ctx); err != nil {
		logger.Error("Scheduled cache warm-up failed", err)
	}
}

// Runs reports how many passes have completed.
func (s *CacheWarmupScheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCount
}

// Stop waits for a running job to finish.
func (s *CacheWarmupScheduler) Stop() {
	logger.Info("Stopping cache warm-up scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Cache warm-up scheduler stopped", nil)
}
