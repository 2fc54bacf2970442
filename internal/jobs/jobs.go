// Package jobs runs periodic maintenance tasks in the background.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pot-code/brain-trails/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Task one run of a periodic job
type Task func(ctx context.Context) error

// Scheduler wraps gocron, every job runs in singleton mode with its own logger in ctx
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Register schedule task every interval, a non-positive interval disables the job
func (s *Scheduler) Register(name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		s.logger.Info("job disabled", zap.String("job.name", name))
		return nil
	}
	logger := s.logger.With(zap.String("job.name", name))
	_, err := s.scheduler.Every(interval).SingletonMode().Tag(name).Do(func() {
		ctx := logging.SetLoggerInContext(context.Background(), logger)
		start := time.Now()
		if err := task(ctx); err != nil {
			logger.Error("job failed", zap.Error(err))
			return
		}
		logger.Debug("job finished", zap.Duration("job.time", time.Since(start)))
	})
	if err != nil {
		return err
	}
	logger.Info("job registered", zap.Duration("job.interval", interval))
	return nil
}

// Len number of registered jobs
func (s *Scheduler) Len() int {
	return s.scheduler.Len()
}

// Start run jobs in the background, each fires once right away
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// StaleSessionSweeper closes study sessions left open
func StaleSessionSweeper(closeStale func(ctx context.Context) (int, error)) Task {
	return func(ctx context.Context) error {
		n, err := closeStale(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logging.ExtractLoggerFromContext(ctx).Info("closed stale sessions", zap.Int("session.count", n))
		}
		return nil
	}
}
