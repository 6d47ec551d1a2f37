// Package scheduler runs the periodic ledger sweeps.
package scheduler

import (
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Job is a periodic task
type Job interface {
	Name() string
	Definition() gocron.JobDefinition
	Execute()
}

// Manager owns the gocron scheduler and its jobs
type Manager struct {
	scheduler gocron.Scheduler
	log       *zap.SugaredLogger
}

// NewManager creates a Manager
func NewManager(log *zap.SugaredLogger) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Manager{scheduler: s, log: log.Named("scheduler")}, nil
}

// Register adds job. A run that overlaps the previous one is rescheduled, not stacked.
func (m *Manager) Register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.Definition(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	m.log.Infow("job registered", "job", job.Name())
	return nil
}

// Start starts the scheduler
func (m *Manager) Start() {
	m.scheduler.Start()
	m.log.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down and waits for running jobs
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		m.log.Errorw("failed to shutdown scheduler", "error", err)
		return
	}
	m.log.Infow("scheduler stopped")
}
