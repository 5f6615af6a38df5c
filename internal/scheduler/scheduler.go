package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/config"
)

// ReportGenerator renders the periodic summary.
type ReportGenerator interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// Sender delivers a text message.
type Sender interface {
	SendOutbound(ctx context.Context, to, body string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	reports   ReportGenerator
	sender    Sender
	recipient string
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler registers the weekly spend report on the configured schedule and
// timezone. The report goes to recipient.
func NewScheduler(cfg config.ReportingConfig, reports ReportGenerator, sender Sender, recipient string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reports:   reports,
		sender:    sender,
		recipient: recipient,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.CronSchedule, s.sendWeeklyReport); err != nil {
		return nil, fmt.Errorf("schedule weekly report %q: %w", cfg.CronSchedule, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	s.logger.Info("generating weekly report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reports.GenerateWeeklyReport(ctx, s.now().In(s.location))
	if err != nil {
		s.logger.Error("failed to generate weekly report", zap.Error(err))
		return
	}

	if err := s.sender.SendOutbound(ctx, s.recipient, report); err != nil {
		s.logger.Error("failed to send weekly report", zap.Error(err))
		return
	}
	s.logger.Info("weekly report sent successfully")
}
