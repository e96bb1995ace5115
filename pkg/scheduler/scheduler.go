package scheduler

import (
	"context"
	"time"

	"github.com/cuidador-digital/backend/internal/service"

	"github.com/sirupsen/logrus"
)

// Scheduler drives the two periodic scans: due reminders every scan
// interval and escalation checks on their own, slower tick.
type Scheduler struct {
	reminderService    service.ReminderService
	escalationService  service.EscalationService
	scanInterval       time.Duration
	escalationInterval time.Duration
}

func NewScheduler(
	reminderService service.ReminderService,
	escalationService service.EscalationService,
	scanInterval time.Duration,
	escalationInterval time.Duration,
) *Scheduler {
	return &Scheduler{
		reminderService:    reminderService,
		escalationService:  escalationService,
		scanInterval:       scanInterval,
		escalationInterval: escalationInterval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	scanTicker := time.NewTicker(s.scanInterval)
	defer scanTicker.Stop()
	escalationTicker := time.NewTicker(s.escalationInterval)
	defer escalationTicker.Stop()

	logrus.Infof("Scheduler started: due scan every %s, escalation scan every %s",
		s.scanInterval, s.escalationInterval)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Scheduler stopped")
			return
		case <-scanTicker.C:
			if _, err := s.reminderService.RunDueScan(ctx); err != nil {
				logrus.Errorf("Due-reminder scan failed: %v", err)
			}
		case <-escalationTicker.C:
			if _, err := s.escalationService.RunEscalationScan(ctx); err != nil {
				logrus.Errorf("Escalation scan failed: %v", err)
			}
		}
	}
}
