package worker

import (
	"context"
	"time"

	"github.com/cuidador-digital/backend/internal/service"
	"github.com/cuidador-digital/backend/pkg/clock"

	"github.com/sirupsen/logrus"
)

// DailyReportWorker fires the adherence summary once per local day at
// the configured hour. It checks every minute and remembers the last
// day it ran, so a tick landing a few seconds late still fires and a
// restart later the same day does not fire twice within one process.
type DailyReportWorker struct {
	reportService service.ReportService
	clk           clock.Clock
	hour          int
	minute        int

	lastRunDay string
}

func NewDailyReportWorker(reportService service.ReportService, clk clock.Clock, hour, minute int) *DailyReportWorker {
	return &DailyReportWorker{
		reportService: reportService,
		clk:           clk,
		hour:          hour,
		minute:        minute,
	}
}

func (w *DailyReportWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	logrus.Infof("Daily report worker started, firing at %02d:%02d local time", w.hour, w.minute)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Daily report worker stopped")
			return
		case <-ticker.C:
			w.maybeRun(ctx)
		}
	}
}

func (w *DailyReportWorker) maybeRun(ctx context.Context) {
	now := w.clk.Now()
	if now.Hour() != w.hour || now.Minute() != w.minute {
		return
	}

	day := now.Format("2006-01-02")
	if day == w.lastRunDay {
		return
	}
	w.lastRunDay = day

	sent, err := w.reportService.RunDailyReport(ctx)
	if err != nil {
		logrus.Errorf("Daily report run failed: %v", err)
		return
	}
	logrus.Infof("Daily report run completed: %d summaries sent", sent)
}
