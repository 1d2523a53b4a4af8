package jobs

import (
	"time"

	"editais-platform/internal/logger"

	"github.com/go-co-op/gocron"
)

// Scheduler runs the nightly scrape of every registered source at
// 01:00 UTC.
type Scheduler struct {
	cron   *gocron.Scheduler
	runner *Runner
}

func NewScheduler(runner *Runner) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.TagsUnique()
	return &Scheduler{cron: cron, runner: runner}
}

func (s *Scheduler) Start() error {
	for _, source := range s.runner.registry.Names() {
		source := source
		_, err := s.cron.Cron("0 1 * * *").
			Tag(source + "_daily_scraping").
			Do(func() { s.runner.RunScheduled(source) })
		if err != nil {
			return err
		}
	}

	s.cron.StartAsync()
	logger.Info("Scheduler started", "sources", len(s.runner.registry.Names()), "schedule", "01:00 UTC")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Info("Scheduler stopped")
}
