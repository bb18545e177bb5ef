package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRetentionScheduler prunes stale daily action counters in the
// background. Old rows never affect cap decisions (the date key rolls over
// at midnight UTC), so the sweep only bounds table growth.
func (s *ProgressionService) StartRetentionScheduler(retentionDays int) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			deleted, err := s.PruneDailyCounts(retentionDays)
			if err != nil {
				log.Printf("[Retention] prune failed: %v", err)
				return
			}
			if deleted > 0 {
				log.Printf("🧹 Pruned %d daily action counter(s) older than %d days", deleted, retentionDays)
			}
		}),
	)
}
