// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the in-process maintenance jobs: expiring stale streaks and
// flipping scheduled competitions to active once their window opens.
type Scheduler struct {
	XP           *XPService
	Competitions *CompetitionService
}

func NewScheduler(xp *XPService, competitions *CompetitionService) *Scheduler {
	return &Scheduler{XP: xp, Competitions: competitions}
}

func (s *Scheduler) Start() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 10 minutes: reset streaks whose deadline passed
	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			expired, err := s.XP.ExpireStaleStreaks(time.Now().UTC())
			if err != nil {
				log.Printf("[Scheduler] Streak expiry error: %v", err)
				return
			}
			if expired > 0 {
				log.Printf("🔥 Expired %d stale streaks", expired)
			}
		}),
	)

	// Every minute: activate competitions whose start date arrived
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			activated, err := s.Competitions.ActivateScheduled(time.Now().UTC())
			if err != nil {
				log.Printf("[Scheduler] Competition activation error: %v", err)
				return
			}
			if activated > 0 {
				log.Printf("✅ Activated %d competitions", activated)
			}
		}),
	)
}
