package dashboard

import (
	"context"
	"log"
	"time"
)

// Scheduler periodically re-fetches the active city so a long-lived
// dashboard keeps moving and alerts can clear.
type Scheduler struct {
	controller *Controller
	interval   time.Duration
}

func NewScheduler(c *Controller, interval time.Duration) *Scheduler {
	return &Scheduler{controller: c, interval: interval}
}

func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Println("scheduler: refresh disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

func (s *Scheduler) refresh() {
	if err := s.controller.Refresh(); err != nil {
		log.Printf("scheduler: refresh: %v", err)
	}
}
