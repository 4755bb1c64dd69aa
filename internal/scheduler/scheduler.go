package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/aurorawatch/aurora-forecast/internal/aurora"
)

// Warmer periodically refreshes the short-TTL NOAA datasets so interactive
// requests mostly hit warm cache entries. A failed warm is logged and left to
// the next tick.
type Warmer struct {
	scheduler *gocron.Scheduler
	service   *aurora.Service
	interval  time.Duration
}

// New creates a Warmer. An interval of zero disables it.
func New(service *aurora.Service, interval time.Duration) *Warmer {
	s := gocron.NewScheduler(time.UTC)
	return &Warmer{
		scheduler: s,
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic warm job and starts the underlying scheduler.
func (w *Warmer) Start() error {
	if w.interval <= 0 {
		log.Println("scheduler: warm interval disabled; nothing to schedule")
		return nil
	}

	seconds := int(w.interval.Seconds())
	if seconds <= 0 {
		seconds = int((5 * time.Minute).Seconds())
	}

	_, err := w.scheduler.Every(seconds).Seconds().Do(func() {
		log.Println("scheduler: warming NOAA dataset caches")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := w.service.AuroraGrid(ctx); err != nil {
			log.Printf("scheduler: aurora grid warm failed: %v", err)
		}
		if _, err := w.service.KpSeries(ctx); err != nil {
			log.Printf("scheduler: kp index warm failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (w *Warmer) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}
