package geocoding

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler runs SweepAll periodically.
type Scheduler struct {
	service  *Service
	interval time.Duration
}

func NewScheduler(service *Service, interval time.Duration) *Scheduler {
	return &Scheduler{service: service, interval: interval}
}

// Run blocks until ctx is cancelled. A non-positive interval disables the sweeps.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		logrus.Info("Geocoding sweeps disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, summary := range s.service.SweepAll(ctx) {
				logrus.WithFields(logrus.Fields{
					"model":     summary.Model,
					"processed": summary.Processed,
					"located":   summary.Located,
					"failed":    summary.Failed,
				}).Info("Geocoding sweep finished")
			}
		case <-ctx.Done():
			return
		}
	}
}
