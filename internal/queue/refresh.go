package queue

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"bedflow-backend/internal/store"
)

// Refresher periodically recomputes the estimator's average turnover
// duration from recently completed cycles.
type Refresher struct {
	store     *store.Store
	estimator *Estimator
	interval  time.Duration
	sample    int
	log       *logrus.Entry
}

// NewRefresher creates a refresher updating est every interval from the
// newest sample completed turnovers.
func NewRefresher(s *store.Store, est *Estimator, interval time.Duration, sample int, log *logrus.Entry) *Refresher {
	return &Refresher{
		store:     s,
		estimator: est,
		interval:  interval,
		sample:    sample,
		log:       log,
	}
}

// Run refreshes once immediately, then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshOnce(ctx)

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("estimator refresher shutting down")
			return
		case <-timer.C:
			r.RefreshOnce(ctx)
			timer.Reset(r.interval)
		}
	}
}

// RefreshOnce recomputes the rolling average. With no completed turnovers
// yet, the configured default stays in place.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	durations, err := store.CompletedTurnoverDurations(r.store.DB().WithContext(ctx), r.sample)
	if err != nil {
		r.log.WithError(err).Warn("failed to refresh average turnover duration")
		return
	}
	if len(durations) == 0 {
		return
	}

	var sum float64
	for _, d := range durations {
		sum += d
	}
	avg := sum / float64(len(durations))
	r.estimator.setAverage(avg)
	r.log.WithFields(logrus.Fields{
		"sample":      len(durations),
		"avg_minutes": avg,
	}).Debug("refreshed average turnover duration")
}
