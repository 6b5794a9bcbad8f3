package queue

import (
	"math"
	"sync/atomic"
)

// Estimator projects how long a queued patient will wait from their position
// and the average turnover duration. The average starts at the configured
// constant and is replaced by a rolling average of completed turnovers by
// the background refresher.
type Estimator struct {
	avgMinutesBits atomic.Uint64
}

// NewEstimator creates an estimator seeded with the configured average.
func NewEstimator(defaultMinutes int) *Estimator {
	e := &Estimator{}
	e.setAverage(float64(defaultMinutes))
	return e
}

// Estimate returns the projected wait in minutes for the given queue
// position: every patient ahead costs one average turnover. Never negative.
func (e *Estimator) Estimate(queuePosition int) float64 {
	ahead := float64(queuePosition - 1)
	if ahead < 0 {
		ahead = 0
	}
	return ahead * e.AverageTurnoverMinutes()
}

// AverageTurnoverMinutes returns the current average turnover duration.
func (e *Estimator) AverageTurnoverMinutes() float64 {
	return math.Float64frombits(e.avgMinutesBits.Load())
}

func (e *Estimator) setAverage(minutes float64) {
	if minutes <= 0 {
		return
	}
	e.avgMinutesBits.Store(math.Float64bits(minutes))
}
