package uploader

import (
	"sync"
	"time"
)

// progressCeiling is the highest value the estimator may report on its own.
// Only the orchestrator snaps progress to 100, once the real response lands.
const progressCeiling = 90

// Estimator produces a synthetic, monotonically increasing progress sequence
// while the real request is outstanding. The transport gives no native
// progress events, so this is purely cosmetic.
type Estimator struct {
	step     int
	interval time.Duration
}

func NewEstimator(step int, interval time.Duration) *Estimator {
	if step <= 0 {
		step = 10
	}
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	return &Estimator{step: step, interval: interval}
}

// Start begins ticking progress values into tick, starting above 0 and capping
// at the ceiling. The returned stop function cancels the ticker and is safe to
// call more than once.
func (e *Estimator) Start(tick func(progress int)) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		t := time.NewTicker(e.interval)
		defer t.Stop()
		current := 0
		for {
			select {
			case <-done:
				return
			case <-t.C:
				current += e.step
				if current > progressCeiling {
					current = progressCeiling
				}
				tick(current)
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
