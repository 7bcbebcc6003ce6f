package workers

import (
	"context"
	"time"

	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/services"
)

// RunJanitor evicts finished search runs after the retention window, so the
// registry does not grow without bound.
type RunJanitor struct {
	recommendations services.RecommendationService
	retention       time.Duration
	interval        time.Duration
}

func NewRunJanitor(recommendations services.RecommendationService, retention time.Duration) *RunJanitor {
	interval := retention / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return &RunJanitor{
		recommendations: recommendations,
		retention:       retention,
		interval:        interval,
	}
}

func (w *RunJanitor) Start(ctx context.Context) {
	go w.pruneLoop(ctx)
}

func (w *RunJanitor) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("run_janitor", "stopped", nil)
			return
		case <-ticker.C:
			if pruned := w.recommendations.PruneFinishedRuns(w.retention); pruned > 0 {
				logger.Info("pruned finished search runs", "worker", "run_janitor", "count", pruned)
			}
		}
	}
}
