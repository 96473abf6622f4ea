package daemon

import (
	"context"
	"runtime/debug"
	"ser2sockd/internal/global"
	"ser2sockd/internal/logctx"
	"ser2sockd/internal/metrics"
	"time"
)

// Anything that can report its own metrics
type Collector interface {
	CollectMetrics(interval time.Duration) []metrics.Metric
}

// Periodically gathers component metrics into the registry
type Gatherer struct {
	Registry   *metrics.Registry
	Collectors []Collector
	Interval   time.Duration
	Retention  time.Duration
}

func NewGatherer(interval time.Duration, maximumMetricAge time.Duration, collectors ...Collector) (new *Gatherer) {
	new = &Gatherer{
		Registry:   metrics.New(),
		Collectors: collectors,
		Interval:   interval,
		Retention:  maximumMetricAge,
	}
	return
}

func (gatherer *Gatherer) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSMetric)

	// Track last run times for each interval
	lastRun := time.Now()

	ticker := time.NewTicker(gatherer.Interval / 2) // Use polling interval half of desired record interval
	defer ticker.Stop()

	// Counter to track how many ticks have passed (for retention)
	var tickCount int

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Sub(lastRun) >= gatherer.Interval {
				timeSlice := gatherer.Registry.NewTimeSlice(now, gatherer.Interval)

				lastRun = now
				gatherer.collect(ctx, timeSlice)
			}

			// Conduct old metric evaluations and cleanup
			tickCount++
			if tickCount >= 30 {
				gatherer.Registry.Prune(now, gatherer.Retention)
				tickCount = 0
			}
		}
	}
}

// Reads every collector into one time slice
func (gatherer *Gatherer) collect(ctx context.Context, timeSlice time.Time) {
	// Record panics and continue on next interval
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in metric collector thread: %v\n%s", fatalError, stack)
		}
	}()

	for _, collector := range gatherer.Collectors {
		gatherer.Registry.Add(timeSlice, collector.CollectMetrics(gatherer.Interval))
	}
}
