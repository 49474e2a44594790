package jobsys

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// schedulerMetrics mirrors PerformanceStats/WorkerStats as Prometheus
// collectors, registered against Config.MetricsRegistry when one is
// supplied. Grounded on
// other_examples/e6e8be8c_catherinevee-driftmgr__internal-performance-parallel_processor.go.go's
// SchedulerMetrics/ProcessorMetrics, which instruments an almost identical
// work-stealing processor with promauto-registered counters/gauges/
// histograms (see SPEC_FULL.md §4).
type schedulerMetrics struct {
	jobsSubmitted      prometheus.Counter
	jobsCompleted      prometheus.Counter
	jobsFailed         prometheus.Counter
	jobsCancelled      prometheus.Counter
	overflowPlacements prometheus.Counter
	jobDuration        prometheus.Histogram
	activeJobs         prometheus.Gauge
	workerSteals       *prometheus.CounterVec
}

func newSchedulerMetrics(reg *prometheus.Registry) *schedulerMetrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &schedulerMetrics{
		jobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobsys_jobs_submitted_total",
			Help: "Total jobs submitted to the scheduler.",
		}),
		jobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobsys_jobs_completed_total",
			Help: "Total jobs that completed successfully.",
		}),
		jobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobsys_jobs_failed_total",
			Help: "Total jobs whose Execute returned an error.",
		}),
		jobsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobsys_jobs_cancelled_total",
			Help: "Total jobs cancelled before they started running.",
		}),
		overflowPlacements: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobsys_overflow_placements_total",
			Help: "Total jobs routed to the overflow queue because every worker deque was full.",
		}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobsys_job_duration_seconds",
			Help:    "Job execution duration from startedAt to finishedAt.",
			Buckets: prometheus.DefBuckets,
		}),
		activeJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jobsys_active_jobs",
			Help: "Jobs submitted but not yet complete.",
		}),
		workerSteals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsys_worker_steal_attempts_total",
			Help: "Steal attempts per worker, labeled by outcome.",
		}, []string{"worker", "outcome"}),
	}
}

func (m *schedulerMetrics) observeSubmit() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

func (m *schedulerMetrics) observeCompletion(durationMicros int64, failed, cancelled bool) {
	if m == nil {
		return
	}
	switch {
	case cancelled:
		m.jobsCancelled.Inc()
	case failed:
		m.jobsFailed.Inc()
	default:
		m.jobsCompleted.Inc()
	}
	if !cancelled {
		m.jobDuration.Observe(float64(durationMicros) / 1e6)
	}
}

func (m *schedulerMetrics) observeOverflow() {
	if m == nil {
		return
	}
	m.overflowPlacements.Inc()
}

func (m *schedulerMetrics) setActiveJobs(n int) {
	if m == nil {
		return
	}
	m.activeJobs.Set(float64(n))
}

func (m *schedulerMetrics) observeSteal(workerID string, success bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if success {
		outcome = "hit"
	}
	m.workerSteals.WithLabelValues(workerID, outcome).Inc()
}
