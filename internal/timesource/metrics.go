package timesource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clockReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timewarp_clock_reads_total",
		Help: "Number of virtualized wall-clock reads answered.",
	})
	timersScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timewarp_timers_scheduled_total",
		Help: "Number of callbacks scheduled through the warped scheduler.",
	})
)
