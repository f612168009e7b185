package media

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timewarp_media_sweeps_total",
		Help: "Number of full media-rate enforcement sweeps.",
	})
	overriddenWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timewarp_media_rate_writes_overridden_total",
		Help: "Number of host playback-rate writes overridden by the engine.",
	})
)
