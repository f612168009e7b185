package warp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var multiplierGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "timewarp_multiplier",
	Help: "Currently installed virtual-time multiplier.",
})
