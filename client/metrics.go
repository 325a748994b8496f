package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "calendar_client",
		Name:      "mutations_total",
		Help:      "Event mutations run through the shard executor, by outcome.",
	},
	[]string{"outcome"},
)
