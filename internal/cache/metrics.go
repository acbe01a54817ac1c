package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// loadCount counts cache loads, partitioned by collection and outcome.
// "hit" means the freshness window short-circuited the remote call.
var loadCount = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gastoro_cache_loads_total",
		Help: "How many collection loads were served, partitioned by collection and outcome (hit, refresh, error).",
	},
	[]string{"collection", "outcome"},
)

const (
	outcomeHit     = "hit"
	outcomeRefresh = "refresh"
	outcomeError   = "error"
)
