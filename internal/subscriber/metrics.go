package subscriber

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stablepool_subscriber_deliveries",
		Help: "The total number of events received per source",
	}, []string{"source"})
	filteredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stablepool_subscriber_filtered",
		Help: "The total number of events from untracked contracts",
	})
	failedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stablepool_subscriber_failed",
		Help: "The total number of events dropped because handling failed",
	})
	malformedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stablepool_subscriber_malformed",
		Help: "The total number of messages that could not be decoded per source",
	}, []string{"source"})
	blockHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stablepool_subscriber_block_height",
		Help: "The latest block number of a handled event",
	})
)
