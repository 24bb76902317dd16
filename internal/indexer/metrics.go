package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stablepool_indexer_events",
		Help: "The total number of handled events by kind and result",
	}, []string{"kind", "result"})
	revertedReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stablepool_indexer_reverted_reads",
		Help: "The total number of contract reads that reverted",
	}, []string{"method"})
	tvlSamples = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stablepool_indexer_tvl_samples",
		Help: "The total number of TVL snapshots taken",
	})
	cumulativeVolume = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stablepool_indexer_cumulative_volume",
		Help: "The cumulative normalized trade volume of the latest volume record",
	})
	tvlGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stablepool_indexer_tvl",
		Help: "The total value locked at the latest sampled block",
	})
)
