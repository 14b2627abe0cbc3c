package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache metrics carry a "cache" label set from ProviderConfig.Group.
var (
	HitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits.",
		},
		[]string{"cache"},
	)

	MissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses.",
		},
		[]string{"cache"},
	)

	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of entries evicted from the cache.",
		},
		[]string{"cache"},
	)

	StoredBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_stored_bytes_total",
			Help: "Total number of body bytes written to the cache.",
		},
		[]string{"cache"},
	)
)

func init() {
	prometheus.MustRegister(HitsTotal, MissesTotal, EvictionsTotal, StoredBytesTotal)
}

// entriesGauge reports a cache's Len at scrape time, which stays correct when
// a remote backend expires entries on its own.
type entriesGauge struct {
	desc    *prometheus.Desc
	lenFunc func() int
}

func (g *entriesGauge) Describe(ch chan<- *prometheus.Desc) {
	ch <- g.desc
}

func (g *entriesGauge) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, float64(g.lenFunc()))
}

var (
	gaugesMu sync.Mutex
	gauges   = make(map[string]*entriesGauge)
	// gaugeRegisterer is swapped for an isolated registry in tests.
	gaugeRegisterer prometheus.Registerer = prometheus.DefaultRegisterer
)

// registerEntriesGauge replaces any gauge previously registered for group.
func registerEntriesGauge(group string, lenFunc func() int) {
	g := &entriesGauge{
		desc: prometheus.NewDesc(
			"cache_entries",
			"Current number of entries in the cache.",
			nil,
			prometheus.Labels{"cache": group},
		),
		lenFunc: lenFunc,
	}

	gaugesMu.Lock()
	defer gaugesMu.Unlock()
	if old, ok := gauges[group]; ok {
		gaugeRegisterer.Unregister(old)
	}
	gauges[group] = g
	_ = gaugeRegisterer.Register(g)
}

func unregisterEntriesGauge(group string) {
	gaugesMu.Lock()
	defer gaugesMu.Unlock()
	if g, ok := gauges[group]; ok {
		gaugeRegisterer.Unregister(g)
		delete(gauges, group)
	}
}
