package gateway

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/relaymesh/gateway/catalog"
)

// Stats is the Statistics Aggregator (C9): process-wide cumulative cost,
// latency, and request count. The running totals are backed by unregistered
// prometheus counters used purely as concurrency-safe accumulators —
// testutil.ToFloat64 reads a counter's current value directly, so no
// separate mutex-guarded float is needed alongside them. Nothing here is
// ever registered against an HTTP /metrics exporter; wiring one up is a
// caller concern.
type Stats struct {
	mu sync.Mutex

	cost    prometheus.Counter
	latency prometheus.Counter
	count   prometheus.Counter
}

// NewStats builds an empty Stats.
func NewStats() *Stats {
	return &Stats{
		cost:    prometheus.NewCounter(prometheus.CounterOpts{Name: "gateway_cumulative_cost"}),
		latency: prometheus.NewCounter(prometheus.CounterOpts{Name: "gateway_cumulative_latency_seconds"}),
		count:   prometheus.NewCounter(prometheus.CounterOpts{Name: "gateway_request_count"}),
	}
}

// Record adds one completed operation's realized cost and wall-clock
// latency to the running totals. Called once per successful afterRequest
// (§4.9); never called for a cancelled or mid-stream-failed operation.
func (s *Stats) Record(cost float64, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cost > 0 {
		s.cost.Add(cost)
	}
	s.latency.Add(latency.Seconds())
	s.count.Inc()
}

// ModelOutcome is one model's rolling success/failure tally, read straight
// from its ModelInfo.Metrics.
type ModelOutcome struct {
	Success int64
	Failure int64
}

// Snapshot is the result of Stats.Snapshot: totals, averages (zero when no
// requests have completed), per-provider model counts, and per-model
// success/failure counts, all read from the catalog's current state.
type Snapshot struct {
	CumulativeCost    float64
	CumulativeLatency time.Duration
	RequestCount      int64

	AverageCost    float64
	AverageLatency time.Duration

	ProviderModelCounts map[string]int
	ModelOutcomes       map[string]ModelOutcome
}

// Snapshot reports the current totals plus the catalog-derived breakdowns
// §4.9 requires.
func (s *Stats) Snapshot(cat *catalog.Catalog) Snapshot {
	s.mu.Lock()
	cost := testutil.ToFloat64(s.cost)
	latencySeconds := testutil.ToFloat64(s.latency)
	count := testutil.ToFloat64(s.count)
	s.mu.Unlock()

	snap := Snapshot{
		CumulativeCost:      cost,
		CumulativeLatency:   time.Duration(latencySeconds * float64(time.Second)),
		RequestCount:        int64(count),
		ProviderModelCounts: make(map[string]int),
		ModelOutcomes:       make(map[string]ModelOutcome),
	}
	if count > 0 {
		snap.AverageCost = cost / count
		snap.AverageLatency = time.Duration(latencySeconds / count * float64(time.Second))
	}

	for _, m := range cat.List() {
		snap.ProviderModelCounts[m.Provider]++
		snap.ModelOutcomes[m.Provider+"/"+m.ID] = ModelOutcome{
			Success: m.Metrics.SuccessCount,
			Failure: m.Metrics.FailureCount,
		}
	}
	return snap
}
