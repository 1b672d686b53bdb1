// Package metric collects poll timing samples for the status counters
// and operator diagnostics.
package metric

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/colinwz/stonkbot/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// maxSamples bounds the per-market latency window.
const maxSamples = 1024

// Summary describes the recent fetch latency of one market.
type Summary struct {
	Count    int
	Failures int64
	Mean     time.Duration
	StdDev   time.Duration
	P95      time.Duration
}

type series struct {
	latencies []float64 // milliseconds
	failures  int64
}

// Collector accumulates per-market poll outcomes.
type Collector struct {
	mu     sync.Mutex
	series map[core.Market]*series
}

func NewCollector() *Collector {
	return &Collector{series: make(map[core.Market]*series)}
}

func (c *Collector) forMarket(market core.Market) *series {
	s, ok := c.series[market]
	if !ok {
		s = &series{}
		c.series[market] = s
	}
	return s
}

// Success records the latency of a completed fetch.
func (c *Collector) Success(market core.Market, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.forMarket(market)
	s.latencies = append(s.latencies, float64(latency.Milliseconds()))
	if len(s.latencies) > maxSamples {
		s.latencies = s.latencies[len(s.latencies)-maxSamples:]
	}
}

// Failure counts a failed fetch.
func (c *Collector) Failure(market core.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forMarket(market).failures++
}

// Summarize computes latency statistics over the recorded window.
func (c *Collector) Summarize(market core.Market) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.forMarket(market)
	out := Summary{Count: len(s.latencies), Failures: s.failures}
	if len(s.latencies) == 0 {
		return out
	}

	sorted := make([]float64, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Float64s(sorted)

	mean, stdDev := stat.MeanStdDev(sorted, nil)
	out.Mean = time.Duration(mean * float64(time.Millisecond))
	if len(sorted) > 1 {
		out.StdDev = time.Duration(stdDev * float64(time.Millisecond))
	}
	out.P95 = time.Duration(stat.Quantile(0.95, stat.LinInterp, sorted, nil) * float64(time.Millisecond))

	return out
}

// WriteHistogram renders an ASCII latency histogram for one market.
func (c *Collector) WriteHistogram(w io.Writer, market core.Market) error {
	c.mu.Lock()
	samples := make([]float64, len(c.forMarket(market).latencies))
	copy(samples, c.forMarket(market).latencies)
	c.mu.Unlock()

	if len(samples) == 0 {
		_, err := fmt.Fprintf(w, "no samples for %s\n", market)
		return err
	}

	hist := histogram.Hist(9, samples)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
