package metric

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/colinwz/stonkbot/pkg/core"
)

// bootstrapRounds is how many resamples back one interval estimate.
const bootstrapRounds = 200

// ConfidenceInterval bounds an estimate of the mean fetch latency.
type ConfidenceInterval struct {
	Lower time.Duration
	Upper time.Duration
}

// MeanLatencyInterval estimates a confidence interval for the mean
// fetch latency by bootstrap resampling of the recorded window. It
// reports false until enough samples accumulated for the estimate to
// mean anything.
func (c *Collector) MeanLatencyInterval(market core.Market, confidence float64) (ConfidenceInterval, bool) {
	c.mu.Lock()
	values := make([]float64, len(c.forMarket(market).latencies))
	copy(values, c.forMarket(market).latencies)
	c.mu.Unlock()

	if len(values) < 10 {
		return ConfidenceInterval{}, false
	}

	resampled := make([]float64, 0, bootstrapRounds)
	for i := 0; i < bootstrapRounds; i++ {
		sample := make([]float64, len(values))
		for j := range sample {
			sample[j] = lo.Sample(values)
		}
		resampled = append(resampled, stat.Mean(sample, nil))
	}
	sort.Float64s(resampled)

	tail := 1 - confidence
	return ConfidenceInterval{
		Lower: time.Duration(stat.Quantile(tail/2, stat.LinInterp, resampled, nil) * float64(time.Millisecond)),
		Upper: time.Duration(stat.Quantile(1-tail/2, stat.LinInterp, resampled, nil) * float64(time.Millisecond)),
	}, true
}
