package metric

import (
	"strings"
	"testing"
	"time"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestCollector_Summarize(t *testing.T) {
	c := NewCollector()

	c.Success(core.MarketEquity, 100*time.Millisecond)
	c.Success(core.MarketEquity, 200*time.Millisecond)
	c.Success(core.MarketEquity, 300*time.Millisecond)
	c.Failure(core.MarketEquity)

	s := c.Summarize(core.MarketEquity)
	require.Equal(t, 3, s.Count)
	require.Equal(t, int64(1), s.Failures)
	require.Equal(t, 200*time.Millisecond, s.Mean)
	require.Greater(t, s.P95, s.Mean)
}

func TestCollector_EmptyMarket(t *testing.T) {
	c := NewCollector()

	s := c.Summarize(core.MarketCrypto)
	require.Zero(t, s.Count)
	require.Zero(t, s.Mean)

	var sb strings.Builder
	require.NoError(t, c.WriteHistogram(&sb, core.MarketCrypto))
	require.Contains(t, sb.String(), "no samples")
}

func TestCollector_Histogram(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 50; i++ {
		c.Success(core.MarketEquity, time.Duration(i)*time.Millisecond)
	}

	var sb strings.Builder
	require.NoError(t, c.WriteHistogram(&sb, core.MarketEquity))
	require.NotEmpty(t, sb.String())
}

func TestCollector_MeanLatencyInterval(t *testing.T) {
	c := NewCollector()

	_, ok := c.MeanLatencyInterval(core.MarketEquity, 0.95)
	require.False(t, ok)

	for i := 0; i < 50; i++ {
		c.Success(core.MarketEquity, 100*time.Millisecond)
	}

	interval, ok := c.MeanLatencyInterval(core.MarketEquity, 0.95)
	require.True(t, ok)
	require.LessOrEqual(t, interval.Lower, interval.Upper)
	require.InDelta(t, float64(100*time.Millisecond), float64(interval.Lower), float64(time.Millisecond))
	require.InDelta(t, float64(100*time.Millisecond), float64(interval.Upper), float64(time.Millisecond))
}
