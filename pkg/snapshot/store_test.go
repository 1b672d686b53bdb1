package snapshot

import (
	"testing"
	"time"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestStore_ReplaceIsWholesale(t *testing.T) {
	s := NewStore()

	s.Replace(core.MarketEquity, []core.Quote{
		{Symbol: "AAPL", Price: 180.10},
		{Symbol: "TSLA", Price: 240.00},
	}, 120*time.Millisecond, 2048)

	q, ok := s.Quote(core.MarketEquity, "aapl")
	require.True(t, ok)
	require.Equal(t, 180.10, q.Price)

	// TSLA is absent from the next poll and must be dropped.
	s.Replace(core.MarketEquity, []core.Quote{
		{Symbol: "AAPL", Price: 181.00},
	}, 100*time.Millisecond, 1024)

	q, ok = s.Quote(core.MarketEquity, "AAPL")
	require.True(t, ok)
	require.Equal(t, 181.00, q.Price)

	_, ok = s.Quote(core.MarketEquity, "TSLA")
	require.False(t, ok)
}

func TestStore_FailedFetchLeavesSnapshotUntouched(t *testing.T) {
	s := NewStore()
	s.Replace(core.MarketCrypto, []core.Quote{{Symbol: "BTC", Price: 64000}}, time.Millisecond, 512)

	// A failed fetch simply never calls Replace.
	q, ok := s.Quote(core.MarketCrypto, "BTC")
	require.True(t, ok)
	require.Equal(t, 64000.0, q.Price)
	require.Equal(t, int64(1), s.Stats(core.MarketCrypto).Updates)
}

func TestStore_MarketsAreIndependent(t *testing.T) {
	s := NewStore()
	s.Replace(core.MarketEquity, []core.Quote{{Symbol: "COIN", Price: 210}}, time.Millisecond, 1)
	s.Replace(core.MarketCrypto, []core.Quote{{Symbol: "BTC", Price: 64000}}, time.Millisecond, 1)

	_, ok := s.Quote(core.MarketCrypto, "COIN")
	require.False(t, ok)

	_, ok = s.Quote(core.MarketEquity, "BTC")
	require.False(t, ok)

	require.ElementsMatch(t, []string{"COIN"}, s.Symbols(core.MarketEquity))
	require.ElementsMatch(t, []string{"BTC"}, s.Symbols(core.MarketCrypto))
}

func TestStore_StatsAccumulate(t *testing.T) {
	s := NewStore()
	s.Replace(core.MarketEquity, nil, 50*time.Millisecond, 1000)
	s.Replace(core.MarketEquity, nil, 70*time.Millisecond, 500)

	st := s.Stats(core.MarketEquity)
	require.Equal(t, 70*time.Millisecond, st.Latency)
	require.Equal(t, int64(500), st.LastBytes)
	require.Equal(t, int64(1500), st.TotalBytes)
	require.Equal(t, int64(2), st.Updates)
	require.False(t, st.UpdatedAt.IsZero())
}
