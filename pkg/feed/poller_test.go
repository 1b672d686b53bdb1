package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/colinwz/stonkbot/pkg/logger"
	"github.com/colinwz/stonkbot/pkg/metric"
	"github.com/colinwz/stonkbot/pkg/snapshot"
)

type fakeFeeder struct {
	market core.Market
	result core.FeedResult
	err    error
	calls  int
}

func (f *fakeFeeder) Market() core.Market { return f.market }

func (f *fakeFeeder) Fetch(ctx context.Context) (core.FeedResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeEvaluator struct {
	intents []core.NotificationIntent
	seen    map[string]core.Quote
}

func (f *fakeEvaluator) Evaluate(market core.Market, quotes map[string]core.Quote) ([]core.NotificationIntent, error) {
	f.seen = quotes
	return f.intents, nil
}

func TestTickSuccessPipeline(t *testing.T) {
	store := snapshot.NewStore()
	eval := &fakeEvaluator{
		intents: []core.NotificationIntent{{ChatID: 7, Symbol: "AAPL", Threshold: 110}},
	}

	var dispatched []core.NotificationIntent
	poller := NewPoller(store, eval, metric.NewCollector(), func(i core.NotificationIntent) {
		dispatched = append(dispatched, i)
	}, time.Second, logger.Noop{})

	feeder := &fakeFeeder{
		market: core.MarketEquity,
		result: core.FeedResult{
			Quotes: []core.Quote{{Symbol: "aapl", Price: 112.5, UpdatedAt: time.Now()}},
			Bytes:  64,
		},
	}
	poller.Register(feeder, time.Minute, nil)

	poller.tick(context.Background(), poller.entries[string(core.MarketEquity)])

	quote, ok := store.Quote(core.MarketEquity, "AAPL")
	require.True(t, ok)
	require.Equal(t, 112.5, quote.Price)

	require.Contains(t, eval.seen, "AAPL")
	require.Len(t, dispatched, 1)
	require.Equal(t, int64(7), dispatched[0].ChatID)
}

func TestTickClosedGateSkipsEverything(t *testing.T) {
	store := snapshot.NewStore()
	eval := &fakeEvaluator{}

	dispatched := 0
	poller := NewPoller(store, eval, metric.NewCollector(), func(core.NotificationIntent) {
		dispatched++
	}, time.Second, logger.Noop{})

	feeder := &fakeFeeder{
		market: core.MarketEquity,
		result: core.FeedResult{Quotes: []core.Quote{{Symbol: "AAPL", Price: 100}}},
	}
	poller.Register(feeder, time.Minute, func() bool { return false })

	poller.tick(context.Background(), poller.entries[string(core.MarketEquity)])

	require.Zero(t, feeder.calls)
	require.Nil(t, eval.seen)
	require.Zero(t, dispatched)
	_, ok := store.Quote(core.MarketEquity, "AAPL")
	require.False(t, ok)
}

func TestTickFailedFetchKeepsSnapshot(t *testing.T) {
	store := snapshot.NewStore()
	store.Replace(core.MarketCrypto, []core.Quote{{Symbol: "BTC", Price: 64000}}, time.Millisecond, 32)

	eval := &fakeEvaluator{}
	metrics := metric.NewCollector()
	poller := NewPoller(store, eval, metrics, func(core.NotificationIntent) {
		t.Fatal("nothing should be dispatched on a failed fetch")
	}, time.Second, logger.Noop{})

	feeder := &fakeFeeder{market: core.MarketCrypto, err: errors.New("upstream down")}
	poller.Register(feeder, time.Minute, nil)

	poller.tick(context.Background(), poller.entries[string(core.MarketCrypto)])

	quote, ok := store.Quote(core.MarketCrypto, "BTC")
	require.True(t, ok)
	require.Equal(t, float64(64000), quote.Price)
	require.Nil(t, eval.seen)

	summary := metrics.Summarize(core.MarketCrypto)
	require.Equal(t, int64(1), summary.Failures)
}

func TestRegisterReplacesMarketEntry(t *testing.T) {
	poller := NewPoller(snapshot.NewStore(), &fakeEvaluator{}, metric.NewCollector(),
		func(core.NotificationIntent) {}, time.Second, logger.Noop{})

	first := &fakeFeeder{market: core.MarketCrypto}
	second := &fakeFeeder{market: core.MarketCrypto}
	poller.Register(first, time.Minute, nil)
	poller.Register(second, time.Minute, nil)

	require.Equal(t, 1, poller.feeds.Length())
	require.Same(t, second, poller.entries[string(core.MarketCrypto)].feeder.(*fakeFeeder))
}
