package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
)

func TestEquityFeedFetch(t *testing.T) {
	payload := `[{"symbol":"AAPL","price":189.31},{"symbol":"TSLA","price":242.05}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	feeder := NewEquityFeed(srv.URL, time.Second)
	require.Equal(t, core.MarketEquity, feeder.Market())

	result, err := feeder.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Quotes, 2)
	require.Equal(t, int64(len(payload)), result.Bytes)
	require.Equal(t, "AAPL", result.Quotes[0].Symbol)
	require.Equal(t, 189.31, result.Quotes[0].Price)
}

func TestEquityFeedBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewEquityFeed(srv.URL, time.Second).Fetch(context.Background())
	require.ErrorIs(t, err, core.ErrFeedFetchFailed)
}

func TestEquityFeedInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	_, err := NewEquityFeed(srv.URL, time.Second).Fetch(context.Background())
	require.ErrorIs(t, err, core.ErrFeedFetchFailed)
}

func TestCoinGeckoFeedBatchesIDs(t *testing.T) {
	cat := catalog.New(
		[]core.SymbolInfo{},
		[]core.SymbolInfo{
			{Symbol: "BTC", Name: "Bitcoin", ExternalID: "bitcoin", Market: core.MarketCrypto},
			{Symbol: "ETH", Name: "Ethereum", ExternalID: "ethereum", Market: core.MarketCrypto},
		},
	)

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"bitcoin":{"usd":64123.5},"ethereum":{"usd":3100.25},"unknown":{"usd":1}}`))
	}))
	defer srv.Close()

	feeder := NewCoinGeckoFeed(srv.URL, cat, time.Second)
	require.Equal(t, core.MarketCrypto, feeder.Market())

	result, err := feeder.Fetch(context.Background())
	require.NoError(t, err)
	require.Contains(t, gotQuery, "bitcoin%2Cethereum")
	require.Contains(t, gotQuery, "vs_currencies=usd")

	require.Len(t, result.Quotes, 2)
	prices := make(map[string]float64)
	for _, q := range result.Quotes {
		prices[q.Symbol] = q.Price
	}
	require.Equal(t, 64123.5, prices["BTC"])
	require.Equal(t, 3100.25, prices["ETH"])
}
