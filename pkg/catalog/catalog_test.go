package catalog

import (
	"testing"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/stretchr/testify/require"
)

type fakePrices struct {
	quotes map[string]float64
}

func (f fakePrices) Quote(_ core.Market, symbol string) (core.Quote, bool) {
	price, ok := f.quotes[symbol]
	return core.Quote{Symbol: symbol, Price: price}, ok
}

func testCatalog() *Catalog {
	return New(
		[]core.SymbolInfo{
			{Symbol: "AAPL", Name: "Apple Inc."},
			{Symbol: "MSFT", Name: "Microsoft Corporation"},
			{Symbol: "GT", Name: "The Goodyear Tire & Rubber Company"},
		},
		[]core.SymbolInfo{
			{Symbol: "BTC", Name: "Bitcoin", ExternalID: "bitcoin"},
			{Symbol: "ETH", Name: "Ethereum", ExternalID: "ethereum"},
			{Symbol: "BCH", Name: "Bitcoin Cash", ExternalID: "bitcoin-cash"},
		},
	)
}

func TestCatalog_ResolveExactSymbol(t *testing.T) {
	c := testCatalog()
	prices := fakePrices{quotes: map[string]float64{}}

	info, candidates, err := c.Resolve("aapl", prices)
	require.NoError(t, err)
	require.Empty(t, candidates)
	require.Equal(t, "AAPL", info.Symbol)
	require.Equal(t, core.MarketEquity, info.Market)

	info, _, err = c.Resolve("btc", prices)
	require.NoError(t, err)
	require.Equal(t, core.MarketCrypto, info.Market)
	require.Equal(t, "bitcoin", info.ExternalID)
}

func TestCatalog_ResolveShortQuery(t *testing.T) {
	c := testCatalog()
	prices := fakePrices{quotes: map[string]float64{"AAPL": 180}}

	// Two characters without an exact symbol hit must not fuzzy-scan.
	_, candidates, err := c.Resolve("ap", prices)
	require.ErrorIs(t, err, core.ErrAmbiguousSymbol)
	require.Empty(t, candidates)

	// An exact two-character symbol is still fine.
	info, _, err := c.Resolve("gt", prices)
	require.NoError(t, err)
	require.Equal(t, "GT", info.Symbol)
}

func TestCatalog_ResolveFuzzy(t *testing.T) {
	c := testCatalog()

	// Both BTC and BCH match "bitcoin" by name, but only BTC has a
	// live price, so the query resolves.
	prices := fakePrices{quotes: map[string]float64{"BTC": 64250.12}}
	info, candidates, err := c.Resolve("bitcoin", prices)
	require.NoError(t, err)
	require.Empty(t, candidates)
	require.Equal(t, "BTC", info.Symbol)

	// With both priced it is ambiguous and both candidates come back.
	prices = fakePrices{quotes: map[string]float64{"BTC": 64250.12, "BCH": 410.55}}
	_, candidates, err = c.Resolve("bitcoin", prices)
	require.ErrorIs(t, err, core.ErrAmbiguousSymbol)
	require.Len(t, candidates, 2)

	// No live prices at all: nothing to offer.
	prices = fakePrices{quotes: map[string]float64{}}
	_, _, err = c.Resolve("bitcoin", prices)
	require.ErrorIs(t, err, core.ErrSymbolNotFound)
}

func TestCatalog_ResolveNoMatch(t *testing.T) {
	c := testCatalog()
	prices := fakePrices{quotes: map[string]float64{"AAPL": 180}}

	_, _, err := c.Resolve("definitely-not-a-company", prices)
	require.ErrorIs(t, err, core.ErrSymbolNotFound)

	_, _, err = c.Resolve("", prices)
	require.ErrorIs(t, err, core.ErrSymbolNotFound)
}

func TestCatalog_CryptoIDs(t *testing.T) {
	c := testCatalog()
	require.Equal(t, []string{"bitcoin", "ethereum", "bitcoin-cash"}, c.CryptoIDs())

	info, ok := c.ByExternalID("ethereum")
	require.True(t, ok)
	require.Equal(t, "ETH", info.Symbol)

	_, ok = c.ByExternalID("dogecoin")
	require.False(t, ok)
}

func TestCatalog_LoadDefault(t *testing.T) {
	c, err := LoadDefault()
	require.NoError(t, err)
	require.NotEmpty(t, c.Entries(core.MarketEquity))
	require.NotEmpty(t, c.Entries(core.MarketCrypto))
	require.NotEmpty(t, c.CryptoIDs())
}
