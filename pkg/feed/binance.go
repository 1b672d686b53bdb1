package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
)

// BinanceFeed is an alternative crypto source backed by the Binance
// ticker API. Coins are matched against their USDT pair.
type BinanceFeed struct {
	client  *binance.Client
	catalog *catalog.Catalog
}

func NewBinanceFeed(cat *catalog.Catalog) *BinanceFeed {
	return &BinanceFeed{
		client:  binance.NewClient("", ""),
		catalog: cat,
	}
}

func (f *BinanceFeed) Market() core.Market { return core.MarketCrypto }

func (f *BinanceFeed) Fetch(ctx context.Context) (core.FeedResult, error) {
	prices, err := f.client.NewListPricesService().Do(ctx)
	if err != nil {
		return core.FeedResult{}, fmt.Errorf("%w: %v", core.ErrFeedFetchFailed, err)
	}

	byPair := make(map[string]string, len(prices))
	var bytes int64
	for _, p := range prices {
		byPair[p.Symbol] = p.Price
		bytes += int64(len(p.Symbol) + len(p.Price))
	}

	now := time.Now()
	var quotes []core.Quote
	for _, info := range f.catalog.Entries(core.MarketCrypto) {
		raw, ok := byPair[info.Symbol+"USDT"]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		quotes = append(quotes, core.Quote{Symbol: info.Symbol, Price: price, UpdatedAt: now})
	}

	return core.FeedResult{Quotes: quotes, Bytes: bytes}, nil
}
