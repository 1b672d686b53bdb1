package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
)

// CoinGeckoFeed fetches crypto prices in a single batched simple-price
// request, one external id per tracked coin.
type CoinGeckoFeed struct {
	baseURL string
	catalog *catalog.Catalog
	client  *http.Client
}

func NewCoinGeckoFeed(baseURL string, cat *catalog.Catalog, timeout time.Duration) *CoinGeckoFeed {
	return &CoinGeckoFeed{
		baseURL: baseURL,
		catalog: cat,
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *CoinGeckoFeed) Market() core.Market { return core.MarketCrypto }

func (f *CoinGeckoFeed) Fetch(ctx context.Context) (core.FeedResult, error) {
	ids := f.catalog.CryptoIDs()
	if len(ids) == 0 {
		return core.FeedResult{}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")

	raw, err := get(ctx, f.client, f.baseURL+"?"+query.Encode())
	if err != nil {
		return core.FeedResult{}, err
	}

	var priced map[string]map[string]float64
	if err := json.Unmarshal(raw, &priced); err != nil {
		return core.FeedResult{}, fmt.Errorf("%w: invalid crypto payload: %v", core.ErrFeedFetchFailed, err)
	}

	now := time.Now()
	quotes := make([]core.Quote, 0, len(priced))
	for id, values := range priced {
		info, ok := f.catalog.ByExternalID(id)
		if !ok {
			continue
		}
		price, ok := values["usd"]
		if !ok {
			continue
		}
		quotes = append(quotes, core.Quote{Symbol: info.Symbol, Price: price, UpdatedAt: now})
	}

	return core.FeedResult{Quotes: quotes, Bytes: int64(len(raw))}, nil
}
