// Package feed implements the external price feed clients and the
// scheduler that drives periodic polling.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/colinwz/stonkbot/pkg/core"
)

// EquityFeed pulls the full equity price list from a single endpoint.
// Symbols missing from a response simply have no price this cycle.
type EquityFeed struct {
	url    string
	client *http.Client
}

type equityEntry struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func NewEquityFeed(url string, timeout time.Duration) *EquityFeed {
	return &EquityFeed{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (f *EquityFeed) Market() core.Market { return core.MarketEquity }

func (f *EquityFeed) Fetch(ctx context.Context) (core.FeedResult, error) {
	raw, err := get(ctx, f.client, f.url)
	if err != nil {
		return core.FeedResult{}, err
	}

	var entries []equityEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return core.FeedResult{}, fmt.Errorf("%w: invalid equity payload: %v", core.ErrFeedFetchFailed, err)
	}

	now := time.Now()
	quotes := make([]core.Quote, 0, len(entries))
	for _, e := range entries {
		quotes = append(quotes, core.Quote{Symbol: e.Symbol, Price: e.Price, UpdatedAt: now})
	}

	return core.FeedResult{Quotes: quotes, Bytes: int64(len(raw))}, nil
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFeedFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", core.ErrFeedFetchFailed, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFeedFetchFailed, err)
	}

	return raw, nil
}
