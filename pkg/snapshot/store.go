// Package snapshot keeps the latest known price set per market.
package snapshot

import (
	"strings"
	"sync"
	"time"

	"github.com/colinwz/stonkbot/pkg/core"
	"golang.org/x/exp/maps"
)

// Stats are per-market observability counters. They are not consulted
// by alarm evaluation.
type Stats struct {
	UpdatedAt  time.Time     // Wall time of the last successful replace
	Latency    time.Duration // Duration of the last successful fetch
	LastBytes  int64         // Size of the last successful response
	TotalBytes int64         // Cumulative bytes transferred
	Updates    int64         // Number of successful replaces
}

// Store holds the full current price set for each market. A replace
// swaps the whole set at once; a failed poll never touches it, so the
// previous snapshot stays readable.
type Store struct {
	mu     sync.RWMutex
	quotes map[core.Market]map[string]core.Quote
	stats  map[core.Market]Stats
}

func NewStore() *Store {
	return &Store{
		quotes: make(map[core.Market]map[string]core.Quote),
		stats:  make(map[core.Market]Stats),
	}
}

// Replace swaps the entire snapshot of one market. Symbols absent from
// quotes are dropped; there is no partial merge.
func (s *Store) Replace(market core.Market, quotes []core.Quote, latency time.Duration, bytes int64) {
	next := make(map[string]core.Quote, len(quotes))
	for _, q := range quotes {
		q.Symbol = strings.ToUpper(q.Symbol)
		if q.UpdatedAt.IsZero() {
			q.UpdatedAt = time.Now()
		}
		next[q.Symbol] = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[market] = next

	st := s.stats[market]
	st.UpdatedAt = time.Now()
	st.Latency = latency
	st.LastBytes = bytes
	st.TotalBytes += bytes
	st.Updates++
	s.stats[market] = st
}

// Quote returns the latest known price for a symbol, if any.
func (s *Store) Quote(market core.Market, symbol string) (core.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[market][strings.ToUpper(symbol)]
	return q, ok
}

// Snapshot returns a copy of the full current price set of one market.
func (s *Store) Snapshot(market core.Market) map[string]core.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]core.Quote, len(s.quotes[market]))
	maps.Copy(out, s.quotes[market])
	return out
}

// Symbols lists the symbols currently priced in one market.
func (s *Store) Symbols(market core.Market) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Keys(s.quotes[market])
}

// Stats returns the observability counters of one market.
func (s *Store) Stats(market core.Market) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats[market]
}
