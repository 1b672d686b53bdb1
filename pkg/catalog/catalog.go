// Package catalog holds the static symbol reference data and the query
// resolution policy used by quote and alarm commands.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/samber/lo"
)

//go:embed data/symbols.json data/symbols-crypto.json
var defaultData embed.FS

// PriceIndex answers whether a symbol currently has a live price.
// Fuzzy resolution only offers candidates that can actually be quoted.
type PriceIndex interface {
	Quote(market core.Market, symbol string) (core.Quote, bool)
}

// Candidate is one fuzzy-match result with its live price.
type Candidate struct {
	Info  core.SymbolInfo
	Price float64
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s - %s - %.2f $", c.Info.Symbol, c.Info.Name, c.Price)
}

// Catalog is the immutable symbol reference data for both markets.
type Catalog struct {
	equity []core.SymbolInfo
	crypto []core.SymbolInfo

	bySymbol map[string][]core.SymbolInfo
	byID     map[string]core.SymbolInfo
}

// minQueryLen is the shortest query allowed to trigger a fuzzy name
// scan. Shorter queries must match a symbol exactly.
const minQueryLen = 3

// New builds a catalog from raw entries. Symbols are uppercased and
// tagged with their market.
func New(equity, crypto []core.SymbolInfo) *Catalog {
	c := &Catalog{
		bySymbol: make(map[string][]core.SymbolInfo),
		byID:     make(map[string]core.SymbolInfo),
	}

	for _, e := range equity {
		e.Symbol = strings.ToUpper(e.Symbol)
		e.Market = core.MarketEquity
		c.equity = append(c.equity, e)
		c.bySymbol[e.Symbol] = append(c.bySymbol[e.Symbol], e)
	}

	for _, e := range crypto {
		e.Symbol = strings.ToUpper(e.Symbol)
		e.Market = core.MarketCrypto
		c.crypto = append(c.crypto, e)
		c.bySymbol[e.Symbol] = append(c.bySymbol[e.Symbol], e)
		if e.ExternalID != "" {
			c.byID[e.ExternalID] = e
		}
	}

	return c
}

// LoadDefault builds the catalog from the embedded reference data.
func LoadDefault() (*Catalog, error) {
	equity, err := readEntries(func(name string) ([]byte, error) { return defaultData.ReadFile(name) }, "data/symbols.json")
	if err != nil {
		return nil, err
	}

	crypto, err := readEntries(func(name string) ([]byte, error) { return defaultData.ReadFile(name) }, "data/symbols-crypto.json")
	if err != nil {
		return nil, err
	}

	return New(equity, crypto), nil
}

// LoadFiles builds the catalog from reference data files on disk.
func LoadFiles(equityPath, cryptoPath string) (*Catalog, error) {
	equity, err := readEntries(os.ReadFile, equityPath)
	if err != nil {
		return nil, err
	}

	crypto, err := readEntries(os.ReadFile, cryptoPath)
	if err != nil {
		return nil, err
	}

	return New(equity, crypto), nil
}

func readEntries(read func(string) ([]byte, error), name string) ([]core.SymbolInfo, error) {
	raw, err := read(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol data %s: %w", name, err)
	}

	var entries []core.SymbolInfo
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse symbol data %s: %w", name, err)
	}

	return entries, nil
}

// Resolve maps a user query to exactly one symbol.
//
// An exact, case-insensitive symbol match wins immediately. Otherwise a
// case-insensitive substring match over company/asset names across both
// markets is attempted, restricted to symbols that currently have a
// live price. Zero candidates yield ErrSymbolNotFound; more than one
// yield ErrAmbiguousSymbol together with the candidate list so the
// caller can re-prompt. Queries shorter than three characters never
// reach the fuzzy scan.
func (c *Catalog) Resolve(query string, prices PriceIndex) (core.SymbolInfo, []Candidate, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return core.SymbolInfo{}, nil, core.ErrSymbolNotFound
	}

	if exact, ok := c.bySymbol[q]; ok {
		if len(exact) == 1 {
			return exact[0], nil, nil
		}
		return core.SymbolInfo{}, c.liveCandidates(exact, prices), core.ErrAmbiguousSymbol
	}

	if len(q) < minQueryLen {
		return core.SymbolInfo{}, nil, core.ErrAmbiguousSymbol
	}

	combined := make([]core.SymbolInfo, 0, len(c.equity)+len(c.crypto))
	combined = append(combined, c.equity...)
	combined = append(combined, c.crypto...)

	matched := lo.Filter(combined, func(info core.SymbolInfo, _ int) bool {
		return strings.Contains(strings.ToUpper(info.Name), q)
	})

	candidates := c.liveCandidates(matched, prices)

	switch len(candidates) {
	case 0:
		return core.SymbolInfo{}, nil, core.ErrSymbolNotFound
	case 1:
		return candidates[0].Info, nil, nil
	default:
		return core.SymbolInfo{}, candidates, core.ErrAmbiguousSymbol
	}
}

func (c *Catalog) liveCandidates(entries []core.SymbolInfo, prices PriceIndex) []Candidate {
	return lo.FilterMap(entries, func(info core.SymbolInfo, _ int) (Candidate, bool) {
		quote, ok := prices.Quote(info.Market, info.Symbol)
		if !ok {
			return Candidate{}, false
		}
		return Candidate{Info: info, Price: quote.Price}, true
	})
}

// Entries returns the reference entries of one market.
func (c *Catalog) Entries(market core.Market) []core.SymbolInfo {
	if market == core.MarketCrypto {
		return c.crypto
	}
	return c.equity
}

// CryptoIDs returns the external feed identifiers of all crypto
// symbols, in catalog order. The crypto poll batches them into one
// request.
func (c *Catalog) CryptoIDs() []string {
	return lo.FilterMap(c.crypto, func(info core.SymbolInfo, _ int) (string, bool) {
		return info.ExternalID, info.ExternalID != ""
	})
}

// ByExternalID maps a crypto feed identifier back to its symbol entry.
func (c *Catalog) ByExternalID(id string) (core.SymbolInfo, bool) {
	info, ok := c.byID[id]
	return info, ok
}
