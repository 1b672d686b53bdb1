package feed

import (
	"context"
	"sync"
	"time"

	"github.com/StudioSol/set"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/colinwz/stonkbot/pkg/logger"
	"github.com/colinwz/stonkbot/pkg/metric"
	"github.com/colinwz/stonkbot/pkg/snapshot"
)

// Gate decides whether a poll cycle should run at all. A closed gate
// skips the fetch and the alarm sweep for that cycle.
type Gate func() bool

// Evaluator sweeps all alarms against a fresh market snapshot.
type Evaluator interface {
	Evaluate(market core.Market, quotes map[string]core.Quote) ([]core.NotificationIntent, error)
}

// Dispatcher receives the intents produced by a sweep.
type Dispatcher func(core.NotificationIntent)

type pollEntry struct {
	feeder   core.Feeder
	interval time.Duration
	gate     Gate
}

// Poller runs one polling loop per registered feed. Each cycle fetches
// the full price list, swaps the market snapshot wholesale and sweeps
// the alarms against it.
type Poller struct {
	feeds     *set.LinkedHashSetString
	entries   map[string]*pollEntry
	store     *snapshot.Store
	evaluator Evaluator
	metrics   *metric.Collector
	dispatch  Dispatcher
	timeout   time.Duration
	log       logger.Logger
	wg        sync.WaitGroup
}

func NewPoller(
	store *snapshot.Store,
	evaluator Evaluator,
	metrics *metric.Collector,
	dispatch Dispatcher,
	timeout time.Duration,
	log logger.Logger,
) *Poller {
	return &Poller{
		feeds:     set.NewLinkedHashSetString(),
		entries:   make(map[string]*pollEntry),
		store:     store,
		evaluator: evaluator,
		metrics:   metrics,
		dispatch:  dispatch,
		timeout:   timeout,
		log:       log,
	}
}

// Register adds a feed to the polling plan. Registering the same market
// twice replaces the previous entry.
func (p *Poller) Register(feeder core.Feeder, interval time.Duration, gate Gate) {
	key := string(feeder.Market())
	p.feeds.Add(key)
	p.entries[key] = &pollEntry{feeder: feeder, interval: interval, gate: gate}
	p.log.Infof("registered %s feed with interval %s", key, interval)
}

// Start launches one goroutine per registered feed. The first cycle
// runs immediately, subsequent cycles on the configured interval.
func (p *Poller) Start(ctx context.Context) {
	for key := range p.feeds.Iter() {
		entry := p.entries[key]
		p.wg.Add(1)
		go p.loop(ctx, entry)
	}
}

// Wait blocks until all polling loops stopped.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context, entry *pollEntry) {
	defer p.wg.Done()

	p.tick(ctx, entry)

	ticker := time.NewTicker(entry.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, entry)
		}
	}
}

func (p *Poller) tick(ctx context.Context, entry *pollEntry) {
	market := entry.feeder.Market()

	if entry.gate != nil && !entry.gate() {
		p.log.Debugf("%s poll skipped, market closed", market)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	result, err := entry.feeder.Fetch(fetchCtx)
	elapsed := time.Since(start)

	if err != nil {
		p.metrics.Failure(market)
		p.log.WithError(err).Errorf("%s poll failed after %s", market, elapsed)
		return
	}

	p.store.Replace(market, result.Quotes, elapsed, result.Bytes)
	p.metrics.Success(market, elapsed)

	intents, err := p.evaluator.Evaluate(market, p.store.Snapshot(market))
	if err != nil {
		p.log.WithError(err).Errorf("%s alarm sweep failed", market)
		return
	}

	for _, intent := range intents {
		p.dispatch(intent)
	}

	p.log.Debugf("%s poll finished in %s, %d quotes, %d alarms fired",
		market, elapsed, len(result.Quotes), len(intents))
}
