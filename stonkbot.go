// Package stonkbot assembles the price feeds, the alarm registry and
// the Telegram front end into a runnable bot.
package stonkbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/colinwz/stonkbot/pkg/alarm"
	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/colinwz/stonkbot/pkg/feed"
	"github.com/colinwz/stonkbot/pkg/logger"
	"github.com/colinwz/stonkbot/pkg/metric"
	"github.com/colinwz/stonkbot/pkg/notification"
	"github.com/colinwz/stonkbot/pkg/session"
	"github.com/colinwz/stonkbot/pkg/snapshot"
	"github.com/colinwz/stonkbot/pkg/storage"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

// Bot is the assembled application
type Bot struct {
	settings *core.Settings
	log      logger.Logger

	catalog   *catalog.Catalog
	storage   core.UserStorage
	prices    *snapshot.Store
	metrics   *metric.Collector
	registry  *alarm.Registry
	evaluator *alarm.Evaluator
	tracker   *session.Tracker
	stream    *session.Stream
	poller    *feed.Poller
	notifier  core.NotifierWithStart

	equityFeed core.Feeder
	cryptoFeed core.Feeder
}

// NewBot wires all components together with the provided settings
func NewBot(ctx context.Context, settings *core.Settings, options ...Option) (*Bot, error) {
	bot := &Bot{
		settings: settings,
		log:      DefaultLog,
		prices:   snapshot.NewStore(),
		metrics:  metric.NewCollector(),
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	bot.tracker = session.NewTracker(bot.log)

	if err := initializeCatalog(bot); err != nil {
		return nil, err
	}
	if err := initializeStorage(bot); err != nil {
		return nil, err
	}

	bot.registry = alarm.NewRegistry(bot.storage, bot.catalog, bot.prices, bot.log)
	bot.evaluator = alarm.NewEvaluator(bot.registry, bot.log)

	if err := initializeFeeds(bot, settings); err != nil {
		return nil, err
	}
	if err := initializeNotifier(bot, settings); err != nil {
		return nil, err
	}

	bot.poller = feed.NewPoller(bot.prices, bot.evaluator, bot.metrics, bot.dispatch,
		settings.FetchTimeout, bot.log)
	bot.poller.Register(bot.equityFeed, settings.Equity.Interval, bot.tracker.IsOpen)
	bot.poller.Register(bot.cryptoFeed, settings.Crypto.Interval, nil)

	if settings.SessionURL != "" {
		bot.stream = session.NewStream(settings.SessionURL, bot.tracker, bot, bot.log)
	}

	return bot, nil
}

// initializeCatalog loads the embedded symbol lists unless a catalog
// was injected
func initializeCatalog(bot *Bot) error {
	if bot.catalog != nil {
		return nil
	}

	cat, err := catalog.LoadDefault()
	if err != nil {
		return fmt.Errorf("failed to load symbol catalog: %w", err)
	}
	bot.catalog = cat
	return nil
}

// initializeStorage sets up the user store, in-memory by default
func initializeStorage(bot *Bot) error {
	if bot.storage != nil {
		return nil
	}

	store, err := storage.FromMemory()
	if err != nil {
		return fmt.Errorf("failed to open user storage: %w", err)
	}
	bot.storage = store
	return nil
}

// initializeFeeds builds the price feeders from the settings
func initializeFeeds(bot *Bot, settings *core.Settings) error {
	if bot.equityFeed == nil {
		bot.equityFeed = feed.NewEquityFeed(settings.Equity.URL, settings.FetchTimeout)
	}

	if bot.cryptoFeed == nil {
		switch strings.ToLower(settings.Crypto.Source) {
		case "", "coingecko":
			bot.cryptoFeed = feed.NewCoinGeckoFeed(settings.Crypto.URL, bot.catalog, settings.FetchTimeout)
		case "binance":
			bot.cryptoFeed = feed.NewBinanceFeed(bot.catalog)
		default:
			return fmt.Errorf("unknown crypto feed source: %s", settings.Crypto.Source)
		}
	}

	return nil
}

// initializeNotifier starts the Telegram front end when enabled
func initializeNotifier(bot *Bot, settings *core.Settings) error {
	if bot.notifier != nil || !settings.Telegram.Enabled {
		return nil
	}

	notifier, err := notification.NewTelegram(bot.registry, bot.catalog, bot.prices,
		bot.metrics, bot.tracker, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram: %w", err)
	}
	bot.notifier = notifier
	return nil
}

// dispatch delivers a fired alarm to its owner
func (b *Bot) dispatch(intent core.NotificationIntent) {
	if b.notifier == nil {
		b.log.Infof("alarm fired without notifier: %s", intent.Text())
		return
	}
	b.notifier.Send(intent.ChatID, intent.Text())
}

// BroadcastMarketHours forwards session changes to the notifier
func (b *Bot) BroadcastMarketHours(text string) {
	if b.notifier == nil {
		b.log.Info(text)
		return
	}
	b.notifier.BroadcastMarketHours(text)
}

// Registry exposes the alarm registry, mainly for tooling
func (b *Bot) Registry() *alarm.Registry {
	return b.registry
}

// Run starts the session stream, the notifier and the polling loops,
// then blocks until the context is cancelled
func (b *Bot) Run(ctx context.Context) error {
	if b.notifier != nil {
		b.notifier.Start()
	}

	if b.stream != nil {
		go b.stream.Run(ctx)
	} else {
		// No session feed configured, equity polling is always on
		b.tracker.Apply(session.SignalSystemOpen)
	}

	b.poller.Start(ctx)
	b.log.Info("stonkbot is up")

	<-ctx.Done()
	b.poller.Wait()

	return b.storage.Close()
}
