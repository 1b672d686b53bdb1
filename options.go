package stonkbot

import (
	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/colinwz/stonkbot/pkg/logger"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithStorage sets the user store, by default an in-memory store is used
func WithStorage(storage core.UserStorage) Option {
	return func(bot *Bot) {
		bot.storage = storage
	}
}

// WithCatalog replaces the embedded symbol catalog
func WithCatalog(cat *catalog.Catalog) Option {
	return func(bot *Bot) {
		bot.catalog = cat
	}
}

// WithNotifier replaces the Telegram notifier, mainly useful in tests
func WithNotifier(notifier core.NotifierWithStart) Option {
	return func(bot *Bot) {
		bot.notifier = notifier
	}
}

// WithEquityFeed replaces the default equity price feeder
func WithEquityFeed(feeder core.Feeder) Option {
	return func(bot *Bot) {
		bot.equityFeed = feeder
	}
}

// WithCryptoFeed replaces the crypto price feeder picked from settings
func WithCryptoFeed(feeder core.Feeder) Option {
	return func(bot *Bot) {
		bot.cryptoFeed = feeder
	}
}

// WithLogger replaces the default logger
func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}
