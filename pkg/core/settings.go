package core

import "time"

// Settings represents the main configuration for the application
type Settings struct {
	Equity       FeedSettings     // Equity price feed settings
	Crypto       FeedSettings     // Crypto price feed settings
	SessionURL   string           // Websocket URL of the market session event stream
	FetchTimeout time.Duration    // Timeout applied to every feed fetch
	Telegram     TelegramSettings // Telegram settings
}

// FeedSettings configures one periodic price feed.
type FeedSettings struct {
	URL      string        // Feed endpoint
	Interval time.Duration // Poll interval
	Source   string        // Crypto only: "coingecko" (default) or "binance"
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Enabled bool   // Whether the Telegram transport is enabled
	Token   string // Telegram bot token
}

// PendingReplyTTL is how long a force-reply prompt stays answerable.
// Replies arriving later are ignored and the pending entry is dropped.
const PendingReplyTTL = 5 * time.Minute

// ThresholdCeiling is the maximum accepted alarm threshold.
const ThresholdCeiling = 999999.00
