package core

import "context"

// FeedResult is one successful poll of an external price feed.
// Bytes is the size of the raw response, kept for the status counters.
type FeedResult struct {
	Quotes []Quote
	Bytes  int64
}

// Feeder pulls the full current price set for one market. A symbol
// absent from the result has no price this cycle.
type Feeder interface {
	Market() Market
	Fetch(ctx context.Context) (FeedResult, error)
}

// Notifier delivers core-produced messages to the chat transport.
type Notifier interface {
	// Send delivers a message to one chat. Failures are logged by the
	// transport, never retried by the caller.
	Send(chatID int64, text string)
	// BroadcastMarketHours delivers a session status line to every user
	// that opted into market hours notifications.
	BroadcastMarketHours(text string)
	OnError(err error)
}

// NotifierWithStart is a notifier that owns a long-running inbound
// message loop.
type NotifierWithStart interface {
	Notifier
	Start()
}

// UserStorage persists users and their alarms. Implementations must be
// safe for concurrent use; callers hold no lock while calling.
type UserStorage interface {
	Save(user *User) error
	Get(chatID int64) (*User, error)
	All() ([]*User, error)
	Close() error
}
