// Package session consumes the market session event stream and gates
// equity polling on whether system hours are open.
package session

import (
	"sync/atomic"

	"github.com/colinwz/stonkbot/pkg/logger"
)

// Signal is one event kind of the session stream, as sent on the wire.
type Signal string

const (
	SignalSystemOpen  Signal = "S" // extended trading hours opened
	SignalMarketOpen  Signal = "R" // regular market opened
	SignalMarketClose Signal = "M" // regular market closed
	SignalSystemClose Signal = "E" // extended trading hours closed
)

// Tracker is a two-state machine over the session stream. Only the
// system open/close signals transition the gate; the regular market
// signals are pass-through notifications.
type Tracker struct {
	open atomic.Bool
	log  logger.Logger
}

func NewTracker(log logger.Logger) *Tracker {
	return &Tracker{log: log}
}

// IsOpen reports whether system hours are currently open. The equity
// poll consults this before every tick.
func (t *Tracker) IsOpen() bool {
	return t.open.Load()
}

// Apply processes one signal and returns the status line to broadcast.
// Unknown signals produce an empty string and no state change.
func (t *Tracker) Apply(sig Signal) string {
	switch sig {
	case SignalSystemOpen:
		t.open.Store(true)
		t.log.Info("session gate opened")
		return "System hours opened"
	case SignalMarketOpen:
		return "Regular market opened"
	case SignalMarketClose:
		return "Regular market closed"
	case SignalSystemClose:
		t.open.Store(false)
		t.log.Info("session gate closed")
		return "System hours closed"
	default:
		t.log.Warnf("unknown session signal: %q", sig)
		return ""
	}
}
