package core

import (
	"fmt"
	"time"
)

// Market identifies which price universe a symbol belongs to.
// Equity and crypto alarms are evaluated independently and never cross.
type Market string

const (
	MarketEquity Market = "equity"
	MarketCrypto Market = "crypto"
)

// Direction is the side an alarm watches, derived once at creation
// from the threshold relative to the price at that moment.
type Direction string

const (
	DirectionUp   Direction = "upwards"
	DirectionDown Direction = "downwards"
)

// SymbolInfo is a single reference-data entry of the symbol catalog.
// ExternalID is only set for crypto symbols and is the identifier the
// crypto price feed is queried with.
type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	ExternalID string `json:"id,omitempty"`
	Market     Market `json:"-"`
}

// Quote is the latest known price for one symbol in one market.
type Quote struct {
	Symbol    string
	Price     float64
	UpdatedAt time.Time
}

// Alarm is a user's standing request to be notified when a symbol's
// price crosses a threshold. Baseline advances to the latest observed
// price on every evaluation pass; Direction never changes.
type Alarm struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Market    Market    `json:"market"`
	Direction Direction `json:"direction"`
	Baseline  float64   `json:"baseline"`
	Threshold float64   `json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Alarm) String() string {
	return fmt.Sprintf("%s - %s - %.2f $", a.Symbol, a.Direction, a.Threshold)
}

// User is a chat identity known to the bot. Users own their alarms
// exclusively and are never destroyed automatically.
type User struct {
	ChatID           int64     `json:"chat_id"`
	MarketHoursAlert bool      `json:"market_hours_alert"`
	Alarms           []Alarm   `json:"alarms"`
	CreatedAt        time.Time `json:"created_at"`
}

// NotificationIntent instructs the transport to deliver one message to
// one chat identity. Delivery is best effort.
type NotificationIntent struct {
	ChatID    int64
	Symbol    string
	Threshold float64
}

// Text renders the alarm-fired message.
func (n NotificationIntent) Text() string {
	return fmt.Sprintf("%s has reached %.2f $", n.Symbol, n.Threshold)
}
