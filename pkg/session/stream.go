package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/colinwz/stonkbot/pkg/logger"
	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
)

// Broadcaster delivers a session status line to every opted-in user.
type Broadcaster interface {
	BroadcastMarketHours(text string)
}

// Stream maintains the websocket connection to the session event feed
// and forwards its signals to the tracker. The stream is push-based:
// we subscribe once per connection and then only read.
type Stream struct {
	url       string
	tracker   *Tracker
	broadcast Broadcaster
	log       logger.Logger
}

type subscribeRequest struct {
	Channels []string `json:"channels"`
}

type event struct {
	Data struct {
		SystemEvent string `json:"systemEvent"`
	} `json:"data"`
}

func NewStream(url string, tracker *Tracker, broadcast Broadcaster, log logger.Logger) *Stream {
	return &Stream{
		url:       url,
		tracker:   tracker,
		broadcast: broadcast,
		log:       log,
	}
}

// Run connects and reads events until the context is done, redialing
// with backoff after any connection failure.
func (s *Stream) Run(ctx context.Context) {
	retry := &backoff.Backoff{
		Min:    time.Second,
		Max:    time.Minute,
		Jitter: true,
	}

	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.consume(ctx, retry.Reset); err != nil && ctx.Err() == nil {
			wait := retry.Duration()
			s.log.WithError(err).Warnf("session stream disconnected, retrying in %s", wait)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// consume dials, subscribes and reads until the connection drops.
// onConnect runs once the subscription is in place, so the redial
// backoff starts over after every healthy connection.
func (s *Stream) consume(ctx context.Context, onConnect func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Drop the read loop when the context ends; closing the connection
	// unblocks ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(subscribeRequest{Channels: []string{"systemevent"}}); err != nil {
		return err
	}

	s.log.Infof("session stream connected: %s", s.url)
	onConnect()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev event
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.log.WithError(err).Warn("discarding malformed session event")
			continue
		}

		s.log.Infof("session event: %s", ev.Data.SystemEvent)

		if msg := s.tracker.Apply(Signal(ev.Data.SystemEvent)); msg != "" {
			s.broadcast.BroadcastMarketHours(msg)
		}
	}
}
