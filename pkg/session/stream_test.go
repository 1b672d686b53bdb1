package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/colinwz/stonkbot/pkg/logger"
)

type recordingBroadcaster struct {
	messages chan string
}

func (r *recordingBroadcaster) BroadcastMarketHours(text string) {
	r.messages <- text
}

func sessionServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// Wait for the subscription before pushing events
		var sub subscribeRequest
		require.NoError(t, conn.ReadJSON(&sub))
		require.Contains(t, sub.Channels, "systemevent")

		for _, ev := range events {
			payload := `{"data":{"systemEvent":"` + ev + `"}}`
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
		}
	}))
}

func TestStreamConsumeAppliesSignals(t *testing.T) {
	srv := sessionServer(t, "S", "R", "M", "E")
	defer srv.Close()

	tracker := NewTracker(logger.Noop{})
	broadcast := &recordingBroadcaster{messages: make(chan string, 8)}
	stream := NewStream("ws"+strings.TrimPrefix(srv.URL, "http"), tracker, broadcast, logger.Noop{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// consume returns once the server closes the connection
	connected := false
	err := stream.consume(ctx, func() { connected = true })
	require.Error(t, err)
	require.True(t, connected)

	var got []string
	for len(got) < 4 {
		select {
		case msg := <-broadcast.messages:
			got = append(got, msg)
		case <-ctx.Done():
			t.Fatalf("timed out, got %v", got)
		}
	}

	require.Equal(t, []string{
		"System hours opened",
		"Regular market opened",
		"Regular market closed",
		"System hours closed",
	}, got)
	require.False(t, tracker.IsOpen())
}

func TestStreamConsumeDialFailure(t *testing.T) {
	tracker := NewTracker(logger.Noop{})
	stream := NewStream("ws://127.0.0.1:1/nope", tracker,
		&recordingBroadcaster{messages: make(chan string, 1)}, logger.Noop{})

	err := stream.consume(context.Background(), func() {
		t.Fatal("onConnect must not run when the dial fails")
	})
	require.Error(t, err)
	require.False(t, tracker.IsOpen())
}
