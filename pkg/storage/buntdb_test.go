package storage

import (
	"testing"
	"time"

	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestBuntStorage_SaveAndGet(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	user := &core.User{
		ChatID:           42,
		MarketHoursAlert: true,
		CreatedAt:        time.Now(),
		Alarms: []core.Alarm{
			{ID: "a1", Symbol: "AAPL", Market: core.MarketEquity, Direction: core.DirectionUp, Baseline: 180, Threshold: 200},
		},
	}
	require.NoError(t, store.Save(user))

	got, err := store.Get(42)
	require.NoError(t, err)
	require.Equal(t, user.ChatID, got.ChatID)
	require.Len(t, got.Alarms, 1)
	require.Equal(t, core.DirectionUp, got.Alarms[0].Direction)

	_, err = store.Get(999)
	require.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestBuntStorage_AllKeepsRegistrationOrder(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	base := time.Now()
	for i, chatID := range []int64{7, 3, 11} {
		require.NoError(t, store.Save(&core.User{
			ChatID:    chatID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	users, err := store.All()
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, int64(7), users[0].ChatID)
	require.Equal(t, int64(3), users[1].ChatID)
	require.Equal(t, int64(11), users[2].ChatID)
}
