package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPendingTakeConsumesEntry(t *testing.T) {
	table := newPendingTable()
	table.Put(42, pendingCommand{kind: pendingAddThreshold, symbol: "AAPL"})

	cmd, ok := table.Take(42)
	require.True(t, ok)
	require.Equal(t, pendingAddThreshold, cmd.kind)
	require.Equal(t, "AAPL", cmd.symbol)

	_, ok = table.Take(42)
	require.False(t, ok)
}

func TestPendingTakeUnknownMessage(t *testing.T) {
	table := newPendingTable()

	_, ok := table.Take(7)
	require.False(t, ok)
}

func TestPendingTakeExpiredEntry(t *testing.T) {
	table := newPendingTable()
	table.Put(42, pendingCommand{kind: pendingPrice})
	table.entries[42] = pendingCommand{
		kind:      pendingPrice,
		expiresAt: time.Now().Add(-time.Second),
	}

	_, ok := table.Take(42)
	require.False(t, ok)
}
