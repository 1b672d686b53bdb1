package notification

import (
	"sync"
	"time"

	"github.com/colinwz/stonkbot/pkg/core"
)

type pendingKind int

const (
	pendingPrice pendingKind = iota
	pendingSearch
	pendingAddSymbol
	pendingAddThreshold
)

// pendingCommand is a command waiting for the user's forced reply.
type pendingCommand struct {
	kind      pendingKind
	symbol    string
	expiresAt time.Time
}

// pendingTable holds at most one pending command per prompt message so
// a reply can be matched back to the command that asked for it.
type pendingTable struct {
	mu      sync.Mutex
	entries map[int]pendingCommand
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[int]pendingCommand)}
}

// Put registers a pending command keyed by the prompt message id.
func (p *pendingTable) Put(messageID int, cmd pendingCommand) {
	cmd.expiresAt = time.Now().Add(core.PendingReplyTTL)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[messageID] = cmd
}

// Take consumes the pending command for a prompt message. Expired
// entries are dropped as if they never existed.
func (p *pendingTable) Take(messageID int) (pendingCommand, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cmd, ok := p.entries[messageID]
	if !ok {
		return pendingCommand{}, false
	}
	delete(p.entries, messageID)

	if time.Now().After(cmd.expiresAt) {
		return pendingCommand{}, false
	}
	return cmd, true
}
