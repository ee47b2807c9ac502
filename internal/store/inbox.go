package store

import (
	"slices"
	"strings"
	"sync"
	"time"

	"msgdeck/internal/bus"
)

// statusBroadcastChat is the gateway's status feed; it never reaches the inbox.
const statusBroadcastChat = "status@broadcast"

// InboxEntry is one inbound message shown in the inbox panel.
type InboxEntry struct {
	Message    Message
	ReceivedAt time.Time
}

// Inbox accumulates inbound messages for the inbox panel, newest first.
// Messages the local account sent into a group are filtered out so the
// panel only shows traffic that can require a reaction.
type Inbox struct {
	mu         sync.RWMutex
	entries    []InboxEntry
	accountIDs []string
	bus        *bus.Bus
}

// NewInbox creates an inbox. accountIDs are the local account's full
// sender ids used to recognize its own group messages.
func NewInbox(accountIDs []string, b *bus.Bus) *Inbox {
	return &Inbox{accountIDs: accountIDs, bus: b}
}

// Accepts reports whether msg belongs in the inbox.
func (in *Inbox) Accepts(msg *Message) bool {
	if msg.ChatID == statusBroadcastChat {
		return false
	}
	if !isGroupChat(msg.ChatID) {
		return true
	}
	sender := senderFromGroupMessageID(msg.ID)
	return !slices.Contains(in.accountIDs, sender)
}

// Add appends msg if it passes the filter. Returns whether it was kept.
func (in *Inbox) Add(msg *Message) bool {
	if !in.Accepts(msg) {
		return false
	}
	entry := InboxEntry{Message: *msg, ReceivedAt: time.Now()}

	in.mu.Lock()
	in.entries = append([]InboxEntry{entry}, in.entries...)
	in.mu.Unlock()

	if in.bus != nil {
		in.bus.Publish(bus.Event{Kind: bus.KindInboxAppended, Timestamp: time.Now(), Payload: entry})
	}
	return true
}

// Entries returns a snapshot, newest first.
func (in *Inbox) Entries() []InboxEntry {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]InboxEntry, len(in.entries))
	copy(out, in.entries)
	return out
}

// Remove deletes the entry at index i. Out-of-range indices are ignored.
func (in *Inbox) Remove(i int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if i < 0 || i >= len(in.entries) {
		return
	}
	in.entries = append(in.entries[:i], in.entries[i+1:]...)
}

// Clear empties the inbox.
func (in *Inbox) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.entries = nil
}

func isGroupChat(chatID string) bool {
	return strings.HasSuffix(chatID, "@g.us")
}

// senderFromGroupMessageID extracts the actual sender from a composite
// group message id, whose last underscore-separated part carries it.
func senderFromGroupMessageID(messageID string) string {
	if messageID == "" {
		return ""
	}
	parts := strings.Split(messageID, "_")
	return parts[len(parts)-1]
}
