// Package replies indexes the currently loaded transcript by message id
// so reply references can be resolved for jump-to-original navigation.
package replies

import (
	"sync"
	"time"

	"msgdeck/internal/bus"
	"msgdeck/internal/store"
)

// HighlightDuration is how long a located message stays highlighted.
const HighlightDuration = 1500 * time.Millisecond

// Locatable is a resolved reply target.
type Locatable struct {
	Message store.Message
}

// Resolver maps message ids to messages of the transcript currently in
// view. A miss means "cannot navigate", never an error: the target may
// be deleted, or live in a chat that is not open.
type Resolver struct {
	mu       sync.RWMutex
	index    map[string]store.Message
	hlID     string
	hlExpiry time.Time

	bus *bus.Bus
}

// NewResolver creates an empty resolver.
func NewResolver(b *bus.Bus) *Resolver {
	return &Resolver{
		index: make(map[string]store.Message),
		bus:   b,
	}
}

// Index records a message for later lookup.
func (r *Resolver) Index(msg *store.Message) {
	if msg.ID == "" {
		return
	}
	r.mu.Lock()
	r.index[msg.ID] = *msg
	r.mu.Unlock()
}

// Remove drops a message from the index, e.g. after the user deletes it.
func (r *Resolver) Remove(messageID string) {
	r.mu.Lock()
	delete(r.index, messageID)
	r.mu.Unlock()
}

// Reset clears the index, e.g. when a different transcript is loaded.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.index = make(map[string]store.Message)
	r.hlID = ""
	r.mu.Unlock()
}

// Locate returns the indexed message with the given id, if any.
func (r *Resolver) Locate(messageID string) (*Locatable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.index[messageID]
	if !ok {
		return nil, false
	}
	return &Locatable{Message: msg}, true
}

// Highlight activates a transient highlight on the given message. It
// expires on its own after HighlightDuration; highlighting again resets
// the clock. Highlighting an unindexed id is a no-op.
func (r *Resolver) Highlight(messageID string) {
	r.mu.Lock()
	if _, ok := r.index[messageID]; !ok {
		r.mu.Unlock()
		return
	}
	r.hlID = messageID
	r.hlExpiry = time.Now().Add(HighlightDuration)
	r.mu.Unlock()

	if r.bus != nil {
		r.bus.Publish(bus.Event{Kind: bus.KindReplyHighlight, Timestamp: time.Now(), Payload: messageID})
	}
}

// Highlighted returns the id of the currently highlighted message, or
// empty once the highlight has expired.
func (r *Resolver) Highlighted() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.hlID == "" || time.Now().After(r.hlExpiry) {
		return ""
	}
	return r.hlID
}
