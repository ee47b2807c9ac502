package store

import (
	"sort"
	"sync"
	"time"

	"msgdeck/internal/bus"
)

// dedupeWindow bounds the replay guard. After a reconnect the gateway may
// replay a backlog; ids older than the window are accepted again.
const dedupeWindow = 4096

// Store is the authoritative in-memory collection of chats and their
// last-message summaries. It owns iteration order and unread bookkeeping
// and publishes chat.* events for the views instead of reaching into them.
type Store struct {
	mu       sync.RWMutex
	chats    map[string]*Chat
	order    []string // chat ids, most recently active first
	selected string

	seen     map[string]struct{}
	seenFIFO []string

	bus *bus.Bus
}

// New creates an empty chat store.
func New(b *bus.Bus) *Store {
	return &Store{
		chats: make(map[string]*Chat),
		seen:  make(map[string]struct{}),
		bus:   b,
	}
}

// ApplyInbound merges an inbound message into the chat list. An unknown
// chat is synthesized, never an error. Returns false when the message was
// discarded as a duplicate replay.
func (s *Store) ApplyInbound(msg *Message) bool {
	s.mu.Lock()

	if s.isDuplicate(msg) {
		s.mu.Unlock()
		return false
	}

	summary := &MessageSummary{
		Body:        msg.Body,
		SenderRef:   msg.Author,
		TimestampMs: msg.TimestampMs,
		FromMe:      msg.FromMe,
	}

	c, ok := s.chats[msg.ChatID]
	if !ok {
		// Inbound events are always group-scoped on this gateway.
		c = &Chat{
			ID:          msg.ChatID,
			Name:        msg.ChatName,
			IsGroup:     true,
			UnreadCount: 1,
		}
		s.chats[msg.ChatID] = c
		s.order = append(s.order, msg.ChatID)
	} else if msg.ChatID == s.selected {
		c.UnreadCount = 0
	} else {
		c.UnreadCount++
	}
	c.LastMessage = summary
	s.moveToFront(msg.ChatID)

	snapshot := *c
	s.mu.Unlock()

	s.publish(bus.KindChatUpdated, snapshot)
	return true
}

// Select makes chatID the actively viewed chat and zeroes its unread
// count. Selecting a chat the store has never seen creates a placeholder
// so a notification click can land before the first list refresh.
func (s *Store) Select(chatID string) {
	s.mu.Lock()
	c, ok := s.chats[chatID]
	if !ok {
		c = &Chat{ID: chatID, Name: chatID}
		s.chats[chatID] = c
		s.order = append(s.order, chatID)
	}
	s.selected = chatID
	c.UnreadCount = 0
	snapshot := *c
	s.mu.Unlock()

	s.publish(bus.KindChatSelected, snapshot)
}

// Selected returns the id of the actively viewed chat, or empty.
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Get returns a copy of the chat with the given id.
func (s *Store) Get(chatID string) (Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return Chat{}, false
	}
	return *c, true
}

// ChatsByActivity returns all chats sorted by last message timestamp
// descending. Chats without a message sort last; ties keep the store's
// most-recently-active iteration order.
func (s *Store) ChatsByActivity() []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Chat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.chats[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(&out[i]) > lastActivity(&out[j])
	})
	return out
}

func lastActivity(c *Chat) int64 {
	if c.LastMessage == nil {
		return 0
	}
	return c.LastMessage.TimestampMs
}

// isDuplicate records the message id and reports whether it was already
// seen inside the replay window. Caller holds s.mu.
func (s *Store) isDuplicate(msg *Message) bool {
	if msg.ID == "" {
		return false
	}
	key := msg.ChatID + "\x00" + msg.ID
	if _, dup := s.seen[key]; dup {
		return true
	}
	s.seen[key] = struct{}{}
	s.seenFIFO = append(s.seenFIFO, key)
	if len(s.seenFIFO) > dedupeWindow {
		delete(s.seen, s.seenFIFO[0])
		s.seenFIFO = s.seenFIFO[1:]
	}
	return false
}

// moveToFront makes chatID the first entry of the iteration order,
// keeping every other chat's relative order. Caller holds s.mu.
func (s *Store) moveToFront(chatID string) {
	for i, id := range s.order {
		if id == chatID {
			copy(s.order[1:i+1], s.order[:i])
			s.order[0] = chatID
			return
		}
	}
}

func (s *Store) publish(kind string, chat Chat) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: chat})
}
