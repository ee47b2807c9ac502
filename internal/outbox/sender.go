// Package outbox drains locally composed messages to the backend. The
// optimistic echo is modeled as explicit message state (queued, sending,
// sent, failed) and reconciled against the authoritative copy that
// eventually arrives on the gateway stream.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"msgdeck/internal/bus"
	"msgdeck/internal/store"
)

// TextSender is the interface for sending text messages to the backend.
type TextSender interface {
	SendText(ctx context.Context, chatID, text string) (serverMsgID string, err error)
}

// Entry is one queued outbound message.
type Entry struct {
	ClientMsgID string
	ChatID      string
	Body        string
	Status      string
	ServerMsgID string
	Error       string
	QueuedAtMs  int64
}

// Sender drains the outbox and sends messages via the backend API.
type Sender struct {
	mu      sync.Mutex
	entries []*Entry
	byID    map[string]*Entry

	sender TextSender
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewSender creates a new outbox sender.
func NewSender(sender TextSender, b *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		byID:   make(map[string]*Entry),
		sender: sender,
		bus:    b,
		logger: logger,
	}
}

// Queue accepts a locally composed message and returns its optimistic
// echo, status queued, so the transcript can show it immediately.
func (s *Sender) Queue(chatID, body string) *store.Message {
	now := time.Now().UnixMilli()
	e := &Entry{
		ClientMsgID: uuid.New().String(),
		ChatID:      chatID,
		Body:        body,
		Status:      store.StatusQueued,
		QueuedAtMs:  now,
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.byID[e.ClientMsgID] = e
	s.mu.Unlock()

	msg := &store.Message{
		ID:          e.ClientMsgID,
		ChatID:      chatID,
		Body:        body,
		FromMe:      true,
		TimestampMs: now,
		Status:      store.StatusQueued,
	}
	s.publish(bus.KindSendQueued, msg)
	return msg
}

// Start begins draining pending entries.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Entries returns a snapshot of the outbox.
func (s *Sender) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

// Reconcile matches an authoritative inbound copy of a locally sent
// message against the outbox; on a match the optimistic entry is
// confirmed and removed. Returns whether a match was found.
func (s *Sender) Reconcile(msg *store.Message) bool {
	if !msg.FromMe || msg.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.Status == store.StatusSent && e.ServerMsgID == msg.ID {
			delete(s.byID, e.ClientMsgID)
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	s.mu.Lock()
	var pending []*Entry
	for _, e := range s.entries {
		if e.Status == store.StatusQueued {
			e.Status = store.StatusSending
			pending = append(pending, e)
		}
	}
	s.mu.Unlock()

	for _, e := range pending {
		serverMsgID, err := s.sender.SendText(ctx, e.ChatID, e.Body)
		if err != nil {
			s.logger.Error("failed to send message", zap.Error(err), zap.String("client_msg_id", e.ClientMsgID))
			s.mu.Lock()
			e.Status = store.StatusFailed
			e.Error = err.Error()
			s.mu.Unlock()
			s.publish(bus.KindSendFailed, Entry{ClientMsgID: e.ClientMsgID, ChatID: e.ChatID, Status: store.StatusFailed, Error: err.Error()})
			continue
		}

		s.mu.Lock()
		e.Status = store.StatusSent
		e.ServerMsgID = serverMsgID
		snapshot := *e
		s.mu.Unlock()

		s.logger.Info("message sent",
			zap.String("client_msg_id", e.ClientMsgID),
			zap.String("server_msg_id", serverMsgID),
		)
		s.publish(bus.KindSendAck, snapshot)
	}
}

func (s *Sender) publish(kind string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
