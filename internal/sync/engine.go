// Package sync drives the reconciliation pipeline: gateway events are
// merged into the chat store, indexed for reply navigation, and
// evaluated for notification targeting, strictly in arrival order.
package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"msgdeck/internal/api"
	"msgdeck/internal/bus"
	"msgdeck/internal/notify"
	"msgdeck/internal/outbox"
	"msgdeck/internal/replies"
	"msgdeck/internal/store"
)

// TranscriptFetcher loads a chat transcript from the backend.
type TranscriptFetcher interface {
	ChatMessages(ctx context.Context, chatID string) ([]api.TranscriptMessage, error)
}

// Engine consumes the gateway event stream and keeps the in-memory view
// consistent. A single goroutine handles events one at a time, so the
// components it drives see them sequentially, in arrival order.
type Engine struct {
	chats      *store.Store
	inbox      *store.Inbox
	resolver   *replies.Resolver
	dispatcher *notify.Dispatcher
	outbox     *outbox.Sender
	fetcher    TranscriptFetcher
	bus        *bus.Bus
	logger     *zap.Logger

	userTag string
	cancel  context.CancelFunc
}

// NewEngine creates the reconciliation engine for localUserTag.
func NewEngine(
	chats *store.Store,
	inbox *store.Inbox,
	resolver *replies.Resolver,
	dispatcher *notify.Dispatcher,
	ob *outbox.Sender,
	fetcher TranscriptFetcher,
	b *bus.Bus,
	localUserTag string,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		chats:      chats,
		inbox:      inbox,
		resolver:   resolver,
		dispatcher: dispatcher,
		outbox:     ob,
		fetcher:    fetcher,
		bus:        b,
		userTag:    localUserTag,
		logger:     logger,
	}
}

// Start subscribes to inbound gateway events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("gateway.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindGatewayMessage:
		msg, ok := evt.Payload.(*store.Message)
		if !ok {
			return
		}
		e.HandleMessage(msg)
	}
}

// HandleMessage merges one inbound message into the view and decides
// whether it interrupts the user.
func (e *Engine) HandleMessage(msg *store.Message) {
	if e.outbox != nil && msg.FromMe {
		if e.outbox.Reconcile(msg) {
			e.logger.Debug("optimistic send confirmed", zap.String("msg_id", msg.ID))
		}
	}

	if !e.chats.ApplyInbound(msg) {
		e.logger.Debug("duplicate delivery discarded",
			zap.String("chat_id", msg.ChatID),
			zap.String("msg_id", msg.ID),
		)
		return
	}

	e.resolver.Index(msg)

	kept := e.inbox.Add(msg)
	if msg.FromMe || !kept {
		return
	}

	if notify.ShouldNotify(msg, e.userTag) {
		e.dispatcher.Dispatch(msg)
	}
}

// OpenChat selects a chat, loads its transcript and rebuilds the reply
// index from it. This is what a chat-list click runs.
func (e *Engine) OpenChat(ctx context.Context, chatID string) ([]store.Message, error) {
	transcript, err := e.fetcher.ChatMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	e.chats.Select(chatID)
	e.resolver.Reset()

	msgs := make([]store.Message, 0, len(transcript))
	for _, tm := range transcript {
		msg := store.Message{
			ID:          tm.ID,
			ChatID:      chatID,
			Body:        tm.Body,
			Author:      firstNonEmpty(tm.Author, tm.From),
			TimestampMs: tm.Timestamp,
			FromMe:      tm.Sent == 1,
			Status:      store.StatusReceived,
		}
		e.resolver.Index(&msg)
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// OpenNotification is the toast click-through action: select the chat
// and request a scroll to the message via a transient highlight. An
// unresolvable message id leaves the selection in place and scrolls
// nowhere.
func (e *Engine) OpenNotification(t notify.Toast) {
	e.chats.Select(t.ChatID)
	if t.MessageID == "" {
		return
	}
	if _, ok := e.resolver.Locate(t.MessageID); !ok {
		e.logger.Debug("notification target not in loaded transcript", zap.String("msg_id", t.MessageID))
		return
	}
	e.resolver.Highlight(t.MessageID)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
