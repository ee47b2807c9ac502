package gateway

import (
	"time"

	"go.uber.org/zap"

	"msgdeck/internal/bus"
)

// EventHandler turns decoded gateway events into bus events. It does
// NOT touch the chat store directly — the sync engine subscribes to the
// bus independently.
type EventHandler struct {
	bus    *bus.Bus
	logger *zap.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(b *bus.Bus, logger *zap.Logger) *EventHandler {
	return &EventHandler{bus: b, logger: logger}
}

// Handle is the manager's OnEvent callback.
func (h *EventHandler) Handle(evt *Event) {
	switch evt.Type {
	case EventNewMessage:
		msg := evt.Message.ToMessage()
		h.logger.Debug("inbound message",
			zap.String("chat_id", msg.ChatID),
			zap.String("msg_id", msg.ID),
		)
		h.bus.Publish(bus.Event{
			Kind:      bus.KindGatewayMessage,
			Timestamp: time.Now(),
			Payload:   msg,
		})
	}
}
