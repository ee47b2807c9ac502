package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"msgdeck/internal/store"
)

// EventNewMessage is the only envelope type the core consumes.
const EventNewMessage = "NEW_MESSAGE"

// Envelope is the tagged union carried on every gateway frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is a decoded gateway event.
type Event struct {
	Type    string
	Message *NewMessage
}

// NewMessage is the NEW_MESSAGE payload.
type NewMessage struct {
	From      string    `json:"from"`
	Group     string    `json:"group"`
	Body      string    `json:"body"`
	Timestamp Timestamp `json:"timestamp"`
	ChatID    string    `json:"chatId"`
	MessageID string    `json:"messageId"`
	FromMe    bool      `json:"fromMe"`
	Media     *Media    `json:"media"`
	ReplyTo   *ReplyTo  `json:"replyTo"`
}

// ReplyTo is the quoted-message reference attached to a reply.
type ReplyTo struct {
	ID     string `json:"id"`
	Body   string `json:"body"`
	Author string `json:"author"`
	FromMe bool   `json:"fromMe"`
	Type   string `json:"type"`
}

// Media describes an attachment on a NEW_MESSAGE payload.
type Media struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Timestamp is a millisecond unix timestamp that the gateway emits
// either as a JSON number or as a string.
type Timestamp int64

// UnmarshalJSON accepts a number, a numeric string, or an RFC 3339 string.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*t = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = Timestamp(ms)
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		*t = Timestamp(parsed.UnixMilli())
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	ms, err := n.Int64()
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", n, err)
	}
	*t = Timestamp(ms)
	return nil
}

// ToMessage converts the wire payload to a store message.
func (m *NewMessage) ToMessage() *store.Message {
	msg := &store.Message{
		ID:          m.MessageID,
		ChatID:      m.ChatID,
		ChatName:    m.Group,
		Body:        m.Body,
		Author:      m.From,
		TimestampMs: int64(m.Timestamp),
		FromMe:      m.FromMe,
		Status:      store.StatusReceived,
	}
	if m.Media != nil {
		msg.HasMedia = true
		msg.Media = &store.MediaPayload{
			Type:     m.Media.Type,
			URL:      m.Media.URL,
			Filename: m.Media.Filename,
		}
	}
	if m.ReplyTo != nil {
		msg.ReplyTo = &store.ReplyRef{
			TargetID:     m.ReplyTo.ID,
			TargetBody:   m.ReplyTo.Body,
			TargetAuthor: m.ReplyTo.Author,
			TargetFromMe: m.ReplyTo.FromMe,
			TargetType:   m.ReplyTo.Type,
		}
	}
	return msg
}
