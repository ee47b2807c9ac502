package store

// MessageSummary is the chat-list preview of a chat's latest message.
// Distinct from Message: the store keeps only summaries, full transcripts
// belong to whichever view currently displays them.
type MessageSummary struct {
	Body        string
	SenderRef   string
	TimestampMs int64
	FromMe      bool
}

// Chat represents a conversation thread in the in-memory chat list.
type Chat struct {
	ID           string
	Name         string
	IsGroup      bool
	LastMessage  *MessageSummary
	UnreadCount  int
	ProfileImage []byte
}

// MediaPayload describes an attachment on a message.
type MediaPayload struct {
	Type     string
	URL      string
	Filename string
}

// ReplyRef points from a message to the earlier message it responds to.
type ReplyRef struct {
	TargetID     string
	TargetBody   string
	TargetAuthor string
	TargetFromMe bool
	TargetType   string
}

// Message delivery statuses. Inbound messages are always "received";
// the outbox walks locally sent messages through queued -> sending ->
// sent (or failed) so the optimistic echo is an explicit state, not a
// fabricated record.
const (
	StatusReceived = "received"
	StatusQueued   = "queued"
	StatusSending  = "sending"
	StatusSent     = "sent"
	StatusFailed   = "failed"
)

// Message is a full transcript message.
type Message struct {
	ID          string
	ChatID      string
	ChatName    string
	Body        string
	Author      string
	TimestampMs int64
	FromMe      bool
	HasMedia    bool
	Media       *MediaPayload
	ReplyTo     *ReplyRef
	Status      string
}
