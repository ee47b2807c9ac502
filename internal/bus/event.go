package bus

import "time"

// Event kinds published by the core. Subscribers filter by namespace
// prefix, e.g. "chat." matches both chat.updated and chat.selected.
const (
	KindConnStatusChanged = "conn.status_changed"
	KindGatewayMessage    = "gateway.message"
	KindChatUpdated       = "chat.updated"
	KindChatSelected      = "chat.selected"
	KindInboxAppended     = "inbox.appended"
	KindReplyHighlight    = "reply.highlight"
	KindNotifyToast       = "notify.toast"
	KindNotifyDesktop     = "notify.desktop"
	KindSendQueued        = "send.queued"
	KindSendAck           = "send.ack"
	KindSendFailed        = "send.failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
