package notify

import (
	"msgdeck/internal/mention"
	"msgdeck/internal/store"
)

// ShouldNotify decides whether an inbound message warrants interrupting
// the user addressed by localUserTag.
//
// An untagged body is a broadcast to everyone in the chat; a tagged body
// narrows visibility to the tagged subset. Tags on the quoted reply
// target only narrow in, they never broadcast.
func ShouldNotify(msg *store.Message, localUserTag string) bool {
	bodyTags := mention.ExtractTags(msg.Body)
	taggedInBody := bodyTags.Empty() || bodyTags.Contains(localUserTag)

	var replyBody string
	if msg.ReplyTo != nil {
		replyBody = msg.ReplyTo.TargetBody
	}
	replyTags := mention.ExtractTags(replyBody)
	taggedInReply := !replyTags.Empty() && replyTags.Contains(localUserTag)

	return taggedInBody || taggedInReply
}
