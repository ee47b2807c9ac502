package gateway

import (
	"encoding/json"
	"fmt"
)

// Decode parses a raw gateway frame into a typed event. Frames with an
// unrecognized type decode to (nil, nil) and are skipped; malformed
// frames return an error for the read loop to log. Neither case may
// stop the stream consumer.
func Decode(raw []byte) (*Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case EventNewMessage:
		var msg NewMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		return &Event{Type: env.Type, Message: &msg}, nil
	default:
		return nil, nil
	}
}
