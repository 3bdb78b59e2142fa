package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// NewMessage marshals payload into a typed Message.
func NewMessage(eventType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: eventType, Payload: json.RawMessage(data)}, nil
}

// BroadcastToSession marshals a typed event and sends it to the session's
// clients. It implements broadcast.Broadcaster.
func (h *Hub) BroadcastToSession(ctx context.Context, sessionID, eventType string, payload any) {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, sessionID, msg)
}
