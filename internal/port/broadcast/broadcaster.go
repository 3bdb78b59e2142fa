// Package broadcast defines the port for pushing session events to connected pages.
package broadcast

import "context"

// Broadcaster sends real-time events to the clients observing one session.
type Broadcaster interface {
	// BroadcastToSession sends a typed event to every client attached to
	// sessionID. Sessions without observers are ignored.
	BroadcastToSession(ctx context.Context, sessionID, eventType string, payload any)
}
