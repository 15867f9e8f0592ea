// Package events provides real-time event delivery via WebSocket and
// PostgreSQL NOTIFY/LISTEN for cross-replica distribution.
//
// A session publishes exactly one event type — comparison.published —
// each time the driver accepts an answer. Subscribers get it live over
// the session's channel, or catch up on everything they missed via the
// catchup query backed by the persisted event log.
package events

// EventTypeComparisonPublished is published each time a session's driver
// accepts an answer and advances the ordering engine.
const EventTypeComparisonPublished = "comparison.published"

// EventTypeSessionStatus is the type of events written by
// Publisher.PublishSessionStatus. Neither the session driver nor the
// cleanup service calls it, so no session.status events are published.
const EventTypeSessionStatus = "session.status"

// GlobalSessionsChannel is the channel Publisher.PublishSessionStatus
// notifies. Clients may subscribe to it; nothing currently publishes to it.
const GlobalSessionsChannel = "sessions"

// SessionChannel returns the channel name for one session's events.
// Format: "session:{session_id}"
func SessionChannel(sessionID string) string {
	return "session:" + sessionID
}

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`                  // "subscribe", "unsubscribe", "catchup", "ping"
	Channel     string `json:"channel,omitempty"`       // Channel name (e.g., "session:abc-123")
	LastEventID *int   `json:"last_event_id,omitempty"` // For catchup
}
