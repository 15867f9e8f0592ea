package events

// ComparisonPayload is the payload for comparison.published events.
// Published each time the driver accepts an answer; A/B/Param are element
// and parameter indices into the instrument's lists.
type ComparisonPayload struct {
	Type      string `json:"type"` // always EventTypeComparisonPublished
	SessionID string `json:"session_id"`
	SeqNo     int    `json:"seq_no"`
	ElemA     int    `json:"elem_a"`
	ElemB     int    `json:"elem_b"`
	Param     int    `json:"param"`
	Choice    string `json:"choice"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// SessionStatusPayload is the payload for session.status events.
// Written only by Publisher.PublishSessionStatus, which has no caller.
type SessionStatusPayload struct {
	Type      string `json:"type"`       // always EventTypeSessionStatus
	SessionID string `json:"session_id"` // session UUID
	Status    string `json:"status"`     // new status (e.g. "in_progress", "completed")
	Timestamp string `json:"timestamp"`  // RFC3339Nano
}
