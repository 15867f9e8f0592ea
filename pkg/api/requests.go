package api

// StartSessionRequest is the HTTP request body for POST /api/v1/sessions.
type StartSessionRequest struct {
	Instrument    string `json:"instrument" binding:"required"`
	ParticipantID string `json:"participant_id" binding:"required"`
}

// AnswerRequest is the HTTP request body for POST /api/v1/sessions/:id/answer.
// A/B/C echo the pending question's element and parameter indices so the
// driver can reject a stale answer (spec.md §6's step protocol).
type AnswerRequest struct {
	A      int    `json:"a"`
	B      int    `json:"b"`
	C      int    `json:"c"`
	Choice string `json:"choice"`
}
