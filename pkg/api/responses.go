package api

import "github.com/arborly/risklab/pkg/session"

// SessionResponse is the JSON envelope returned by the start/answer/resume
// endpoints: either a pending question or, once the engine is done, the
// final ordering — spec.md §6's "HTTP envelope".
type SessionResponse struct {
	SessionID      string `json:"session_id"`
	Done           bool   `json:"done"`
	A              int    `json:"a"`
	B              int    `json:"b"`
	C              int    `json:"c"`
	FinalOrdering  []int  `json:"final_ordering,omitempty"`
	NumComparisons int    `json:"num_comparisons"`
}

// newSessionResponse shapes a session.Outcome into the wire envelope.
func newSessionResponse(o session.Outcome) SessionResponse {
	resp := SessionResponse{
		SessionID:      o.SessionID,
		Done:           o.Done,
		NumComparisons: o.NumComparisons,
	}
	if o.Done {
		resp.FinalOrdering = o.FinalOrdering
		if resp.FinalOrdering == nil {
			resp.FinalOrdering = []int{}
		}
		return resp
	}
	resp.A = o.Question.Elem
	resp.B = o.Question.Comparand
	resp.C = o.Question.Param
	return resp
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string              `json:"status"`
	Version  string              `json:"version"`
	Database *HealthCheckDetails `json:"database,omitempty"`
}

// HealthCheckDetails mirrors database.HealthStatus's JSON-relevant fields.
type HealthCheckDetails struct {
	Status          string `json:"status"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}
