package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonPayload_JSON(t *testing.T) {
	payload := ComparisonPayload{
		Type:      EventTypeComparisonPublished,
		SessionID: "sess-1",
		SeqNo:     3,
		ElemA:     0,
		ElemB:     2,
		Param:     1,
		Choice:    "a",
		Timestamp: "2026-07-31T00:00:00Z",
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded ComparisonPayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestSessionStatusPayload_JSON(t *testing.T) {
	payload := SessionStatusPayload{
		Type:      EventTypeSessionStatus,
		SessionID: "sess-1",
		Status:    "completed",
		Timestamp: "2026-07-31T00:00:00Z",
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded SessionStatusPayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload, decoded)
}
