package session

import (
	"encoding/json"
	"fmt"

	"github.com/arborly/risklab/pkg/ordering"
)

// encodeInto snapshots engine into rec.State and, if outcome is done,
// populates the denormalized FinalOrdering/NumComparisons columns so a
// completed session can be read back without re-decoding the engine.
func encodeInto(rec *Record, engine *ordering.Engine, outcome Outcome) error {
	raw, err := json.Marshal(engine.Encode())
	if err != nil {
		return fmt.Errorf("encode engine state: %w", err)
	}
	rec.State = raw
	rec.NumComparisons = outcome.NumComparisons
	if outcome.Done {
		rec.FinalOrdering = outcome.FinalOrdering
	}
	return nil
}

func decodeRecord(raw []byte, out *ordering.Record) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return nil
}
