package record

import "encoding/json"

// Envelope is the storage representation of a record: identity and version
// alongside the JSON document holding the column values. Stores move
// envelopes between buckets and snapshots without interpreting the payload;
// rules decode it on demand.
type Envelope struct {
	Table   string          `json:"table"`
	ID      string          `json:"id"`
	Version int64           `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Fields decodes the payload into a flat column map. The bytes are owned by
// the envelope; decoding never mutates shared state.
func (e Envelope) Fields() (map[string]any, error) {
	if len(e.Payload) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone returns a deep copy of the envelope.
func (e Envelope) Clone() Envelope {
	out := e
	if e.Payload != nil {
		out.Payload = make(json.RawMessage, len(e.Payload))
		copy(out.Payload, e.Payload)
	}
	return out
}
