package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// StableHash produces a hex SHA-256 over the canonical JSON form of v.
// Marshalling through an intermediate generic value normalizes struct field
// ordering to sorted object keys, so semantically equal values hash equally
// regardless of the Go type that produced them.
func StableHash(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return hashBytes([]byte(fmt.Sprintf("unmarshalable:%v", v)))
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return hashBytes(raw)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return hashBytes(raw)
	}
	return hashBytes(canonical)
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// chainEventHash links an event onto the running hash chain. Timestamps are
// deliberately excluded so replays with a different clock still match.
func chainEventHash(prev string, e Envelope) string {
	return StableHash(map[string]any{
		"prev":       prev,
		"event_seq":  e.EventSeq,
		"event_type": e.Type,
		"payload":    e.Payload,
	})
}
