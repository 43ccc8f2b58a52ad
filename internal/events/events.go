package events

import (
	"encoding/json"
	"time"
)

// Event types pushed to dashboard subscribers.
const (
	TypeRunState     = "run_state"
	TypeLeadsUpdated = "leads_updated"
	TypeConfigSaved  = "config_saved"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Publisher is the one method the pipeline needs from a Hub.
type Publisher interface {
	Publish(evt string)
}

// MakeEvent encodes an envelope. Data that fails to marshal is dropped
// rather than failing the publish.
func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	b, _ := json.Marshal(Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	})
	return string(b)
}
