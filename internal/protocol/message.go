// Package protocol is the envelope pushed to local API websocket clients.
package protocol

import "encoding/json"

const TypeEvent = "event"

// Event ops.
const (
	OpSchedulerState  = "scheduler.state"
	OpSchedulerAction = "scheduler.action"
	OpSessionOpened   = "session.opened"
	OpSessionClosed   = "session.closed"
)

type Message struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

func NewEvent(id, op string, payload any) Message {
	return Message{ID: id, Type: TypeEvent, Op: op, Payload: MustRaw(payload)}
}

// MustRaw marshals v, yielding null when v cannot be encoded.
func MustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
