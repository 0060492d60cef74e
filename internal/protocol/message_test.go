package protocol

import (
	"encoding/json"
	"testing"
)

func TestMessage_RoundTrip(t *testing.T) {
	raw := []byte(`{"id":"evt_1","type":"event","op":"scheduler.state","payload":{"status":"ready"}}`)
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.Op != OpSchedulerState || msg.Type != TypeEvent {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNewEvent(t *testing.T) {
	msg := NewEvent("evt_2", OpSessionClosed, map[string]string{"character": "alice"})
	if msg.Type != TypeEvent || msg.ID != "evt_2" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if string(msg.Payload) != `{"character":"alice"}` {
		t.Fatalf("unexpected payload %s", msg.Payload)
	}
}

func TestMustRaw_UnencodableIsNull(t *testing.T) {
	if got := string(MustRaw(make(chan int))); got != "null" {
		t.Fatalf("expected null, got %s", got)
	}
}
