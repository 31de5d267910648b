package mqtt

import (
	"testing"
)

func TestMsgBufferEmptyDrain(t *testing.T) {
	b := newMsgBuffer(10)
	got := b.drain()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestMsgBufferPushAndDrain(t *testing.T) {
	b := newMsgBuffer(10)
	for i := 0; i < 5; i++ {
		b.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := b.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	// Second drain should be empty
	got2 := b.drain()
	if got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestMsgBufferOverflowKeepsNewest(t *testing.T) {
	max := 5
	b := newMsgBuffer(max)

	// Push max+3 items (0..7), buffer should keep the most recent 5 (3..7)
	for i := 0; i < max+3; i++ {
		b.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := b.drain()
	if len(got) != max {
		t.Fatalf("expected %d items, got %d", max, len(got))
	}
	for i := 0; i < max; i++ {
		want := byte(i + 3) // oldest 3 were dropped
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestMsgBufferMultipleCycles(t *testing.T) {
	b := newMsgBuffer(5)

	// Cycle 1: push 3, drain
	for i := 0; i < 3; i++ {
		b.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got := b.drain()
	if len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	// Cycle 2: push 4, drain
	for i := 10; i < 14; i++ {
		b.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got = b.drain()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		want := byte(10 + i)
		if msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestMsgBufferLen(t *testing.T) {
	b := newMsgBuffer(10)
	if b.len() != 0 {
		t.Errorf("expected len 0, got %d", b.len())
	}

	b.push(queuedMsg{topic: "t"})
	b.push(queuedMsg{topic: "t"})
	if b.len() != 2 {
		t.Errorf("expected len 2, got %d", b.len())
	}

	b.drain()
	if b.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", b.len())
	}
}

func TestMsgBufferDroppedResetByDrain(t *testing.T) {
	b := newMsgBuffer(2)
	for i := 0; i < 4; i++ {
		b.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if b.dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", b.dropped)
	}

	b.drain()
	if b.dropped != 0 {
		t.Errorf("expected dropped reset after drain, got %d", b.dropped)
	}
}

func TestMsgBufferPreservesFields(t *testing.T) {
	b := newMsgBuffer(10)
	b.push(queuedMsg{
		topic:    "safety/test",
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := b.drain()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != "safety/test" {
		t.Errorf("topic: got %s, want safety/test", got[0].topic)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}
