package mqtt

import "log"

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// msgBuffer holds messages published while the broker is unreachable.
// Once full, the oldest message is dropped to make room, so a long outage
// keeps the most recent history. Not safe for concurrent use; the
// publisher synchronizes access.
type msgBuffer struct {
	msgs    []queuedMsg
	max     int
	dropped int // messages discarded since the last drain
}

func newMsgBuffer(max int) *msgBuffer {
	return &msgBuffer{max: max}
}

func (b *msgBuffer) push(m queuedMsg) {
	if len(b.msgs) == b.max {
		if b.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", b.max)
		}
		b.dropped++
		copy(b.msgs, b.msgs[1:])
		b.msgs[len(b.msgs)-1] = m
		return
	}
	b.msgs = append(b.msgs, m)
}

// drain returns the buffered messages oldest first and empties the buffer.
func (b *msgBuffer) drain() []queuedMsg {
	out := b.msgs
	b.msgs = nil
	b.dropped = 0
	return out
}

func (b *msgBuffer) len() int { return len(b.msgs) }
