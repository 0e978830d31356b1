package mqtt

import "log"

// queuedMsg is a serialized message held while the broker is unreachable.
type queuedMsg struct {
	topic   string
	payload []byte
	qos     byte
}

// offlineQueue holds notification messages during a broker outage so they
// can be replayed on reconnect. Oldest messages are dropped past capacity.
// Not safe for concurrent use; the publisher owns the mutex that guards it.
type offlineQueue struct {
	msgs     []queuedMsg
	capacity int
	dropped  bool // a message was lost since the last drain
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{capacity: capacity}
}

func (q *offlineQueue) push(msg queuedMsg) {
	if len(q.msgs) == q.capacity {
		if !q.dropped {
			log.Printf("mqtt: offline queue full (%d messages), dropping oldest", q.capacity)
			q.dropped = true
		}
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = msg
		return
	}
	q.msgs = append(q.msgs, msg)
}

// drain returns the queued messages oldest first and empties the queue.
func (q *offlineQueue) drain() []queuedMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	q.dropped = false
	return out
}
