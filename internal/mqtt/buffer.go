package mqtt

import "github.com/rs/zerolog/log"

// pending is a message held back while the broker is unreachable.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the newest messages up to a fixed capacity.
// Callers synchronize access.
type backlog struct {
	items   []pending
	next    int
	size    int
	dropped bool
}

func newBacklog(capacity int) *backlog {
	if capacity < 1 {
		capacity = 1
	}
	return &backlog{items: make([]pending, capacity)}
}

func (b *backlog) add(msg pending) {
	capacity := len(b.items)
	b.items[b.next] = msg
	b.next = (b.next + 1) % capacity
	if b.size < capacity {
		b.size++
		return
	}
	if !b.dropped {
		log.Warn().Int("capacity", capacity).Msg("MQTT backlog full, dropping oldest")
		b.dropped = true
	}
}

// take returns the held messages oldest first and empties the backlog.
func (b *backlog) take() []pending {
	if b.size == 0 {
		return nil
	}
	capacity := len(b.items)
	out := make([]pending, 0, b.size)
	for i := b.size; i > 0; i-- {
		out = append(out, b.items[(b.next-i+capacity)%capacity])
	}
	b.next, b.size, b.dropped = 0, 0, false
	return out
}

func (b *backlog) len() int {
	return b.size
}
