package mqtt

import "testing"

func fill(b *backlog, n int) {
	for i := 0; i < n; i++ {
		b.add(pending{topic: "t", payload: []byte{byte(i)}})
	}
}

func payloads(msgs []pending) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestBacklogEmpty(t *testing.T) {
	b := newBacklog(4)
	if got := b.take(); got != nil {
		t.Errorf("take() = %v, want nil", got)
	}
}

func TestBacklogOrder(t *testing.T) {
	b := newBacklog(10)
	fill(b, 5)

	if b.len() != 5 {
		t.Errorf("len = %d, want 5", b.len())
	}
	got := payloads(b.take())
	if string(got) != string([]byte{0, 1, 2, 3, 4}) {
		t.Errorf("take() = %v", got)
	}
	if b.take() != nil {
		t.Error("second take not empty")
	}
}

func TestBacklogDropsOldest(t *testing.T) {
	b := newBacklog(5)
	fill(b, 8)

	got := payloads(b.take())
	if string(got) != string([]byte{3, 4, 5, 6, 7}) {
		t.Errorf("take() = %v, want [3 4 5 6 7]", got)
	}
}

func TestBacklogReuse(t *testing.T) {
	b := newBacklog(3)
	fill(b, 2)
	b.take()
	fill(b, 4)

	got := payloads(b.take())
	if string(got) != string([]byte{1, 2, 3}) {
		t.Errorf("take() = %v, want [1 2 3]", got)
	}
}

func TestBacklogMinimumCapacity(t *testing.T) {
	b := newBacklog(0)
	fill(b, 3)
	if got := payloads(b.take()); string(got) != string([]byte{2}) {
		t.Errorf("take() = %v, want [2]", got)
	}
}
