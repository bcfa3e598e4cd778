package mqtt

// FakePublisher records outgoing messages for test assertions.
type FakePublisher struct {
	Deltas       []string
	SystemEvents []SystemEvent
	UpdateChecks int

	// PushError, if set, is returned by PushDelta.
	PushError error

	Closed    bool
	Connected bool

	commands chan []byte
}

// NewFakePublisher returns a connected FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true, commands: make(chan []byte, 16)}
}

// PushDelta records delta.
func (f *FakePublisher) PushDelta(delta string) error {
	if f.PushError != nil {
		return f.PushError
	}
	f.Deltas = append(f.Deltas, delta)
	return nil
}

// PublishSystem records event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// CheckForUpdate counts update checks.
func (f *FakePublisher) CheckForUpdate() {
	f.UpdateChecks++
}

// Commands delivers payloads passed to Inject.
func (f *FakePublisher) Commands() <-chan []byte {
	return f.commands
}

// Inject queues a cloud command.
func (f *FakePublisher) Inject(payload string) {
	f.commands <- []byte(payload)
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns f.Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Deltas = nil
	f.SystemEvents = nil
	f.UpdateChecks = 0
	f.PushError = nil
	f.Closed = false
}
