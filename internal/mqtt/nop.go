package mqtt

// Nop is the publisher used when no broker is configured.
type Nop struct{}

func (Nop) PushDelta(string) error { return nil }

func (Nop) PublishSystem(SystemEvent) error { return nil }

func (Nop) CheckForUpdate() {}

// Commands returns a nil channel, which never delivers.
func (Nop) Commands() <-chan []byte { return nil }

func (Nop) Close() error { return nil }

func (Nop) IsConnected() bool { return false }
