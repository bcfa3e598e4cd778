package activity

import (
	"sync"
	"time"
)

// Memory is an in-memory activity log for tests. Notes holds every note
// regardless of Enabled; Entries only returns notes kept while enabled.
type Memory struct {
	mu      sync.Mutex
	Notes   []string
	kept    []Entry
	Disable bool
}

// Note appends text.
func (m *Memory) Note(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notes = append(m.Notes, text)
	if !m.Disable {
		m.kept = append(m.kept, Entry{ID: int64(len(m.kept) + 1), Timestamp: time.Now().UTC(), Text: text})
	}
}

// Enabled reports whether notes are kept.
func (m *Memory) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Disable
}

// SetEnabled switches keeping on or off.
func (m *Memory) SetEnabled(keep bool) {
	m.mu.Lock()
	m.Disable = !keep
	m.mu.Unlock()
}

// Entries returns the newest limit kept notes, oldest first.
func (m *Memory) Entries(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := 0
	if limit > 0 && len(m.kept) > limit {
		from = len(m.kept) - limit
	}
	return append([]Entry(nil), m.kept[from:]...), nil
}

// Clear drops kept notes.
func (m *Memory) Clear() error {
	m.mu.Lock()
	m.kept = nil
	m.mu.Unlock()
	return nil
}

// Snapshot returns a copy of Notes.
func (m *Memory) Snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Notes...)
}

// Reset drops everything recorded.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.Notes = nil
	m.kept = nil
	m.mu.Unlock()
}
