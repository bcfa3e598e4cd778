package activity

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T, keep bool) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "activity.sqlite"), keep)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestNoteStoredWhenEnabled(t *testing.T) {
	l := openTestLog(t, true)
	l.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	l.Note("first")
	l.Note("second")

	entries, err := l.Entries(10)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != "first" || entries[1].Text != "second" {
		t.Errorf("unexpected order: %+v", entries)
	}
	if !entries[0].Timestamp.Equal(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp: got %v", entries[0].Timestamp)
	}
}

func TestNoteDroppedWhenDisabled(t *testing.T) {
	l := openTestLog(t, false)
	l.Note("ignored")

	entries, err := l.Entries(10)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}

	l.SetEnabled(true)
	l.Note("kept")
	entries, _ = l.Entries(10)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after enabling, got %d", len(entries))
	}
}

func TestEntriesLimitKeepsNewest(t *testing.T) {
	l := openTestLog(t, true)
	for _, s := range []string{"a", "b", "c"} {
		l.Note(s)
	}
	entries, err := l.Entries(2)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Text != "b" || entries[1].Text != "c" {
		t.Errorf("got %+v", entries)
	}
}

func TestClear(t *testing.T) {
	l := openTestLog(t, true)
	l.Note("a")
	if err := l.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, _ := l.Entries(10)
	if len(entries) != 0 {
		t.Errorf("expected empty log, got %d", len(entries))
	}
}
