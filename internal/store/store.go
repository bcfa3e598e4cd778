// Package store persists the device settings as a JSON document written to
// a primary file and mirrored to a backup file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/relay-switch/internal/device"
	"github.com/sweeney/relay-switch/internal/schedule"
)

// Slot file names inside the data directory.
const (
	PrimaryFile = "settings.json"
	BackupFile  = "backup.json"
)

// minFields is the fewest recognized fields a document may carry before it
// is treated as corrupt.
const minFields = 5

var (
	// ErrUnreadable means the slot could not be opened or read.
	ErrUnreadable = errors.New("settings slot unreadable")
	// ErrCorrupt means the slot parsed to too few recognized fields.
	ErrCorrupt = errors.New("settings slot corrupt")
	// ErrWrite means the primary slot could not be written.
	ErrWrite = errors.New("settings write failed")
)

// Noter records human-readable activity.
type Noter interface {
	Note(text string)
}

// Store loads and saves the persisted document.
type Store struct {
	state *device.State
	rules *schedule.Holder
	notes Noter

	primary string
	backup  string
}

// New returns a Store keeping its slots in dir.
func New(dir string, state *device.State, rules *schedule.Holder, notes Noter) *Store {
	return &Store{
		state:   state,
		rules:   rules,
		notes:   notes,
		primary: filepath.Join(dir, PrimaryFile),
		backup:  filepath.Join(dir, BackupFile),
	}
}

func slotName(backup bool) string {
	if backup {
		return "backup"
	}
	return "settings"
}

// Load reads one slot into the state. On success the boot counter is
// incremented and the document is re-saved to refresh the backup.
func (s *Store) Load(useBackup bool) error {
	path := s.primary
	if useBackup {
		path = s.backup
	}
	name := slotName(useBackup)

	raw, err := os.ReadFile(path)
	if err != nil {
		s.notes.Note(fmt.Sprintf("The %s file cannot be read", name))
		return fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || countRecognized(fields) < minFields {
		s.notes.Note(fmt.Sprintf("%s file error", capitalize(name)))
		return fmt.Errorf("%w: %s", ErrCorrupt, name)
	}

	s.notes.Note(fmt.Sprintf("Reading the %s file:\n %s", name, raw))

	doc := decode(fields)
	s.apply(doc)
	s.state.Uprisings++

	log.Info().Str("slot", name).Int("uprisings", s.state.Uprisings).Msg("Settings loaded")

	// A failed refresh is already noted; the load itself succeeded.
	_ = s.Save(false)
	return nil
}

// LoadWithFallback tries the primary slot, then the backup. If both fail the
// state keeps its defaults.
func (s *Store) LoadWithFallback() error {
	err := s.Load(false)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Msg("Primary settings failed, trying backup")
	if err := s.Load(true); err != nil {
		log.Warn().Err(err).Msg("Backup settings failed, using defaults")
		return err
	}
	return nil
}

// Save writes the full state to the primary slot and, only if that worked,
// mirrors it to the backup slot. logIt also records the document in the
// activity log.
func (s *Store) Save(logIt bool) error {
	data, err := json.Marshal(s.encode())
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := writeFile(s.primary, data); err != nil {
		s.notes.Note("Saving the settings failed!")
		saveCounter(false).Inc()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	saveCounter(true).Inc()

	if logIt {
		s.notes.Note("Saving settings:\n " + string(data))
	}

	if err := writeFile(s.backup, data); err != nil {
		log.Warn().Err(err).Msg("Failed to mirror settings to backup")
	}
	return nil
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
