package schedule

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Noter records human-readable activity.
type Noter interface {
	Note(text string)
}

// Set is an immutable decoded schedule. A rule's id is its index in Rules.
type Set struct {
	Rules []Rule
	// Source is the text the set was decoded from.
	Source string
}

// Canonical returns the canonical encoding of the set.
func (s *Set) Canonical() string {
	return Encode(s.Rules)
}

// Holder owns the live rule set. Replacing it builds the new set fully
// before swapping the pointer, so readers see either the old or the new set.
type Holder struct {
	current atomic.Pointer[Set]
	notes   Noter
}

// NewHolder returns a holder with an empty set.
func NewHolder(notes Noter) *Holder {
	h := &Holder{notes: notes}
	h.current.Store(&Set{})
	return h
}

// Current returns the live set. Never nil.
func (h *Holder) Current() *Set {
	return h.current.Load()
}

// Replace decodes text and makes it the live set.
func (h *Holder) Replace(text string) *Set {
	set := &Set{Rules: Parse(text), Source: text}
	h.current.Store(set)

	log.Debug().Int("rules", len(set.Rules)).Str("text", text).Msg("Schedule replaced")
	if h.notes != nil {
		h.notes.Note(fmt.Sprintf("Smart contains %d of %c", len(set.Rules), Prefix))
	}
	return set
}

// Differs reports whether text would change the live schedule.
func (h *Holder) Differs(text string) bool {
	cur := h.Current()
	return text != cur.Source && text != cur.Canonical()
}
