// Package schedule decodes and encodes the compact schedule text into typed
// rules and holds the live rule set.
package schedule

import "time"

// Prefix marks an entry as a switch rule.
const Prefix = 's'

// Unset marks an absent on/off time.
const Unset = -1

// Channels is a bit set of relay channels.
type Channels uint8

const (
	Channel1 Channels = 1 << iota
	Channel2

	BothChannels = Channel1 | Channel2
)

// Has reports whether c includes ch.
func (c Channels) Has(ch Channels) bool {
	return c&ch != 0
}

// Days is a set of weekdays; EveryDay is stored separately from the full set
// so that "w" survives a round trip.
type Days struct {
	EveryDay bool
	Set      uint8 // bit i = time.Weekday(i)
}

// weekdayCodes are indexed by time.Weekday.
var weekdayCodes = [7]byte{'s', 'o', 'u', 'e', 'h', 'r', 'a'}

// encodeOrder is the order day codes are written in: Monday first.
var encodeOrder = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Includes reports whether the set contains wd.
func (d Days) Includes(wd time.Weekday) bool {
	return d.EveryDay || d.Set&(1<<uint(wd)) != 0
}

// Rule is one decoded schedule entry.
type Rule struct {
	Enabled bool
	OnTime  int // minute of day or Unset
	OffTime int // minute of day or Unset
	Lights  Channels
	Days    Days

	OnAtNight         bool
	OffAtDay          bool
	OnAtNightAndTime  bool
	OffAtDayAndTime   bool
	ReactToCloudiness bool
}
