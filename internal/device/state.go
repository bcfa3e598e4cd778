// Package device holds the single authoritative state of the switch.
// It has no I/O and no knowledge of time sources; components mutate the
// State they are handed and nothing else.
package device

import "time"

// Unknown marks a sunrise/sunset minute that has not been computed.
const Unknown = -1

// State is the device state aggregate. One instance exists per process and
// is passed by pointer to every component.
type State struct {
	// Requested logical outputs.
	Light1 bool
	Light2 bool

	Twilight   bool
	Cloudiness bool

	// Offset (seconds) and DST convert between UTC and the RTC's local time.
	Offset int
	DST    bool

	RestoreOnPowerLoss bool
	DuskDelay          int // minutes
	DawnDelay          int // minutes
	Location           string
	AlsoSensors        bool
	Uprisings          int

	// Network credentials. Not used by the core but persisted with it.
	SSID     string
	Password string

	// Computed sun events, minute-of-day with delays applied, or Unknown.
	NextSunset   int
	NextSunrise  int
	LastSunCheck int // day of month of the last computation

	// Offline disables every outward push.
	Offline bool

	// StartTime is the UTC time the clock was first known to be running.
	StartTime time.Time
}

// New returns a State with hardware defaults.
func New() *State {
	return &State{
		NextSunset:  Unknown,
		NextSunrise: Unknown,
	}
}

// HasLocation reports whether a geo location is configured.
func (s *State) HasLocation() bool {
	return len(s.Location) >= 2
}

// Shift is the number of seconds local RTC time is ahead of UTC.
func (s *State) Shift() int64 {
	shift := int64(s.Offset)
	if s.DST {
		shift += 3600
	}
	return shift
}

// Value returns the compact encoding of the requested outputs.
func (s *State) Value() string {
	return EncodeValue(s.Light1, s.Light2)
}

// SetValue applies a compact encoding to the requested outputs.
func (s *State) SetValue(v string) {
	s.Light1, s.Light2 = DecodeValue(v)
}

// Online reports whether outward pushes are enabled.
func (s *State) Online() bool {
	return !s.Offline
}

// Orderer tags what caused an actuation.
type Orderer string

const (
	OrdererRestore Orderer = "restore"
	OrdererManual  Orderer = "manual"
	OrdererLocal   Orderer = "local"
	OrdererApp     Orderer = "apk"
	OrdererCloud   Orderer = "cloud"
	OrdererSmart   Orderer = "smart"
)
