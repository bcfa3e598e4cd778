package status

import (
	"encoding/json"
	"strconv"

	"github.com/sweeney/relay-switch/internal/clock"
	"github.com/sweeney/relay-switch/internal/device"
	"github.com/sweeney/relay-switch/internal/schedule"
)

// Detail is the full device configuration summary sent to peers and
// pushed outward when non-light settings change.
type Detail struct {
	ID          string `json:"id"`
	Value       int    `json:"value"`
	Twilight    bool   `json:"twilight"`
	Cloudiness  bool   `json:"cloudiness"`
	NextSunset  int    `json:"next_sunset"`
	NextSunrise int    `json:"next_sunrise"`
	SunCheck    int    `json:"sun_check"`
	Restore     bool   `json:"restore"`
	DuskDelay   int    `json:"dusk_delay"`
	DawnDelay   int    `json:"dawn_delay"`
	Location    string `json:"location"`
	Sensors     bool   `json:"sensors"`
	Version     string `json:"version"`
	Smart       string `json:"smart"`
	RTC         bool   `json:"rtc"`
	DST         bool   `json:"dst"`
	Offset      int    `json:"offset"`
	Time        int64  `json:"time"`   // UTC epoch, 0 when the clock is not running
	Active      int64  `json:"active"` // seconds since start, 0 when unknown
	Uprisings   int    `json:"uprisings"`
	Offline     bool   `json:"offline"`
}

// Source builds Detail values from live device state. Call it only from
// the goroutine that owns the state.
type Source struct {
	ID      string
	Version string
	State   *device.State
	Rules   *schedule.Holder
	Clock   clock.Clock
}

// Build returns the current Detail.
func (s *Source) Build() Detail {
	st := s.State
	value, _ := strconv.Atoi(st.Value())

	d := Detail{
		ID:          s.ID,
		Value:       value,
		Twilight:    st.Twilight,
		Cloudiness:  st.Cloudiness,
		NextSunset:  st.NextSunset,
		NextSunrise: st.NextSunrise,
		SunCheck:    st.LastSunCheck,
		Restore:     st.RestoreOnPowerLoss,
		DuskDelay:   st.DuskDelay,
		DawnDelay:   st.DawnDelay,
		Location:    st.Location,
		Sensors:     st.AlsoSensors,
		Version:     s.Version,
		Smart:       s.Rules.Current().Source,
		RTC:         s.Clock.IsRunning(),
		DST:         st.DST,
		Offset:      st.Offset,
		Uprisings:   st.Uprisings,
		Offline:     st.Offline,
	}

	if d.RTC {
		d.Time = s.Clock.Now().Unix() - st.Shift()
		if !st.StartTime.IsZero() {
			d.Active = d.Time - st.StartTime.Unix()
		}
	}
	return d
}

// Detail returns Build as compact JSON.
func (s *Source) Detail() string {
	data, _ := json.Marshal(s.Build())
	return string(data)
}
