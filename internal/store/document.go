package store

import (
	"encoding/json"
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// Document is the persisted form of the device settings.
type Document struct {
	SSID      string `json:"ssid"`
	Password  string `json:"password"`
	Smart     string `json:"smart"`
	Uprisings int    `json:"uprisings"`
	Offset    int    `json:"offset"`
	DST       bool   `json:"dst"`
	Restore   bool   `json:"restore"`
	DuskDelay int    `json:"dusk_delay"`
	DawnDelay int    `json:"dawn_delay"`
	Location  string `json:"location"`
	Sensors   bool   `json:"sensors"`
	Light1    *bool  `json:"light1,omitempty"`
	Light2    *bool  `json:"light2,omitempty"`
}

var recognized = []string{
	"ssid", "password", "smart", "uprisings", "offset", "dst", "restore",
	"dusk_delay", "dawn_delay", "location", "sensors", "light1", "light2",
}

func countRecognized(fields map[string]json.RawMessage) int {
	n := 0
	for _, k := range recognized {
		if _, ok := fields[k]; ok {
			n++
		}
	}
	return n
}

// partial holds decoded fields; nil means absent.
type partial struct {
	ssid, password, smart, location *string
	uprisings, offset               *int
	duskDelay, dawnDelay            *int
	dst, restore, sensors           *bool
	light1, light2                  *bool
}

// decode reads each recognized field independently. A field of the wrong
// type is treated as absent.
func decode(fields map[string]json.RawMessage) partial {
	var p partial
	p.ssid = decodeField[string](fields, "ssid")
	p.password = decodeField[string](fields, "password")
	p.smart = decodeField[string](fields, "smart")
	p.location = decodeField[string](fields, "location")
	p.uprisings = decodeField[int](fields, "uprisings")
	p.offset = decodeField[int](fields, "offset")
	p.duskDelay = decodeField[int](fields, "dusk_delay")
	p.dawnDelay = decodeField[int](fields, "dawn_delay")
	p.dst = decodeField[bool](fields, "dst")
	p.restore = decodeField[bool](fields, "restore")
	p.sensors = decodeField[bool](fields, "sensors")
	p.light1 = decodeField[bool](fields, "light1")
	p.light2 = decodeField[bool](fields, "light2")
	return p
}

func decodeField[T any](fields map[string]json.RawMessage, key string) *T {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func (s *Store) apply(p partial) {
	st := s.state
	set(&st.SSID, p.ssid)
	set(&st.Password, p.password)
	if p.smart != nil {
		s.rules.Replace(*p.smart)
	}
	set(&st.Uprisings, p.uprisings)
	set(&st.Offset, p.offset)
	set(&st.DST, p.dst)
	set(&st.RestoreOnPowerLoss, p.restore)
	set(&st.DawnDelay, p.dawnDelay)
	set(&st.DuskDelay, p.duskDelay)
	if st.RestoreOnPowerLoss {
		set(&st.Light1, p.light1)
		set(&st.Light2, p.light2)
	}
	set(&st.Location, p.location)
	set(&st.AlsoSensors, p.sensors)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (s *Store) encode() Document {
	st := s.state
	doc := Document{
		SSID:      st.SSID,
		Password:  st.Password,
		Smart:     s.rules.Current().Canonical(),
		Uprisings: st.Uprisings,
		Offset:    st.Offset,
		DST:       st.DST,
		Restore:   st.RestoreOnPowerLoss,
		DuskDelay: st.DuskDelay,
		DawnDelay: st.DawnDelay,
		Location:  st.Location,
		Sensors:   st.AlsoSensors,
	}
	if st.RestoreOnPowerLoss {
		l1, l2 := st.Light1, st.Light2
		doc.Light1 = &l1
		doc.Light2 = &l2
	}
	return doc
}

func saveCounter(ok bool) *metrics.Counter {
	result := "failed"
	if ok {
		result = "ok"
	}
	return metrics.GetOrCreateCounter(fmt.Sprintf(`relay_switch_settings_saves_total{result=%q}`, result))
}
