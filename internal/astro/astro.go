// Package astro computes the next sunset and sunrise for the configured
// location as minutes of the local day.
package astro

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sj14/astral/pkg/astral"

	"github.com/sweeney/relay-switch/internal/clock"
	"github.com/sweeney/relay-switch/internal/device"
)

// Calculator writes sun event minutes into the device state.
type Calculator struct {
	state *device.State
}

// NewCalculator returns a Calculator for state.
func NewCalculator(state *device.State) *Calculator {
	return &Calculator{state: state}
}

// Compute recomputes NextSunset and NextSunrise for the local day of now
// (local wall time). Both are set to device.Unknown when the location is
// missing or unparsable, or when the sun does not rise or set that day.
func (c *Calculator) Compute(now time.Time) {
	st := c.state
	st.LastSunCheck = now.Day()
	st.NextSunset = device.Unknown
	st.NextSunrise = device.Unknown

	if !st.HasLocation() {
		return
	}
	lat, lon, err := ParseLocation(st.Location)
	if err != nil {
		log.Warn().Err(err).Str("location", st.Location).Msg("Cannot compute sun events")
		return
	}

	observer := astral.Observer{Latitude: lat, Longitude: lon, Elevation: 0.0}
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	shift := time.Duration(st.Shift()) * time.Second

	sunset, errSet := astral.Sunset(observer, date)
	sunrise, errRise := astral.Sunrise(observer, date)
	if errSet != nil || errRise != nil {
		log.Info().Str("location", st.Location).Msg("No sunrise or sunset today")
		return
	}

	st.NextSunset = wrap(clock.MinuteOfDay(sunset.UTC().Add(shift)) + st.DuskDelay)
	st.NextSunrise = wrap(clock.MinuteOfDay(sunrise.UTC().Add(shift)) + st.DawnDelay)

	log.Info().
		Int("sunset", st.NextSunset).
		Int("sunrise", st.NextSunrise).
		Int("day", st.LastSunCheck).
		Msg("Sun events computed")
}

func wrap(minute int) int {
	return ((minute % 1440) + 1440) % 1440
}

// ParseLocation reads "lat,lon" (a semicolon or space also separates).
func ParseLocation(s string) (lat, lon float64, err error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("location %q: want \"lat,lon\"", s)
	}
	lat, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("location %q: latitude: %w", s, err)
	}
	lon, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("location %q: longitude: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("location %q: out of range", s)
	}
	return lat, lon, nil
}
