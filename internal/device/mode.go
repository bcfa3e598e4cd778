package device

// Mode selects how an ambient light push is interpreted.
type Mode int

const (
	// ModeNoLocation: pushes drive twilight directly.
	ModeNoLocation Mode = iota
	// ModeLocationSensors: location is set but sensors stay authoritative for twilight.
	ModeLocationSensors
	// ModeLocationCloudiness: twilight comes from the sun; pushes drive cloudiness.
	ModeLocationCloudiness
)

func (m Mode) String() string {
	switch m {
	case ModeNoLocation:
		return "no-location"
	case ModeLocationSensors:
		return "location+sensors"
	case ModeLocationCloudiness:
		return "location+cloudiness"
	default:
		return "unknown"
	}
}

// Mode returns the active light-source mode.
func (s *State) Mode() Mode {
	switch {
	case !s.HasLocation():
		return ModeNoLocation
	case s.AlsoSensors:
		return ModeLocationSensors
	default:
		return ModeLocationCloudiness
	}
}

// LightCondition returns the flag an ambient push is compared against.
func (s *State) LightCondition() bool {
	if s.Mode() == ModeLocationCloudiness {
		return s.Cloudiness
	}
	return s.Twilight
}

// SetLightCondition stores an ambient push under the active mode and
// reports whether anything changed.
func (s *State) SetLightCondition(dark bool) bool {
	if s.LightCondition() == dark {
		return false
	}
	if s.Mode() == ModeLocationCloudiness {
		s.Cloudiness = dark
	} else {
		s.Twilight = dark
	}
	return true
}
