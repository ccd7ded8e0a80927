package house

// Violations returns a description of every safety invariant the state breaks.
// An empty result means the state is consistent.
func Violations(s State) []string {
	var out []string

	occupied := On(s.Proximity)

	if On(s.Light) && !occupied {
		out = append(out, "light is on while the house is not occupied")
	}

	if On(s.Door) && !occupied && On(s.AlarmArmed) && !On(s.AlarmActive) {
		out = append(out, "door is open in an armed, vacant house without an active alarm")
	}

	if On(s.Door) && Off(s.Proximity) && Off(s.AlarmArmed) {
		out = append(out, "door is open in a disarmed, vacant house")
	}

	if On(s.Heater) && On(s.Chiller) {
		out = append(out, "heater and chiller are both on")
	}

	if On(s.Humidifier) && !s.HVACMode.Is(ModeChiller) {
		out = append(out, "humidifier is on outside chiller mode")
	}

	if On(s.AlarmActive) && !On(s.AlarmArmed) {
		out = append(out, "alarm is sounding while disarmed")
	}

	if On(s.IntruderSensorMode) && On(s.IntruderDetected) {
		if On(s.Door) || !On(s.Lock) || !On(s.PanelMessage) {
			out = append(out, "intruder detected but the house is not locked down")
		}
	}

	return out
}
