package enhance

// Signal is the tagged result of one auxiliary enhancement check. A signal is
// either Present with a score in [0,1] or Absent; callers must branch on
// Present instead of treating a zero score as missing data.
type Signal struct {
	Present bool
	Value   float64
}

// SignalPresent wraps a computed score.
func SignalPresent(v float64) Signal {
	return Signal{Present: true, Value: v}
}

// SignalAbsent marks a signal whose inputs were unavailable. An absent signal
// contributes nothing to the confidence blend and its weight is redistributed
// across the present components.
func SignalAbsent() Signal {
	return Signal{}
}
