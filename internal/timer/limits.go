package timer

import (
	"math"

	"pomodisc/backend/internal/model"
)

// Limits are the per-type maximum durations in minutes.
type Limits struct {
	Work       int
	ShortBreak int
	LongBreak  int
}

func LimitsFor(threePhase bool) Limits {
	if threePhase {
		return Limits{Work: 90, ShortBreak: 30, LongBreak: 60}
	}
	return Limits{Work: 120, ShortBreak: 60, LongBreak: 60}
}

func (l Limits) For(t model.SessionType) int {
	switch t {
	case model.SessionShortBreak:
		return l.ShortBreak
	case model.SessionLongBreak:
		return l.LongBreak
	default:
		return l.Work
	}
}

// clampInt floors v into [1, max]. NaN and values that floor to zero become 1.
func clampInt(v float64, max int) int {
	if math.IsNaN(v) {
		return 1
	}
	v = math.Floor(v)
	if v < 1 {
		return 1
	}
	if v > float64(max) {
		return max
	}
	return int(v)
}
