package sequencer

import "math"

// Differences below epsilon seconds are float noise from weight normalization.
const epsilon = 1e-9

// Plan is the concrete timing of one segment.
type Plan struct {
	Durations []float64
	Idle      float64 // trailing wait, never negative
	Overrun   float64 // visual time past the end of the narration
	Clamped   bool    // fixed steps exceeded the narration, or a value was not finite
}

// Visual returns the summed sub-step time.
func (p Plan) Visual() float64 {
	sum := 0.0
	for _, d := range p.Durations {
		sum += d
	}
	return sum
}

// Resolve allots audioDuration across steps. Fixed steps keep their literal
// duration and are subtracted first; what remains is split among weighted
// steps in proportion to their normalized weights.
func Resolve(steps []SubStep, audioDuration float64) Plan {
	plan := Plan{Durations: make([]float64, len(steps))}
	if !finite(audioDuration) {
		plan.Clamped = true
		audioDuration = 0
	}
	if audioDuration < 0 {
		audioDuration = 0
	}

	fixed := 0.0
	weights := 0.0
	for i, s := range steps {
		if s.Fixed != nil {
			d := *s.Fixed
			if !finite(d) {
				plan.Clamped = true
				d = 0
			}
			if d < 0 {
				d = 0
			}
			plan.Durations[i] = d
			fixed += d
			continue
		}
		if !finite(s.Weight) {
			plan.Clamped = true
			continue
		}
		if s.Weight > 0 {
			weights += s.Weight
		}
	}

	remaining := audioDuration - fixed
	if remaining < 0 {
		plan.Clamped = true
		remaining = 0
	}

	if weights > 0 {
		for i, s := range steps {
			if s.Fixed != nil || s.Weight <= 0 || !finite(s.Weight) {
				continue
			}
			plan.Durations[i] = remaining * (s.Weight / weights)
		}
	}

	gap := audioDuration - plan.Visual()
	switch {
	case gap > epsilon:
		plan.Idle = gap
	case gap < -epsilon:
		plan.Overrun = -gap
	}
	return plan
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
