package animation

// RateFunc maps linear progress to eased progress, both in [0,1].
type RateFunc func(t float64) float64

func Linear(t float64) float64 { return clamp01(t) }

// Smooth applies a cubic ease-in-out.
func Smooth(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// RateByName resolves a rate name from a scene table; unknown names are smooth.
func RateByName(name string) RateFunc {
	switch name {
	case "linear":
		return Linear
	default:
		return Smooth
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}
