package input

import "math"

const (
	// MaxNormalized is the upper bound of the simulator's absolute coordinate space.
	MaxNormalized = 65535

	// WheelNotch is the wheel delta reported for one detent.
	WheelNotch = 120
)

// Normalize maps a virtual-desktop coordinate onto [0, MaxNormalized] on each axis.
func Normalize(x, y int, desktop Rect) (int, int) {
	return normalizeAxis(x, desktop.Left, desktop.Width()), normalizeAxis(y, desktop.Top, desktop.Height())
}

func normalizeAxis(v, origin, extent int) int {
	if extent <= 1 {
		return 0
	}
	scaled := math.Round(float64(v-origin) * MaxNormalized / float64(extent-1))
	switch {
	case scaled < 0:
		return 0
	case scaled > MaxNormalized:
		return MaxNormalized
	}
	return int(scaled)
}

// WheelSteps converts a raw wheel delta into whole notches, rounding to nearest.
func WheelSteps(delta int) int {
	return int(math.Round(float64(delta) / WheelNotch))
}
