package ops

import "math"

const (
	// AnglePrecision is the number of decimals rotation angles are rounded to.
	AnglePrecision = 12
	// AngleTolerance is the absolute tolerance used when comparing angles.
	AngleTolerance = 1e-12
	// ATol is the absolute tolerance for amplitude and matrix comparisons.
	ATol = 1e-12
	// RTol is the relative tolerance for amplitude and matrix comparisons.
	RTol = 1e-10
)

var anglePow = math.Pow10(AnglePrecision)

// normalizeAngle maps angle into [0, period) rounded to AnglePrecision
// decimals. Values within AngleTolerance of period collapse to 0.
func normalizeAngle(angle, period float64) float64 {
	r := math.Mod(angle, period)
	if r < 0 {
		r += period
	}
	r = math.Round(r*anglePow) / anglePow
	if r > period-AngleTolerance {
		return 0
	}
	return r
}

// NormalizeRotation maps a rotation angle into [0, 4π).
func NormalizeRotation(angle float64) float64 {
	return normalizeAngle(angle, 4*math.Pi)
}

// NormalizePhase maps a phase angle into [0, 2π).
func NormalizePhase(angle float64) float64 {
	return normalizeAngle(angle, 2*math.Pi)
}

func anglesEqual(a, b, period float64) bool {
	d := math.Abs(a - b)
	return d < AngleTolerance || math.Abs(d-period) < AngleTolerance
}

func formatAngle(a float64) string {
	return trimFloat(a)
}
