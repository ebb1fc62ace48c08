package tomo

import (
	"math"
)

func degToRad(angle float64) float64 {
	return angle * math.Pi / 180
}

func radToDeg(angle float64) float64 {
	return angle * 180 / math.Pi
}

func pow2(x float64) float64 {
	return x * x
}

// wrap180 normalizes an angle to [-180, 180).
func wrap180(degs float64) float64 {
	degs = math.Mod(degs, 360)
	if degs < -180 {
		degs += 360
	} else if degs >= 180 {
		degs -= 360
	}
	return degs
}

// wrap360 normalizes an angle to [0, 360).
func wrap360(degs float64) float64 {
	degs = math.Mod(degs, 360)
	if degs < 0 {
		degs += 360
	}
	return degs
}

// kmPerDeg is the arc length of one degree on a sphere of the given radius.
func kmPerDeg(radius float64) float64 {
	return radius * math.Pi / 180
}
