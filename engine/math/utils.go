package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// InUnitRange reports whether every component of v lies within [0.0, 1.0].
func InUnitRange(v Vec3) bool {
	return inRange(v.X) && inRange(v.Y) && inRange(v.Z)
}

func inRange(value float32) bool {
	return value >= 0.0 && value <= 1.0
}
