package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// truncate clamps v's length to at most max, a generic helper parametric
// over the limit's numeric type (realising the other half of the §9 "generic
// containers by code generation" note: the source's macro-generated
// per-type clamp functions become one parametric one here).
func truncate[N constraints.Float](v mgl64.Vec2, max N) mgl64.Vec2 {
	limit := float64(max)
	if l := v.Len(); l > limit && l > 0 {
		return v.Mul(limit / l)
	}
	return v
}

// nearZero reports whether v's magnitude is below the movement core's
// epsilon (§6).
func nearZero(v mgl64.Vec2) bool {
	return v.Len() < epsilon
}

// yawFromXZ derives the yaw (rotation about Y, radians) a heading vector in
// the XZ plane corresponds to, matching §4.6's
// atan2(wma.z, wma.x) - pi/2 convention.
func yawFromXZ(v mgl64.Vec2) float64 {
	return math.Atan2(v.Y(), v.X()) - math.Pi/2
}
