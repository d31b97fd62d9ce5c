package refract

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// dampEpsilon is the distance below which a damped value snaps to its target.
const dampEpsilon = 1e-6

// dampFactor returns the fraction of the remaining distance to cover in a
// frame of dt seconds for a smoothing time constant of smoothTime seconds.
// It depends only on elapsed wall-clock time, so the same total time
// converges identically at any frame rate.
func dampFactor(smoothTime, dt float64) float64 {
	if dt <= 0 || math.IsNaN(dt) {
		return 0
	}
	if smoothTime <= 0 {
		return 1
	}
	return 1 - math.Exp(-dt/smoothTime)
}

// Damp moves current toward target by exponential smoothing and returns the
// new value. A non-positive smoothTime snaps to target; a non-positive dt
// leaves current unchanged. The result never overshoots target.
func Damp(current, target, smoothTime, dt float64) float64 {
	next := current + (target-current)*dampFactor(smoothTime, dt)
	if math.Abs(target-next) < dampEpsilon {
		return target
	}
	return next
}

// Damp3 is Damp applied to each component of a vector.
func Damp3(current, target mgl64.Vec3, smoothTime, dt float64) mgl64.Vec3 {
	k := dampFactor(smoothTime, dt)
	next := current.Add(target.Sub(current).Mul(k))
	if target.Sub(next).Len() < dampEpsilon {
		return target
	}
	return next
}
