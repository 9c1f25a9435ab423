package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// flatten projects v onto the XZ plane.
func flatten(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

// horizontalDist returns the XZ distance between two points.
func horizontalDist(a, b mgl64.Vec3) float64 {
	return flatten(a.Sub(b)).Len()
}

// yawVector returns the unit XZ direction for yaw.
func yawVector(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(yaw), 0, math.Sin(yaw)}
}
