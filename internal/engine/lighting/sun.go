// Package lighting provides the directional light of the terrain viewer.
package lighting

import (
	"math"

	gomath "github.com/Faultbox/midgard-terrain/pkg/math"
)

// SunDirection converts longitude/latitude angles in degrees to a light
// direction. Longitude is rotation around the Y axis (0-360), latitude is
// elevation from the horizon (0-90). The result is normalized and points
// towards the sun.
func SunDirection(longitude, latitude float32) gomath.Vec3 {
	lonRad := float64(longitude) * math.Pi / 180.0
	latRad := float64(latitude) * math.Pi / 180.0

	// Spherical to Cartesian conversion
	return gomath.Vec3{
		X: float32(math.Cos(latRad) * math.Sin(lonRad)),
		Y: float32(math.Sin(latRad)),
		Z: float32(math.Cos(latRad) * math.Cos(lonRad)),
	}
}
