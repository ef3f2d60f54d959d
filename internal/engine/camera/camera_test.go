package camera

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func TestPositionOrbitsCenter(t *testing.T) {
	c := NewOrbitCamera(60)
	c.Center = math.Vec3{X: 100, Z: -50}
	c.RotationX = 0
	c.RotationY = 0
	c.Distance = 10

	got := c.Position()
	if got != (math.Vec3{X: 100, Z: -40}) {
		t.Errorf("Position = %+v", got)
	}
	if f := c.Forward(); gomath.Abs(float64(f.Z+1)) > 1e-5 {
		t.Errorf("Forward = %+v, want -Z", f)
	}
}

func TestZoomAndPitchClamp(t *testing.T) {
	c := NewOrbitCamera(60)

	for i := 0; i < 100; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("Distance = %v, want %v", c.Distance, c.MinDistance)
	}
	for i := 0; i < 100; i++ {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("Distance = %v, want %v", c.Distance, c.MaxDistance)
	}

	c.HandleDrag(0, 10000)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.RotationX, c.MaxPitch)
	}
	c.HandleDrag(0, -10000)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch = %v, want %v", c.RotationX, c.MinPitch)
	}
}

func TestFitRegion(t *testing.T) {
	c := NewOrbitCamera(60)
	c.FitRegion(math.Vec3{X: 1024}, 1024)
	if c.Center.X != 1024 || c.Distance < 1024 {
		t.Errorf("center %+v distance %v", c.Center, c.Distance)
	}
}

func TestHandleMovement(t *testing.T) {
	c := NewOrbitCamera(60)
	c.RotationY = 0
	c.Distance = 1000
	c.MoveSpeed = 100

	// Facing -Z: forward moves the center towards -Z.
	c.HandleMovement(1, 0, 0.5)
	if c.Center.X != 0 || c.Center.Z != -50 {
		t.Errorf("after forward center = %+v, want z -50", c.Center)
	}
	c.HandleMovement(0, 1, 0.5)
	if c.Center.X != 50 {
		t.Errorf("after right center = %+v, want x 50", c.Center)
	}
}
