package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegl/pkg/assertion"
)

func near(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-5)
}

func TestDefaultOrientation(t *testing.T) {
	c := NewOrbitCamera()
	o := c.Orientation()

	if !near(mgl32.Vec3(o.Location), mgl32.Vec3{0, -0.15, 1}) {
		t.Errorf("Location = %v", o.Location)
	}
	if !near(mgl32.Vec3(o.Direction), mgl32.Vec3{0, 0, -1}) {
		t.Errorf("Direction = %v", o.Direction)
	}
	if o.Up != (assertion.Vec3{0, 1, 0}) {
		t.Errorf("Up = %v", o.Up)
	}
}

func TestViewMatrixCentersTarget(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(120, -40)

	center := c.ViewMatrix().Mul4x1(c.Center.Vec4(1)).Vec3()
	if !near(center, mgl32.Vec3{0, 0, -c.Distance}) {
		t.Errorf("center in view space = %v", center)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 10000)
	if c.Pitch != c.MaxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -20000)
	if c.Pitch != c.MinPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, c.MinPitch)
	}
}

func TestHandleZoom(t *testing.T) {
	tests := []struct {
		name  string
		delta float32
		want  float32
	}{
		{"in", 1, 0.9},
		{"out", -1, 1.1},
		{"clamped", 100, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera()
			c.HandleZoom(tt.delta)
			if mgl32.Abs(c.Distance-tt.want) > 1e-5 {
				t.Errorf("Distance = %v, want %v", c.Distance, tt.want)
			}
		})
	}
}

func TestHandleMovementForward(t *testing.T) {
	c := NewOrbitCamera()
	c.Distance = 100
	c.HandleMovement(1, 0, 0)
	if !near(c.Center, mgl32.Vec3{0, -0.15, -1}) {
		t.Errorf("Center = %v", c.Center)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{3, 1, 0})
	if !near(c.Center, mgl32.Vec3{1, 0, 0}) {
		t.Errorf("Center = %v", c.Center)
	}
	if c.Distance <= 4 {
		t.Errorf("Distance = %v, want more than the box diagonal", c.Distance)
	}
}
