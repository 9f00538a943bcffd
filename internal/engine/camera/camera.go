// Package camera provides the interactive orbit camera of the viewer.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegl/pkg/assertion"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Vertical angle, radians
	Yaw      float32 // Horizontal angle, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera matching the default scene view:
// one unit in front of the origin, looking down -Z.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Center:          mgl32.Vec3{0, -0.15, 0},
		Distance:        1,
		MinDistance:     0.1,
		MaxDistance:     100,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cosPitch := math32.Cos(c.Pitch)
	offset := mgl32.Vec3{
		c.Distance * cosPitch * math32.Sin(c.Yaw),
		c.Distance * math32.Sin(c.Pitch),
		c.Distance * cosPitch * math32.Cos(c.Yaw),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// Orientation expresses the camera as an assertion.
func (c *OrbitCamera) Orientation() assertion.CameraOrientation {
	pos := c.Position()
	return assertion.CameraOrientation{
		Location:  assertion.Vec3(pos),
		Direction: assertion.Vec3(c.Center.Sub(pos).Normalize()),
		Up:        assertion.Vec3{0, 1, 0},
	}
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point in the camera's horizontal frame.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	sin, cos := math32.Sin(c.Yaw), math32.Cos(c.Yaw)
	// Negate forward so it moves into the scene.
	c.Center[0] += (-sin*forward + cos*right) * speed
	c.Center[2] += (-cos*forward - sin*right) * speed
	c.Center[1] += up * speed
}

// FitToBounds centers the camera on a bounding box, far enough back to
// see all of it.
func (c *OrbitCamera) FitToBounds(lo, hi mgl32.Vec3) {
	c.Center = lo.Add(hi).Mul(0.5)
	size := hi.Sub(lo).Len()
	c.Distance = mgl32.Clamp(size*1.2, c.MinDistance, c.MaxDistance)
	c.Pitch = 0
	c.Yaw = 0
}
