package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegl/internal/scene"
)

// Info is the per-frame state shared by every command of a frame.
type Info struct {
	TotalRenderTime float64 // seconds
	FrameRate       float64
	Width, Height   int

	ClearColor mgl32.Vec4
	View       mgl32.Mat4
	Projection scene.Projection
}

// NewInfo returns frame state with the default camera.
func NewInfo(width, height int) Info {
	return Info{
		Width:      width,
		Height:     height,
		ClearColor: mgl32.Vec4{0, 0, 0, 1},
		View:       mgl32.Ident4(),
		Projection: scene.Projection{FieldOfView: 45, Near: 0.1, Far: 100},
	}
}

// Aspect is the viewport aspect ratio, 1 for an empty viewport.
func (i *Info) Aspect() float32 {
	if i.Width <= 0 || i.Height <= 0 {
		return 1
	}
	return float32(i.Width) / float32(i.Height)
}

// ProjectionMatrix recomputes the perspective for the current viewport.
func (i *Info) ProjectionMatrix() mgl32.Mat4 {
	return i.Projection.Matrix(i.Aspect())
}
