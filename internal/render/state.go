package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegl/internal/scene"
)

// stateCommand applies a value to Info once and renders nothing.
type stateCommand struct{}

func (stateCommand) Zone() Zone              { return BeforeContent }
func (stateCommand) SelfDestruct() bool      { return true }
func (stateCommand) Render(info *Info) error { return nil }
func (stateCommand) Release()                {}

// ClearColor sets the color the target is cleared with every frame.
type ClearColor struct {
	stateCommand
	Color mgl32.Vec4
}

func (c *ClearColor) SetState(info *Info) error {
	info.ClearColor = c.Color
	return nil
}

// SetView replaces the view matrix.
type SetView struct {
	stateCommand
	View mgl32.Mat4
}

func (c *SetView) SetState(info *Info) error {
	info.View = c.View
	return nil
}

// SetProjection replaces the perspective parameters. The matrix itself is
// rebuilt every frame from the viewport.
type SetProjection struct {
	stateCommand
	Projection scene.Projection
}

func (c *SetProjection) SetState(info *Info) error {
	info.Projection = c.Projection
	return nil
}
