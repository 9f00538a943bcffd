package geometry

import "github.com/Faultbox/scenegl/internal/render"

// DrawCommand uploads a new geometry buffer and draws it every frame.
type DrawCommand struct {
	buffer *TriangleBuffer
	data   *Synthesis
}

func (c *DrawCommand) Zone() render.Zone  { return render.ContentRenderStep }
func (c *DrawCommand) SelfDestruct() bool { return false }

func (c *DrawCommand) SetState(info *render.Info) error {
	err := c.buffer.SetState(c.data, false)
	c.data = nil
	return err
}

func (c *DrawCommand) Render(info *render.Info) error { return c.buffer.Render(info) }
func (c *DrawCommand) Release()                       { c.buffer.Release() }

// BufferID identifies the buffer drawn.
func (c *DrawCommand) BufferID() BufferID { return c.buffer.id }

// Data is the content uploaded on SetState, nil afterwards.
func (c *DrawCommand) Data() *Synthesis { return c.data }

// ReloadCommand rewrites the contents of an existing buffer before the frame.
type ReloadCommand struct {
	buffer *TriangleBuffer
	data   *Synthesis
}

func (c *ReloadCommand) Zone() render.Zone  { return render.BeforeContent }
func (c *ReloadCommand) SelfDestruct() bool { return true }

func (c *ReloadCommand) SetState(info *render.Info) error {
	return c.buffer.SetState(c.data, true)
}

func (c *ReloadCommand) Render(info *render.Info) error { return nil }

// Release leaves the buffer alone; its DrawCommand owns it.
func (c *ReloadCommand) Release() {}

func (c *ReloadCommand) BufferID() BufferID { return c.buffer.id }
func (c *ReloadCommand) Data() *Synthesis   { return c.data }
