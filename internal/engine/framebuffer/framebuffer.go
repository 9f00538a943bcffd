// Package framebuffer provides the offscreen render target frames are drawn
// into. It carries two color attachments: the visible image and a float
// picking attachment. Only the first is presented.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/scenegl/internal/engine/renderer"
	"github.com/Faultbox/scenegl/internal/render"
)

// Target is an offscreen framebuffer with color, picking and depth attachments.
type Target struct {
	fbo          uint32
	colorTexture uint32
	pickTexture  uint32
	depthRBO     uint32
	width        int32
	height       int32
}

// New creates a target with the specified dimensions.
func New(width, height int) (*Target, error) {
	t := &Target{width: clampSize(width), height: clampSize(height)}
	if err := t.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return t, nil
}

func clampSize(v int) int32 {
	if v < 1 {
		return 1
	}
	return int32(v)
}

func (t *Target) create() error {
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)

	gl.GenTextures(1, &t.colorTexture)
	gl.GenTextures(1, &t.pickTexture)
	gl.GenRenderbuffers(1, &t.depthRBO)
	t.allocate()

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.colorTexture, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT1, gl.TEXTURE_2D, t.pickTexture, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depthRBO)

	drawBuffers := [2]uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT1}
	gl.DrawBuffers(2, &drawBuffers[0])

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.Release()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return renderer.CheckError("create framebuffer")
}

// allocate (re)creates attachment storage at the current size.
func (t *Target) allocate() {
	gl.BindTexture(gl.TEXTURE_2D, t.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, t.width, t.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.BindTexture(gl.TEXTURE_2D, t.pickTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, t.width, t.height, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, t.width, t.height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
}

// Size returns the target dimensions.
func (t *Target) Size() (width, height int) {
	return int(t.width), int(t.height)
}

// Resize reallocates the attachments if the size changed.
func (t *Target) Resize(width, height int) error {
	w, h := clampSize(width), clampSize(height)
	if w == t.width && h == t.height {
		return nil
	}
	t.width, t.height = w, h
	t.allocate()
	return renderer.CheckError("resize framebuffer")
}

// Begin binds the target and clears both attachments. The picking attachment
// is cleared to zero, which decodes as "no object".
func (t *Target) Begin(info *render.Info) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, t.width, t.height)

	clearColor := info.ClearColor
	var noObject [4]float32
	depth := float32(1)
	gl.ClearBufferfv(gl.COLOR, 0, &clearColor[0])
	gl.ClearBufferfv(gl.COLOR, 1, &noObject[0])
	gl.ClearBufferfv(gl.DEPTH, 0, &depth)
	return nil
}

// End blits the primary color attachment to the window.
func (t *Target) End(info *render.Info) error {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, t.width, t.height, 0, 0, t.width, t.height, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return renderer.CheckError("present frame")
}

// ReadPickPixel reads one texel of the picking attachment, origin bottom-left.
func (t *Target) ReadPickPixel(x, y int) ([4]float32, error) {
	var px [4]float32
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT1)
	gl.ReadPixels(int32(x), int32(y), 1, 1, gl.RGBA, gl.FLOAT, gl.Ptr(&px[0]))
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	return px, renderer.CheckError("read picking pixel")
}

// ReadColorRGB reads the primary color attachment as tightly packed RGB rows,
// bottom-up.
func (t *Target) ReadColorRGB() ([]byte, int, int, error) {
	pixels := make([]byte, int(t.width)*int(t.height)*3)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, t.width, t.height, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	return pixels, int(t.width), int(t.height), renderer.CheckError("read color")
}

// Release frees all OpenGL resources.
func (t *Target) Release() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.colorTexture != 0 {
		gl.DeleteTextures(1, &t.colorTexture)
		t.colorTexture = 0
	}
	if t.pickTexture != 0 {
		gl.DeleteTextures(1, &t.pickTexture)
		t.pickTexture = 0
	}
	if t.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &t.depthRBO)
		t.depthRBO = 0
	}
}
