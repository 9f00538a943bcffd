// Package renderer bootstraps OpenGL on the render thread and turns GL error
// state into Go errors.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// ErrGL is wrapped by every error read from glGetError.
var ErrGL = errors.New("opengl error")

// Caps describes the current context.
type Caps struct {
	Version         string
	Renderer        string
	GLSL            string
	MaxTextureUnits int
}

// Init loads GL function pointers and sets the default state.
// It must be called after the GL context is current, on the render thread.
func Init(log *zap.Logger) (Caps, error) {
	if err := gl.Init(); err != nil {
		return Caps{}, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	var units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)

	caps := Caps{
		Version:         gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer:        gl.GoStr(gl.GetString(gl.RENDERER)),
		GLSL:            gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
		MaxTextureUnits: int(units),
	}
	log.Info("OpenGL initialized",
		zap.String("version", caps.Version),
		zap.String("renderer", caps.Renderer),
		zap.String("glsl", caps.GLSL),
		zap.Int("max_texture_units", caps.MaxTextureUnits),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	return caps, CheckError("init")
}

// CheckError drains the GL error queue. Any error is fatal for the render thread.
func CheckError(op string) error {
	var codes []error
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		codes = append(codes, fmt.Errorf("%w: %s (0x%04x)", ErrGL, errorName(code), code))
		if len(codes) > 8 {
			break
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(codes...))
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	}
	return "unknown"
}
