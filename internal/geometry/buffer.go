package geometry

import (
	_ "embed"
	"fmt"
	"strconv"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/engine/renderer"
	"github.com/Faultbox/scenegl/internal/engine/shader"
	"github.com/Faultbox/scenegl/internal/engine/texture"
	"github.com/Faultbox/scenegl/internal/render"
)

//go:embed shaders/triangle.vert
var vertexSource string

//go:embed shaders/triangle.frag
var fragmentSource string

// Resources are the render-thread objects shared by every buffer.
type Resources struct {
	Programs *Programs
	Textures *texture.Cache
}

// Programs compiles the shared triangle program on first use.
type Programs struct {
	units    int
	program  *shader.Program
	samplers []int32
}

// NewPrograms prepares a program with one sampler per texture unit.
func NewPrograms(textureUnits int) *Programs {
	samplers := make([]int32, textureUnits)
	for i := range samplers {
		samplers[i] = int32(i)
	}
	return &Programs{units: textureUnits, samplers: samplers}
}

// Units returns the number of texture units the program samples from.
func (p *Programs) Units() int { return p.units }

// Get returns the compiled program. Compile errors are fatal.
func (p *Programs) Get() (*shader.Program, error) {
	if p.program != nil {
		return p.program, nil
	}
	frag := shader.Expand(fragmentSource, map[string]string{"maxTextureUnits": strconv.Itoa(p.units)})
	prog, err := shader.Compile(vertexSource, frag)
	if err != nil {
		return nil, fmt.Errorf("triangle program: %w", err)
	}
	p.program = prog
	return prog, nil
}

func (p *Programs) Release() {
	if p.program != nil {
		p.program.Delete()
		p.program = nil
	}
}

// TriangleBuffer is the GPU side of a geometry buffer. Only the render thread
// calls its methods.
type TriangleBuffer struct {
	id        BufferID
	log       *zap.Logger
	resources Resources

	vao, vbo, ebo uint32
	vboBytes      int
	eboBytes      int
	indexCount    int32
	textures      []uint32 // GL texture per sampler slot
	disabled      bool
}

func newTriangleBuffer(id BufferID, log *zap.Logger, res Resources) *TriangleBuffer {
	return &TriangleBuffer{id: id, log: log, resources: res}
}

// SetState uploads data. The first call allocates the vertex array and
// buffers; a reload rewrites them in place.
func (b *TriangleBuffer) SetState(data *Synthesis, reload bool) error {
	programs := b.resources.Programs
	if _, err := programs.Get(); err != nil {
		return err
	}

	if len(data.Textures) > programs.Units() {
		b.log.Error("geometry buffer disabled: texture units exhausted",
			zap.Uint32("buffer", uint32(b.id)),
			zap.Int("textures", len(data.Textures)),
			zap.Int("units", programs.Units()),
		)
		b.disabled = true
		return nil
	}
	b.disabled = false

	b.textures = b.textures[:0]
	for _, slot := range data.Textures {
		if slot.Image == nil {
			return fmt.Errorf("buffer %d: texture %d in slot %d has no image", b.id, slot.ID, slot.Slot)
		}
		tex, err := b.resources.Textures.Get(slot.ID, slot.Image)
		if err != nil {
			return err
		}
		b.textures = append(b.textures, tex)
	}

	if !reload || b.vao == 0 {
		b.allocate()
	}
	b.upload(data)

	op := "build triangle buffer"
	if reload {
		op = "reload triangle buffer"
	}
	return renderer.CheckError(op)
}

func (b *TriangleBuffer) allocate() {
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.GenBuffers(1, &b.ebo)
	b.vboBytes, b.eboBytes = 0, 0

	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)

	attribs := []struct {
		size   int32
		offset int
	}{
		{1, offVertexID},
		{1, offSurface},
		{3, offPosition},
		{4, offColor},
		{2, offUV},
		{1, offSampler},
	}
	for loc, a := range attribs {
		gl.VertexAttribPointer(uint32(loc), a.size, gl.FLOAT, false, VertexStride, gl.PtrOffset(a.offset*4))
		gl.EnableVertexAttribArray(uint32(loc))
	}

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BindVertexArray(0)
}

// upload rewrites buffer contents, reallocating storage only when the size changed.
func (b *TriangleBuffer) upload(data *Synthesis) {
	gl.BindVertexArray(b.vao)

	vboBytes := len(data.Vertices) * 4
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	switch {
	case vboBytes == 0:
	case vboBytes == b.vboBytes:
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, vboBytes, gl.Ptr(data.Vertices))
	default:
		gl.BufferData(gl.ARRAY_BUFFER, vboBytes, gl.Ptr(data.Vertices), gl.DYNAMIC_DRAW)
		b.vboBytes = vboBytes
	}

	eboBytes := len(data.Indices) * 4
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	switch {
	case eboBytes == 0:
	case eboBytes == b.eboBytes:
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, eboBytes, gl.Ptr(data.Indices))
	default:
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, eboBytes, gl.Ptr(data.Indices), gl.DYNAMIC_DRAW)
		b.eboBytes = eboBytes
	}
	b.indexCount = int32(len(data.Indices))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Render draws the buffer with the current camera.
func (b *TriangleBuffer) Render(info *render.Info) error {
	if b.disabled || b.indexCount == 0 {
		return nil
	}
	prog, err := b.resources.Programs.Get()
	if err != nil {
		return err
	}

	for slot, tex := range b.textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
		gl.BindTexture(gl.TEXTURE_2D, tex)
	}

	prog.Use()
	prog.SetMat4("viewMatrix", info.View)
	prog.SetMat4("projectionMatrix", info.ProjectionMatrix())
	prog.SetInts("samplers", b.resources.Programs.samplers)

	gl.BindVertexArray(b.vao)
	gl.DrawElements(gl.TRIANGLES, b.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	return nil
}

// Release deletes the GL objects. Textures belong to the cache.
func (b *TriangleBuffer) Release() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.ebo != 0 {
		gl.DeleteBuffers(1, &b.ebo)
		b.ebo = 0
	}
	b.indexCount = 0
}
