// Package geometry compiles ready triangles into GPU vertex and index
// buffers and keeps them current as the scene graph changes.
package geometry

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegl/internal/scene"
)

// ErrTextureUnitsExceeded is returned when one buffer references more
// textures than the GPU can bind at once.
var ErrTextureUnitsExceeded = errors.New("texture units exceeded")

// Vertex layout: [vertexId, surfaceId, x, y, z, r, g, b, a, u, v, samplerIndex].
const (
	FloatsPerVertex = 12
	VertexStride    = FloatsPerVertex * 4

	offVertexID = 0
	offSurface  = 1
	offPosition = 2
	offColor    = 5
	offUV       = 9
	offSampler  = 11
)

// NoSampler marks a vertex drawn with its color only.
const NoSampler = -1

var defaultColor = mgl32.Vec4{1, 1, 1, 1}

// TextureSlot binds a texture to a sampler slot.
type TextureSlot struct {
	ID    scene.ObjectID
	Slot  int
	Image *scene.Image
}

// Synthesis is the CPU-side content of one geometry buffer. It is immutable
// once built and handed to the render thread.
type Synthesis struct {
	Vertices  []float32
	Indices   []uint32
	Textures  []TextureSlot
	Triangles []scene.ObjectID
	// Dependencies lists every entity read, including per-surface attributes
	// and textures that do not exist yet.
	Dependencies []scene.Key
}

// VertexCount returns the number of de-duplicated vertices.
func (s *Synthesis) VertexCount() int {
	return len(s.Vertices) / FloatsPerVertex
}

type keySet struct {
	seen  map[scene.Key]struct{}
	order []scene.Key
}

func (k *keySet) add(key scene.Key) {
	if _, ok := k.seen[key]; ok {
		return
	}
	k.seen[key] = struct{}{}
	k.order = append(k.order, key)
}

// Synthesize builds buffer content for triangles. Triangles that are unknown,
// not ready or listed twice are skipped. Vertices are shared only between
// uses with the same (surface, vertex) pair. slots carries the buffer's
// sampler assignment across calls; limit caps its size.
func Synthesize(store *scene.Store, triangles []scene.ObjectID, slots *SamplerSlots, limit int) (*Synthesis, error) {
	syn := &Synthesis{}
	deps := keySet{seen: make(map[scene.Key]struct{})}
	index := make(map[scene.SurfaceVertex]uint32)
	included := make(map[scene.ObjectID]struct{}, len(triangles))

	for _, tid := range triangles {
		if _, dup := included[tid]; dup {
			continue
		}
		tri, ok := store.Triangle(tid)
		if !ok || !store.Ready(tid) {
			continue
		}
		included[tid] = struct{}{}
		syn.Triangles = append(syn.Triangles, tid)
		deps.add(scene.TriangleKey(tid))

		for _, vid := range tri.Vertices {
			at := scene.SurfaceVertex{Surface: tid, Vertex: vid}
			if i, ok := index[at]; ok {
				syn.Indices = append(syn.Indices, i)
				continue
			}

			record, err := vertexRecord(store, at, slots, limit, &deps)
			if err != nil {
				return nil, fmt.Errorf("triangle %d: %w", tid, err)
			}
			i := uint32(syn.VertexCount())
			syn.Vertices = append(syn.Vertices, record[:]...)
			index[at] = i
			syn.Indices = append(syn.Indices, i)
		}
	}

	for slot, id := range slots.IDs() {
		tex, _ := store.Texture(id)
		syn.Textures = append(syn.Textures, TextureSlot{ID: id, Slot: slot, Image: tex.Image})
	}
	syn.Dependencies = deps.order
	return syn, nil
}

func vertexRecord(store *scene.Store, at scene.SurfaceVertex, slots *SamplerSlots, limit int, deps *keySet) ([FloatsPerVertex]float32, error) {
	var rec [FloatsPerVertex]float32

	v, _ := store.Vertex(at.Vertex)
	deps.add(scene.VertexKey(at.Vertex))
	deps.add(scene.ColorKey(at.Surface, at.Vertex))
	deps.add(scene.TexCoordKey(at.Surface, at.Vertex))

	color := defaultColor
	if c, ok := store.Color(at); ok {
		color = c
	}

	var u, w float32
	sampler := NoSampler
	if tc, ok := store.TexCoord(at); ok {
		u, w = tc.U, tc.V
		deps.add(scene.TextureKey(tc.Texture))
		if store.HasTexture(tc.Texture) {
			slot, err := slots.Assign(tc.Texture, limit)
			if err != nil {
				return rec, fmt.Errorf("%w: texture %d needs slot %d of %d", err, tc.Texture, slots.Len()+1, limit)
			}
			sampler = slot
		}
	}

	rec[offVertexID] = at.Vertex.Float()
	rec[offSurface] = at.Surface.Float()
	copy(rec[offPosition:offPosition+3], v.Position[:])
	copy(rec[offColor:offColor+4], color[:])
	rec[offUV], rec[offUV+1] = u, w
	rec[offSampler] = float32(sampler)
	return rec, nil
}
