package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Vertex struct {
	ID       ObjectID
	Position mgl32.Vec3
}

// NewVertex fails with ErrIDOutOfRange; such a vertex is never created.
func NewVertex(raw uint64, pos mgl32.Vec3) (Vertex, error) {
	id, err := NewObjectID(raw)
	if err != nil {
		return Vertex{}, fmt.Errorf("vertex: %w", err)
	}
	return Vertex{ID: id, Position: pos}, nil
}

type Triangle struct {
	ID       ObjectID
	Vertices [3]ObjectID
}

func NewTriangle(raw uint64, vertices [3]uint64) (Triangle, error) {
	id, err := NewObjectID(raw)
	if err != nil {
		return Triangle{}, fmt.Errorf("triangle: %w", err)
	}
	t := Triangle{ID: id}
	for i, v := range vertices {
		if t.Vertices[i], err = NewObjectID(v); err != nil {
			return Triangle{}, fmt.Errorf("triangle %d vertex %d: %w", id, i, err)
		}
	}
	return t, nil
}

// Image is decoded RGBA8 pixel data with rows stored bottom-up. It is never
// mutated after decoding and may be shared with the render thread.
type Image struct {
	Pixels []byte
	Width  int
	Height int
}

type Texture struct {
	ID    ObjectID
	URI   string
	Image *Image
}

func NewTexture(raw uint64, uri string, img *Image) (Texture, error) {
	id, err := NewObjectID(raw)
	if err != nil {
		return Texture{}, fmt.Errorf("texture %s: %w", uri, err)
	}
	return Texture{ID: id, URI: uri, Image: img}, nil
}

// TexCoord is the texture mapping of one surface vertex.
type TexCoord struct {
	Texture ObjectID
	U, V    float32
}

// NewSurfaceVertex validates both halves of a per-surface attribute key.
func NewSurfaceVertex(surface, vertex uint64) (SurfaceVertex, error) {
	s, err := NewObjectID(surface)
	if err != nil {
		return SurfaceVertex{}, fmt.Errorf("surface: %w", err)
	}
	v, err := NewObjectID(vertex)
	if err != nil {
		return SurfaceVertex{}, fmt.Errorf("surface %d vertex: %w", s, err)
	}
	return SurfaceVertex{Surface: s, Vertex: v}, nil
}
