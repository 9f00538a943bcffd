// Package scene holds the scene graph: every entity folded in from
// assertions, keyed by identities that survive a round trip through float32.
package scene

import (
	"errors"
	"fmt"
)

// MaxObjectID is the largest id a float32 vertex attribute represents exactly.
const MaxObjectID = 1<<24 - 1

// ErrIDOutOfRange is returned when an id does not fit in MaxObjectID.
var ErrIDOutOfRange = errors.New("object id exceeds 24-bit float-safe range")

// ObjectID identifies a vertex, triangle (surface) or texture.
type ObjectID uint32

// NewObjectID validates a raw id.
func NewObjectID(raw uint64) (ObjectID, error) {
	if raw > MaxObjectID {
		return 0, fmt.Errorf("%w: %d", ErrIDOutOfRange, raw)
	}
	return ObjectID(raw), nil
}

// Float returns the id as packed into vertex attributes.
func (id ObjectID) Float() float32 {
	return float32(id)
}

// KeyKind tags the entity a Key refers to.
type KeyKind uint8

const (
	KindVertex KeyKind = iota + 1
	KindTriangle
	KindTexture
	KindTexCoord
	KindColor
)

func (k KeyKind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindTriangle:
		return "triangle"
	case KindTexture:
		return "texture"
	case KindTexCoord:
		return "texcoord"
	case KindColor:
		return "color"
	}
	return "unknown"
}

// Key is a comparable entity identity. Sub is only set for per-surface
// attributes, where ID is the surface and Sub the vertex.
type Key struct {
	Kind KeyKind
	ID   ObjectID
	Sub  ObjectID
}

func (k Key) String() string {
	if k.Kind == KindTexCoord || k.Kind == KindColor {
		return fmt.Sprintf("%s(%d,%d)", k.Kind, k.ID, k.Sub)
	}
	return fmt.Sprintf("%s(%d)", k.Kind, k.ID)
}

func VertexKey(id ObjectID) Key   { return Key{Kind: KindVertex, ID: id} }
func TriangleKey(id ObjectID) Key { return Key{Kind: KindTriangle, ID: id} }
func TextureKey(id ObjectID) Key  { return Key{Kind: KindTexture, ID: id} }

func TexCoordKey(surface, vertex ObjectID) Key {
	return Key{Kind: KindTexCoord, ID: surface, Sub: vertex}
}

func ColorKey(surface, vertex ObjectID) Key {
	return Key{Kind: KindColor, ID: surface, Sub: vertex}
}

// SurfaceVertex addresses a vertex as used by one surface.
type SurfaceVertex struct {
	Surface ObjectID
	Vertex  ObjectID
}
