// Package assertion defines the input language of the pipeline: immutable
// facts about the world, grouped into batches.
package assertion

import "errors"

// ErrUnknownAssertion is returned for an assertion kind the pipeline cannot classify.
var ErrUnknownAssertion = errors.New("unknown assertion kind")

// Kind identifies an assertion variant.
type Kind uint8

const (
	KindClearColor Kind = iota + 1
	KindVertex
	KindTriangle
	KindTexture
	KindTexCoord
	KindSurfaceColor
	KindCameraOrientation
	KindCameraProjection
	KindGrabScreenshot
	KindGetPickingInfo
)

var kindNames = map[Kind]string{
	KindClearColor:        "clear_color",
	KindVertex:            "vertex",
	KindTriangle:          "triangle",
	KindTexture:           "texture",
	KindTexCoord:          "tex_coord",
	KindSurfaceColor:      "surface_color",
	KindCameraOrientation: "camera_orientation",
	KindCameraProjection:  "camera_projection",
	KindGrabScreenshot:    "grab_screenshot",
	KindGetPickingInfo:    "get_picking_info",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Assertion is one fact. Ids are carried as received; range checks happen when
// the fact is folded into the scene graph.
type Assertion interface {
	Kind() Kind
}

// Batch is the atomic unit of scene-graph mutation.
type Batch []Assertion

// Vec3 is a position or direction.
type Vec3 [3]float32

// Color is RGBA in [0,1].
type Color [4]float32

type ClearColor struct {
	R, G, B float32
}

type Vertex struct {
	ID       uint64
	Position Vec3
}

type Triangle struct {
	ID       uint64
	Vertices [3]uint64
}

type Texture struct {
	ID  uint64
	URI string
}

// TexCoord maps a vertex, as used by one surface, onto a texture.
type TexCoord struct {
	SurfaceID uint64
	VertexID  uint64
	TextureID uint64
	U, V      float32
}

// SurfaceColor colors a vertex as used by one surface.
type SurfaceColor struct {
	SurfaceID uint64
	VertexID  uint64
	Color     Color
}

type CameraOrientation struct {
	Location  Vec3
	Direction Vec3
	Up        Vec3
}

type CameraProjection struct {
	FieldOfView float32 // degrees
	Near, Far   float32
}

type GrabScreenshot struct{}

// GetPickingInfo asks which object is under a window coordinate (origin top-left).
type GetPickingInfo struct {
	ScreenX, ScreenY int
}

func (ClearColor) Kind() Kind        { return KindClearColor }
func (Vertex) Kind() Kind            { return KindVertex }
func (Triangle) Kind() Kind          { return KindTriangle }
func (Texture) Kind() Kind           { return KindTexture }
func (TexCoord) Kind() Kind          { return KindTexCoord }
func (SurfaceColor) Kind() Kind      { return KindSurfaceColor }
func (CameraOrientation) Kind() Kind { return KindCameraOrientation }
func (CameraProjection) Kind() Kind  { return KindCameraProjection }
func (GrabScreenshot) Kind() Kind    { return KindGrabScreenshot }
func (GetPickingInfo) Kind() Kind    { return KindGetPickingInfo }

// DefaultOrientation looks down -Z from the origin.
func DefaultOrientation() CameraOrientation {
	return CameraOrientation{
		Direction: Vec3{0, 0, -1},
		Up:        Vec3{0, 1, 0},
	}
}

// DefaultProjection is a 45 degree perspective.
func DefaultProjection() CameraProjection {
	return CameraProjection{FieldOfView: 45, Near: 0.1, Far: 100}
}
