package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the asserted camera orientation.
type Camera struct {
	Eye       mgl32.Vec3
	Direction mgl32.Vec3
	Up        mgl32.Vec3
}

// View returns the look-at matrix for the camera.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Eye.Add(c.Direction), c.Up)
}

// Projection holds perspective parameters. The aspect ratio comes from the
// viewport at render time.
type Projection struct {
	FieldOfView float32 // degrees
	Near, Far   float32
}

// Matrix builds the perspective matrix for the given aspect ratio.
func (p Projection) Matrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(p.FieldOfView), aspect, p.Near, p.Far)
}

// Store is the scene graph. It is owned by the assertion side of the pipeline
// and not safe for concurrent use.
type Store struct {
	vertices  map[ObjectID]Vertex
	triangles map[ObjectID]Triangle
	textures  map[ObjectID]Texture
	texCoords map[SurfaceVertex]TexCoord
	colors    map[SurfaceVertex]mgl32.Vec4

	clearColor mgl32.Vec4
	camera     Camera
	projection Projection

	// watch holds triangles waiting for their vertices.
	watch map[ObjectID]struct{}
}

// NewStore returns an empty scene with the default camera.
func NewStore() *Store {
	return &Store{
		vertices:   make(map[ObjectID]Vertex),
		triangles:  make(map[ObjectID]Triangle),
		textures:   make(map[ObjectID]Texture),
		texCoords:  make(map[SurfaceVertex]TexCoord),
		colors:     make(map[SurfaceVertex]mgl32.Vec4),
		clearColor: mgl32.Vec4{0, 0, 0, 1},
		camera: Camera{
			Direction: mgl32.Vec3{0, 0, -1},
			Up:        mgl32.Vec3{0, 1, 0},
		},
		projection: Projection{FieldOfView: 45, Near: 0.1, Far: 100},
		watch:      make(map[ObjectID]struct{}),
	}
}

// UpsertVertex creates or moves a vertex and reports whether it was new.
func (s *Store) UpsertVertex(v Vertex) bool {
	_, existed := s.vertices[v.ID]
	s.vertices[v.ID] = v
	return !existed
}

func (s *Store) Vertex(id ObjectID) (Vertex, bool) {
	v, ok := s.vertices[id]
	return v, ok
}

// UpsertTriangle creates or rewires a triangle and reports whether it was new.
func (s *Store) UpsertTriangle(t Triangle) bool {
	_, existed := s.triangles[t.ID]
	s.triangles[t.ID] = t
	return !existed
}

func (s *Store) Triangle(id ObjectID) (Triangle, bool) {
	t, ok := s.triangles[id]
	return t, ok
}

// Ready reports whether a triangle exists and all of its vertices do.
func (s *Store) Ready(id ObjectID) bool {
	t, ok := s.triangles[id]
	if !ok {
		return false
	}
	for _, v := range t.Vertices {
		if _, ok := s.vertices[v]; !ok {
			return false
		}
	}
	return true
}

// SetTexture stores a texture unless its id is already known.
// The first texture asserted for an id wins.
func (s *Store) SetTexture(t Texture) bool {
	if _, ok := s.textures[t.ID]; ok {
		return false
	}
	s.textures[t.ID] = t
	return true
}

func (s *Store) HasTexture(id ObjectID) bool {
	_, ok := s.textures[id]
	return ok
}

func (s *Store) Texture(id ObjectID) (Texture, bool) {
	t, ok := s.textures[id]
	return t, ok
}

func (s *Store) SetTexCoord(at SurfaceVertex, tc TexCoord) {
	s.texCoords[at] = tc
}

func (s *Store) TexCoord(at SurfaceVertex) (TexCoord, bool) {
	tc, ok := s.texCoords[at]
	return tc, ok
}

func (s *Store) SetColor(at SurfaceVertex, c mgl32.Vec4) {
	s.colors[at] = c
}

func (s *Store) Color(at SurfaceVertex) (mgl32.Vec4, bool) {
	c, ok := s.colors[at]
	return c, ok
}

func (s *Store) SetClearColor(c mgl32.Vec4) { s.clearColor = c }
func (s *Store) ClearColor() mgl32.Vec4     { return s.clearColor }

func (s *Store) SetCamera(c Camera) { s.camera = c }
func (s *Store) Camera() Camera     { return s.camera }

func (s *Store) SetProjection(p Projection) { s.projection = p }
func (s *Store) Projection() Projection     { return s.projection }

// Watch puts a triangle on the watch list until ResolveWatchList finds it ready.
func (s *Store) Watch(id ObjectID) {
	s.watch[id] = struct{}{}
}

// ResolveWatchList removes and returns, in id order, every watched triangle
// whose vertices all exist.
func (s *Store) ResolveWatchList() []ObjectID {
	var ready []ObjectID
	for id := range s.watch {
		if s.Ready(id) {
			ready = append(ready, id)
		}
	}
	for _, id := range ready {
		delete(s.watch, id)
	}
	slices.Sort(ready)
	return ready
}

// Pending lists watched triangles, in id order.
func (s *Store) Pending() []ObjectID {
	ids := make([]ObjectID, 0, len(s.watch))
	for id := range s.watch {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Stats summarizes the store for logs and tooling.
type Stats struct {
	Vertices  int
	Triangles int
	Textures  int
	TexCoords int
	Colors    int
	Pending   int
}

func (s *Store) Stats() Stats {
	return Stats{
		Vertices:  len(s.vertices),
		Triangles: len(s.triangles),
		Textures:  len(s.textures),
		TexCoords: len(s.texCoords),
		Colors:    len(s.colors),
		Pending:   len(s.watch),
	}
}
