package assertion

import "fmt"

// Record is the wire form of an assertion shared by scene files and remote
// producers. Only the fields relevant to Kind are read.
type Record struct {
	Kind      string     `json:"kind" yaml:"kind" toml:"kind"`
	ID        uint64     `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Vertices  [3]uint64  `json:"vertices,omitempty" yaml:"vertices,omitempty" toml:"vertices,omitempty"`
	Position  Vec3       `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty"`
	Color     []float32  `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	URI       string     `json:"uri,omitempty" yaml:"uri,omitempty" toml:"uri,omitempty"`
	SurfaceID uint64     `json:"surface,omitempty" yaml:"surface,omitempty" toml:"surface,omitempty"`
	VertexID  uint64     `json:"vertex,omitempty" yaml:"vertex,omitempty" toml:"vertex,omitempty"`
	TextureID uint64     `json:"texture,omitempty" yaml:"texture,omitempty" toml:"texture,omitempty"`
	UV        [2]float32 `json:"uv,omitempty" yaml:"uv,omitempty" toml:"uv,omitempty"`
	Location  *Vec3      `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty"`
	Direction *Vec3      `json:"direction,omitempty" yaml:"direction,omitempty" toml:"direction,omitempty"`
	Up        *Vec3      `json:"up,omitempty" yaml:"up,omitempty" toml:"up,omitempty"`
	FOV       float32    `json:"fov,omitempty" yaml:"fov,omitempty" toml:"fov,omitempty"`
	Near      float32    `json:"near,omitempty" yaml:"near,omitempty" toml:"near,omitempty"`
	Far       float32    `json:"far,omitempty" yaml:"far,omitempty" toml:"far,omitempty"`
	X         int        `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Y         int        `json:"y,omitempty" yaml:"y,omitempty" toml:"y,omitempty"`
}

// Assertion converts the record. Unknown kinds fail with ErrUnknownAssertion.
func (r Record) Assertion() (Assertion, error) {
	kind, ok := ParseKind(r.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAssertion, r.Kind)
	}

	switch kind {
	case KindClearColor:
		c, err := r.color(Color{0, 0, 0, 1})
		if err != nil {
			return nil, err
		}
		return ClearColor{R: c[0], G: c[1], B: c[2]}, nil
	case KindVertex:
		return Vertex{ID: r.ID, Position: r.Position}, nil
	case KindTriangle:
		return Triangle{ID: r.ID, Vertices: r.Vertices}, nil
	case KindTexture:
		if r.URI == "" {
			return nil, fmt.Errorf("texture %d: missing uri", r.ID)
		}
		return Texture{ID: r.ID, URI: r.URI}, nil
	case KindTexCoord:
		return TexCoord{SurfaceID: r.SurfaceID, VertexID: r.VertexID, TextureID: r.TextureID, U: r.UV[0], V: r.UV[1]}, nil
	case KindSurfaceColor:
		c, err := r.color(Color{1, 1, 1, 1})
		if err != nil {
			return nil, err
		}
		return SurfaceColor{SurfaceID: r.SurfaceID, VertexID: r.VertexID, Color: c}, nil
	case KindCameraOrientation:
		o := DefaultOrientation()
		if r.Location != nil {
			o.Location = *r.Location
		}
		if r.Direction != nil {
			o.Direction = *r.Direction
		}
		if r.Up != nil {
			o.Up = *r.Up
		}
		return o, nil
	case KindCameraProjection:
		p := DefaultProjection()
		if r.FOV != 0 {
			p.FieldOfView = r.FOV
		}
		if r.Near != 0 {
			p.Near = r.Near
		}
		if r.Far != 0 {
			p.Far = r.Far
		}
		return p, nil
	case KindGrabScreenshot:
		return GrabScreenshot{}, nil
	case KindGetPickingInfo:
		return GetPickingInfo{ScreenX: r.X, ScreenY: r.Y}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAssertion, r.Kind)
}

// color accepts RGB or RGBA; alpha defaults to 1 and an absent color to def.
func (r Record) color(def Color) (Color, error) {
	switch len(r.Color) {
	case 0:
		return def, nil
	case 3, 4:
		c := Color{0, 0, 0, 1}
		copy(c[:], r.Color)
		return c, nil
	}
	return def, fmt.Errorf("%s: color needs 3 or 4 components, got %d", r.Kind, len(r.Color))
}

// ToRecord is the inverse of Record.Assertion.
func ToRecord(a Assertion) (Record, error) {
	r := Record{Kind: a.Kind().String()}
	switch a := a.(type) {
	case ClearColor:
		r.Color = []float32{a.R, a.G, a.B}
	case Vertex:
		r.ID, r.Position = a.ID, a.Position
	case Triangle:
		r.ID, r.Vertices = a.ID, a.Vertices
	case Texture:
		r.ID, r.URI = a.ID, a.URI
	case TexCoord:
		r.SurfaceID, r.VertexID, r.TextureID, r.UV = a.SurfaceID, a.VertexID, a.TextureID, [2]float32{a.U, a.V}
	case SurfaceColor:
		r.SurfaceID, r.VertexID, r.Color = a.SurfaceID, a.VertexID, a.Color[:]
	case CameraOrientation:
		loc, dir, up := a.Location, a.Direction, a.Up
		r.Location, r.Direction, r.Up = &loc, &dir, &up
	case CameraProjection:
		r.FOV, r.Near, r.Far = a.FieldOfView, a.Near, a.Far
	case GrabScreenshot:
	case GetPickingInfo:
		r.X, r.Y = a.ScreenX, a.ScreenY
	default:
		return Record{}, fmt.Errorf("%w: %T", ErrUnknownAssertion, a)
	}
	return r, nil
}

// Decode converts a list of records into a batch, stopping at the first bad record.
func Decode(records []Record) (Batch, error) {
	batch := make(Batch, 0, len(records))
	for i, rec := range records {
		a, err := rec.Assertion()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		batch = append(batch, a)
	}
	return batch, nil
}

// Encode converts a batch into records.
func Encode(batch Batch) ([]Record, error) {
	records := make([]Record, 0, len(batch))
	for i, a := range batch {
		rec, err := ToRecord(a)
		if err != nil {
			return nil, fmt.Errorf("assertion %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
