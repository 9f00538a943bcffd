package assertion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestKindNames(t *testing.T) {
	for k, name := range kindNames {
		got, ok := ParseKind(name)
		require.True(t, ok, name)
		assert.Equal(t, k, got)
		assert.Equal(t, name, k.String())
	}

	_, ok := ParseKind("sphere")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Kind(200).String())
}

func TestRecordAssertion(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want Assertion
	}{
		{
			name: "clear color rgb",
			rec:  Record{Kind: "clear_color", Color: []float32{0.1, 0.2, 0.3}},
			want: ClearColor{R: 0.1, G: 0.2, B: 0.3},
		},
		{
			name: "vertex",
			rec:  Record{Kind: "vertex", ID: 7, Position: Vec3{1, 2, 3}},
			want: Vertex{ID: 7, Position: Vec3{1, 2, 3}},
		},
		{
			name: "triangle",
			rec:  Record{Kind: "triangle", ID: 3, Vertices: [3]uint64{0, 1, 2}},
			want: Triangle{ID: 3, Vertices: [3]uint64{0, 1, 2}},
		},
		{
			name: "surface color defaults alpha",
			rec:  Record{Kind: "surface_color", SurfaceID: 1, VertexID: 2, Color: []float32{1, 0, 0}},
			want: SurfaceColor{SurfaceID: 1, VertexID: 2, Color: Color{1, 0, 0, 1}},
		},
		{
			name: "surface color defaults white",
			rec:  Record{Kind: "surface_color", SurfaceID: 1, VertexID: 2},
			want: SurfaceColor{SurfaceID: 1, VertexID: 2, Color: Color{1, 1, 1, 1}},
		},
		{
			name: "camera orientation keeps defaults for missing vectors",
			rec:  Record{Kind: "camera_orientation", Location: &Vec3{0, -0.15, 1}},
			want: CameraOrientation{Location: Vec3{0, -0.15, 1}, Direction: Vec3{0, 0, -1}, Up: Vec3{0, 1, 0}},
		},
		{
			name: "projection defaults",
			rec:  Record{Kind: "camera_projection", FOV: 60},
			want: CameraProjection{FieldOfView: 60, Near: 0.1, Far: 100},
		},
		{
			name: "picking",
			rec:  Record{Kind: "get_picking_info", X: 10, Y: 20},
			want: GetPickingInfo{ScreenX: 10, ScreenY: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rec.Assertion()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordErrors(t *testing.T) {
	_, err := Record{Kind: "sphere"}.Assertion()
	assert.ErrorIs(t, err, ErrUnknownAssertion)

	_, err = Record{Kind: "texture", ID: 1}.Assertion()
	assert.Error(t, err)

	_, err = Record{Kind: "surface_color", Color: []float32{1, 2}}.Assertion()
	assert.Error(t, err)

	_, err = Decode([]Record{{Kind: "vertex"}, {Kind: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownAssertion)
}

func TestEncodeDecodeBatch(t *testing.T) {
	batch := Batch{
		ClearColor{R: 0.2, G: 0.2, B: 0.2},
		Vertex{ID: 0, Position: Vec3{-1, 0, 0}},
		Texture{ID: 9, URI: "file:///tmp/a.png"},
		TexCoord{SurfaceID: 1, VertexID: 0, TextureID: 9, U: 0.5, V: 1},
		DefaultOrientation(),
		GrabScreenshot{},
	}

	records, err := Encode(batch)
	require.NoError(t, err)

	data, err := json.Marshal(records)
	require.NoError(t, err)

	var decoded []Record
	require.NoError(t, json.Unmarshal(data, &decoded))

	got, err := Decode(decoded)
	require.NoError(t, err)
	assert.Equal(t, batch, got)
}

func TestRecordYAML(t *testing.T) {
	doc := `
- kind: vertex
  id: 4
  position: [0.5, 0.5, 0]
- kind: tex_coord
  surface: 2
  vertex: 4
  texture: 1
  uv: [1, 0]
`
	var records []Record
	require.NoError(t, yaml.Unmarshal([]byte(doc), &records))

	batch, err := Decode(records)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, Vertex{ID: 4, Position: Vec3{0.5, 0.5, 0}}, batch[0])
	assert.Equal(t, TexCoord{SurfaceID: 2, VertexID: 4, TextureID: 1, U: 1}, batch[1])
}

type sphere struct{}

func (sphere) Kind() Kind { return Kind(99) }

func TestToRecordUnknown(t *testing.T) {
	_, err := ToRecord(sphere{})
	assert.ErrorIs(t, err, ErrUnknownAssertion)
}
