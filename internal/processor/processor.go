// Package processor folds assertion batches into the scene graph and turns
// the resulting changes into render commands.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/geometry"
	"github.com/Faultbox/scenegl/internal/render"
	"github.com/Faultbox/scenegl/internal/scene"
	"github.com/Faultbox/scenegl/pkg/assertion"
)

// ErrFatal marks errors after which the scene graph can no longer be trusted.
var ErrFatal = errors.New("fatal assertion error")

// ImageLoader decodes the image behind a texture URI.
type ImageLoader interface {
	Load(ctx context.Context, uri string) (*scene.Image, error)
}

// Capturer creates the command that reads back a finished frame.
type Capturer interface {
	Request() render.Command
}

// Picker creates the command that resolves a window coordinate.
type Picker interface {
	Request(x, y int) render.Command
}

// Processor owns the assertion side of the pipeline. It is not safe for
// concurrent use.
type Processor struct {
	log      *zap.Logger
	store    *scene.Store
	geometry *geometry.Manager
	images   ImageLoader
	capturer Capturer
	picker   Picker
}

// New creates a processor over store. capturer and picker may be nil, in
// which case the matching requests are logged and dropped.
func New(log *zap.Logger, store *scene.Store, manager *geometry.Manager, images ImageLoader, capturer Capturer, picker Picker) *Processor {
	return &Processor{
		log:      log,
		store:    store,
		geometry: manager,
		images:   images,
		capturer: capturer,
		picker:   picker,
	}
}

// Store returns the scene graph the processor writes to.
func (p *Processor) Store() *scene.Store {
	return p.store
}

// Process applies batch atomically with respect to classification and id
// validation, then returns the commands it produced in emission order.
func (p *Processor) Process(ctx context.Context, batch assertion.Batch) ([]render.Command, error) {
	if err := validate(batch); err != nil {
		return nil, err
	}

	b := newBatchState()
	var cmds []render.Command
	for _, a := range batch {
		if cmd := p.apply(ctx, a, b); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, p.geometry.Reload(b.changed)...)

	ready := p.store.ResolveWatchList()
	if len(ready) > 0 {
		cmd, err := p.geometry.Build(ready)
		if err != nil && !errors.Is(err, geometry.ErrTextureUnitsExceeded) {
			return cmds, err
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds, nil
}

type batchState struct {
	seen    map[scene.Key]struct{}
	changed []scene.Key
}

func newBatchState() *batchState {
	return &batchState{seen: make(map[scene.Key]struct{})}
}

func (b *batchState) mark(key scene.Key) {
	if _, ok := b.seen[key]; ok {
		return
	}
	b.seen[key] = struct{}{}
	b.changed = append(b.changed, key)
}

// validate classifies every assertion and range-checks every id.
func validate(batch assertion.Batch) error {
	for i, a := range batch {
		ids, err := ids(a)
		if err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
		for _, raw := range ids {
			if _, err := scene.NewObjectID(raw); err != nil {
				return fmt.Errorf("%w: assertion %d (%s): %w", ErrFatal, i, a.Kind(), err)
			}
		}
	}
	return nil
}

func ids(a assertion.Assertion) ([]uint64, error) {
	switch a := a.(type) {
	case assertion.Vertex:
		return []uint64{a.ID}, nil
	case assertion.Triangle:
		return []uint64{a.ID, a.Vertices[0], a.Vertices[1], a.Vertices[2]}, nil
	case assertion.Texture:
		return []uint64{a.ID}, nil
	case assertion.TexCoord:
		return []uint64{a.SurfaceID, a.VertexID, a.TextureID}, nil
	case assertion.SurfaceColor:
		return []uint64{a.SurfaceID, a.VertexID}, nil
	case assertion.ClearColor, assertion.CameraOrientation, assertion.CameraProjection,
		assertion.GrabScreenshot, assertion.GetPickingInfo:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", assertion.ErrUnknownAssertion, a)
	}
}

// apply mutates the store for one validated assertion and returns the state
// command it emits, if any.
func (p *Processor) apply(ctx context.Context, a assertion.Assertion, b *batchState) render.Command {
	switch a := a.(type) {
	case assertion.ClearColor:
		c := mgl32.Vec4{a.R, a.G, a.B, 1}
		p.store.SetClearColor(c)
		return &render.ClearColor{Color: c}

	case assertion.Vertex:
		v, _ := scene.NewVertex(a.ID, mgl32.Vec3(a.Position))
		p.store.UpsertVertex(v)
		b.mark(scene.VertexKey(v.ID))

	case assertion.Triangle:
		t, _ := scene.NewTriangle(a.ID, a.Vertices)
		p.store.UpsertTriangle(t)
		key := scene.TriangleKey(t.ID)
		if p.geometry.Owns(key) {
			b.mark(key)
		} else {
			p.store.Watch(t.ID)
		}

	case assertion.Texture:
		p.loadTexture(ctx, a, b)

	case assertion.TexCoord:
		at, _ := scene.NewSurfaceVertex(a.SurfaceID, a.VertexID)
		tex, _ := scene.NewObjectID(a.TextureID)
		p.store.SetTexCoord(at, scene.TexCoord{Texture: tex, U: a.U, V: a.V})
		b.mark(scene.TexCoordKey(at.Surface, at.Vertex))

	case assertion.SurfaceColor:
		at, _ := scene.NewSurfaceVertex(a.SurfaceID, a.VertexID)
		p.store.SetColor(at, mgl32.Vec4(a.Color))
		b.mark(scene.ColorKey(at.Surface, at.Vertex))

	case assertion.CameraOrientation:
		cam := scene.Camera{
			Eye:       mgl32.Vec3(a.Location),
			Direction: mgl32.Vec3(a.Direction),
			Up:        mgl32.Vec3(a.Up),
		}
		p.store.SetCamera(cam)
		return &render.SetView{View: cam.View()}

	case assertion.CameraProjection:
		proj := scene.Projection{FieldOfView: a.FieldOfView, Near: a.Near, Far: a.Far}
		p.store.SetProjection(proj)
		return &render.SetProjection{Projection: proj}

	case assertion.GrabScreenshot:
		if p.capturer == nil {
			p.log.Warn("screenshot requested without a capturer")
			return nil
		}
		return p.capturer.Request()

	case assertion.GetPickingInfo:
		if p.picker == nil {
			p.log.Warn("picking requested without a picker")
			return nil
		}
		return p.picker.Request(a.ScreenX, a.ScreenY)
	}
	return nil
}

func (p *Processor) loadTexture(ctx context.Context, a assertion.Texture, b *batchState) {
	id, _ := scene.NewObjectID(a.ID)
	if p.store.HasTexture(id) {
		return
	}

	start := time.Now()
	img, err := p.images.Load(ctx, a.URI)
	if err != nil {
		p.log.Error("texture load failed",
			zap.Uint32("texture", uint32(id)),
			zap.String("uri", a.URI),
			zap.Error(err),
		)
		return
	}

	tex, _ := scene.NewTexture(a.ID, a.URI, img)
	if p.store.SetTexture(tex) {
		b.mark(scene.TextureKey(id))
		p.log.Debug("texture stored",
			zap.Uint32("texture", uint32(id)),
			zap.String("uri", a.URI),
			zap.Duration("took", time.Since(start)),
		)
	}
}
