// Package picking resolves window coordinates to the object drawn there.
//
// Every geometry buffer writes (world.xyz, surfaceId+1) into a second color
// attachment of the offscreen target while drawing the frame. A request reads
// that attachment back at one pixel after all content has rendered.
package picking

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/internal/render"
	"github.com/Faultbox/scenegl/internal/scene"
)

// PixelReader reads the picking attachment. Coordinates are in GL order,
// origin bottom-left.
type PixelReader interface {
	ReadPickPixel(x, y int) ([4]float32, error)
}

// Publisher receives picking feedback.
type Publisher interface {
	Publish(ev events.Event) error
}

// Encode packs a surface id and world position the way the fragment shader does.
func Encode(id scene.ObjectID, world mgl32.Vec3) [4]float32 {
	return [4]float32{world[0], world[1], world[2], id.Float() + 1}
}

// Decode unpacks a picking pixel. A zero id channel means nothing was drawn there.
func Decode(px [4]float32) (scene.ObjectID, mgl32.Vec3, bool) {
	encoded := math.Round(float64(px[3]))
	if encoded < 1 || encoded > scene.MaxObjectID+1 {
		return 0, mgl32.Vec3{}, false
	}
	return scene.ObjectID(encoded - 1), mgl32.Vec3{px[0], px[1], px[2]}, true
}

// FlipY converts a top-down window row into a bottom-up GL row.
func FlipY(y, height int) int {
	return height - 1 - y
}

// Resolver answers picking requests on the render thread.
type Resolver struct {
	log    *zap.Logger
	reader PixelReader
	sink   Publisher
}

func NewResolver(log *zap.Logger, reader PixelReader, sink Publisher) *Resolver {
	return &Resolver{log: log, reader: reader, sink: sink}
}

// Resolve reads the pixel under a window coordinate.
func (r *Resolver) Resolve(info *render.Info, x, y int) (events.PickingFeedback, error) {
	fb := events.PickingFeedback{Time: info.TotalRenderTime, ScreenX: x, ScreenY: y}
	if x < 0 || y < 0 || x >= info.Width || y >= info.Height {
		return fb, nil
	}

	px, err := r.reader.ReadPickPixel(x, FlipY(y, info.Height))
	if err != nil {
		return fb, fmt.Errorf("read picking pixel (%d,%d): %w", x, y, err)
	}

	fb.ObjectID, fb.World, fb.Hit = Decode(px)
	return fb, nil
}

// Request returns a one-shot command resolving (x, y) at the end of the next frame.
func (r *Resolver) Request(x, y int) render.Command {
	return &Request{resolver: r, X: x, Y: y}
}

// Request is a one-shot picking command.
type Request struct {
	resolver *Resolver
	X, Y     int
}

func (*Request) Zone() render.Zone                { return render.AfterContent }
func (*Request) SelfDestruct() bool               { return true }
func (*Request) SetState(info *render.Info) error { return nil }
func (*Request) Release()                         {}

func (q *Request) Render(info *render.Info) error {
	fb, err := q.resolver.Resolve(info, q.X, q.Y)
	if err != nil {
		return err
	}

	q.resolver.log.Debug("picking resolved",
		zap.Int("x", q.X), zap.Int("y", q.Y),
		zap.Bool("hit", fb.Hit), zap.Uint32("object", uint32(fb.ObjectID)))

	if err := q.resolver.sink.Publish(fb); err != nil {
		if errors.Is(err, events.ErrClosed) {
			return nil
		}
		return err
	}
	return nil
}
