package source

import (
	"context"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/pkg/assertion"
)

// DemoVertices are the vertices of the demo scene that the animation turns.
func DemoVertices() []assertion.Vertex {
	return []assertion.Vertex{
		{ID: 0, Position: assertion.Vec3{-0.33, 0, 0}},
		{ID: 1, Position: assertion.Vec3{0.33, 0, 0}},
		{ID: 2, Position: assertion.Vec3{0, 0.33, 0}},
		{ID: 4, Position: assertion.Vec3{0.66, -0.33, 0}},
		{ID: 5, Position: assertion.Vec3{0, -0.33, 0}},
		{ID: 7, Position: assertion.Vec3{-0.66, -0.33, 0}},
	}
}

// Animation rotates a fixed set of vertices around the Z axis, one batch
// per tick.
type Animation struct {
	log   *zap.Logger
	tick  time.Duration
	speed float32 // degrees per second
	base  []assertion.Vertex
}

func NewAnimation(log *zap.Logger, tick time.Duration, speed float32, base []assertion.Vertex) *Animation {
	return &Animation{log: log, tick: tick, speed: speed, base: base}
}

// Frame returns the batch for elapsed time since the start.
func (a *Animation) Frame(elapsed time.Duration) assertion.Batch {
	angle := a.speed * float32(elapsed.Seconds()) * math32.Pi / 180
	sin, cos := math32.Sin(angle), math32.Cos(angle)

	batch := make(assertion.Batch, 0, len(a.base))
	for _, v := range a.base {
		x, y := v.Position[0], v.Position[1]
		batch = append(batch, assertion.Vertex{
			ID:       v.ID,
			Position: assertion.Vec3{x*cos - y*sin, x*sin + y*cos, v.Position[2]},
		})
	}
	return batch
}

func (a *Animation) Run(ctx context.Context, out Sink) error {
	a.log.Info("animation started", zap.Int("vertices", len(a.base)), zap.Duration("tick", a.tick))
	defer a.log.Info("animation stopped")

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if !out.Send(a.Frame(now.Sub(start))) {
				return nil
			}
		}
	}
}
