package picking

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/internal/render"
	"github.com/Faultbox/scenegl/internal/scene"
)

// gridReader is a picking attachment held in memory, rows bottom-up.
type gridReader struct {
	width, height int
	pixels        map[[2]int][4]float32
	reads         [][2]int
	err           error
}

func (g *gridReader) ReadPickPixel(x, y int) ([4]float32, error) {
	g.reads = append(g.reads, [2]int{x, y})
	if g.err != nil {
		return [4]float32{}, g.err
	}
	return g.pixels[[2]int{x, y}], nil
}

type recorder struct {
	events []events.Event
	err    error
}

func (r *recorder) Publish(ev events.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func TestEncodeDecode(t *testing.T) {
	for _, id := range []scene.ObjectID{0, 1, 3, 4096, scene.MaxObjectID} {
		world := mgl32.Vec3{0.25, -1, 3.5}
		got, gotWorld, ok := Decode(Encode(id, world))
		require.True(t, ok, "id %d", id)
		assert.Equal(t, id, got)
		assert.Equal(t, world, gotWorld)
	}
}

func TestDecodeEmptyPixel(t *testing.T) {
	id, world, ok := Decode([4]float32{})
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.Equal(t, mgl32.Vec3{}, world)

	_, _, ok = Decode([4]float32{1, 2, 3, 0.2})
	assert.False(t, ok, "blended edge values below one are empty")
}

func TestFlipY(t *testing.T) {
	assert.Equal(t, 479, FlipY(0, 480))
	assert.Equal(t, 0, FlipY(479, 480))
	assert.Equal(t, 240, FlipY(239, 480))
}

func TestRequestCoveredPixel(t *testing.T) {
	// Triangle 3 covers window pixel (10, 20) in a 100x50 viewport.
	reader := &gridReader{width: 100, height: 50, pixels: map[[2]int][4]float32{
		{10, 29}: Encode(3, mgl32.Vec3{0.1, 0.2, -1}),
	}}
	sink := &recorder{}
	r := NewResolver(zaptest.NewLogger(t), reader, sink)

	cmd := r.Request(10, 20)
	assert.Equal(t, render.AfterContent, cmd.Zone())
	assert.True(t, cmd.SelfDestruct())

	info := render.NewInfo(100, 50)
	info.TotalRenderTime = 2.5
	require.NoError(t, cmd.SetState(&info))
	require.NoError(t, cmd.Render(&info))

	assert.Equal(t, [][2]int{{10, 29}}, reader.reads, "exactly one pixel, Y flipped")
	require.Len(t, sink.events, 1)
	assert.Equal(t, events.PickingFeedback{
		Hit:      true,
		ObjectID: 3,
		Time:     2.5,
		ScreenX:  10,
		ScreenY:  20,
		World:    mgl32.Vec3{0.1, 0.2, -1},
	}, sink.events[0])
}

func TestRequestEmptyPixel(t *testing.T) {
	reader := &gridReader{width: 100, height: 50}
	sink := &recorder{}
	r := NewResolver(zaptest.NewLogger(t), reader, sink)

	info := render.NewInfo(100, 50)
	require.NoError(t, r.Request(50, 25).Render(&info))

	require.Len(t, sink.events, 1)
	fb := sink.events[0].(events.PickingFeedback)
	assert.False(t, fb.Hit)
	assert.Zero(t, fb.ObjectID)
}

func TestRequestOutsideViewport(t *testing.T) {
	reader := &gridReader{width: 100, height: 50}
	sink := &recorder{}
	r := NewResolver(zaptest.NewLogger(t), reader, sink)

	info := render.NewInfo(100, 50)
	for _, xy := range [][2]int{{-1, 0}, {100, 0}, {0, 50}} {
		require.NoError(t, r.Request(xy[0], xy[1]).Render(&info))
	}

	assert.Empty(t, reader.reads)
	require.Len(t, sink.events, 3)
	for _, ev := range sink.events {
		assert.False(t, ev.(events.PickingFeedback).Hit)
	}
}

func TestRequestErrors(t *testing.T) {
	info := render.NewInfo(10, 10)

	boom := errors.New("GL_INVALID_OPERATION")
	r := NewResolver(zaptest.NewLogger(t), &gridReader{err: boom}, &recorder{})
	assert.ErrorIs(t, r.Request(1, 1).Render(&info), boom)

	closed := NewResolver(zaptest.NewLogger(t), &gridReader{}, &recorder{err: events.ErrClosed})
	assert.NoError(t, closed.Request(1, 1).Render(&info), "shutdown drops feedback")
}
