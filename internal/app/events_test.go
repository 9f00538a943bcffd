package app

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/scenegl/internal/capture"
	"github.com/Faultbox/scenegl/internal/engine/camera"
	"github.com/Faultbox/scenegl/internal/engine/input"
	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/internal/pipeline"
	"github.com/Faultbox/scenegl/internal/source"
	"github.com/Faultbox/scenegl/pkg/assertion"
)

type notes struct {
	mu   sync.Mutex
	msgs []source.Message
}

func (n *notes) Notify(msg source.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

type harness struct {
	proc   *EventProcessor
	queue  *pipeline.Queue[assertion.Batch]
	notes  *notes
	quits  int
	events *events.Channel
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		queue:  pipeline.NewQueue[assertion.Batch](),
		notes:  &notes{},
		events: events.NewChannel(),
	}
	h.proc = &EventProcessor{
		log:        zaptest.NewLogger(t),
		events:     h.events,
		writer:     capture.NewWriter(t.TempDir(), "test"),
		notifier:   h.notes,
		assertions: h.queue,
		camera:     camera.NewOrbitCamera(),
		quit:       func() { h.quits++ },
	}
	return h
}

// run publishes evs, closes the channel and processes everything.
func (h *harness) run(t *testing.T, evs ...events.Event) {
	for _, ev := range evs {
		require.NoError(t, h.events.Publish(ev))
	}
	h.events.Close()
	require.NoError(t, h.proc.Run(context.Background()))
}

func TestEscapeQuits(t *testing.T) {
	h := newHarness(t)
	h.run(t, events.UserInputState{Keyboard: events.KeyboardState{Pressed: []string{input.KeyEscape}}})
	assert.Equal(t, 1, h.quits)
	assert.Zero(t, h.queue.Len())
}

func TestInputBecomesAssertions(t *testing.T) {
	h := newHarness(t)
	h.run(t, events.UserInputState{
		Keyboard: events.KeyboardState{Pressed: []string{input.KeyF12}},
		Mouse:    events.MouseState{X: 10, Y: 20, LeftClick: true},
	})

	batch, ok := h.queue.TryReceive()
	require.True(t, ok)
	assert.Equal(t, assertion.Batch{
		assertion.GrabScreenshot{},
		assertion.GetPickingInfo{ScreenX: 10, ScreenY: 20},
	}, batch)
}

func TestDragOrbitsCamera(t *testing.T) {
	h := newHarness(t)
	before := h.proc.camera.Orientation()

	h.run(t,
		events.UserInputState{Mouse: events.MouseState{Left: true, DeltaX: 40}},
		events.UserInputState{Mouse: events.MouseState{Wheel: 1}},
		events.UserInputState{Keyboard: events.KeyboardState{Down: []string{"W"}}, Delta: 1.0 / 60},
	)

	require.Equal(t, 3, h.queue.Len())
	for i := 0; i < 3; i++ {
		batch, _ := h.queue.TryReceive()
		require.Len(t, batch, 1)
		o, ok := batch[0].(assertion.CameraOrientation)
		require.True(t, ok)
		assert.NotEqual(t, before.Location, o.Location)
		before = o
	}
}

func TestScreenshotSavedAndAnnounced(t *testing.T) {
	h := newHarness(t)
	h.run(t, events.ScreenCapture{RGB: []byte{1, 2, 3, 4, 5, 6}, Width: 2, Height: 1})

	require.Len(t, h.notes.msgs, 1)
	shot := h.notes.msgs[0].Screenshot
	require.NotNil(t, shot)
	assert.Equal(t, 2, shot.Width)
	_, err := os.Stat(shot.Path)
	assert.NoError(t, err)
}

func TestPickingAnnounced(t *testing.T) {
	h := newHarness(t)
	h.run(t,
		events.PickingFeedback{Hit: true, ObjectID: 4, World: mgl32.Vec3{1, 0, 0}},
		events.PickingFeedback{ScreenX: 3},
	)

	require.Len(t, h.notes.msgs, 2)
	assert.True(t, h.notes.msgs[0].Picking.Hit)
	assert.Equal(t, uint32(4), h.notes.msgs[0].Picking.ObjectID)
	assert.False(t, h.notes.msgs[1].Picking.Hit)
}

func TestIdle(t *testing.T) {
	assert.True(t, idle(events.UserInputState{Mouse: events.MouseState{X: 5, Left: true}}))
	assert.False(t, idle(events.UserInputState{Mouse: events.MouseState{DeltaY: 1}}))
	assert.False(t, idle(events.UserInputState{Keyboard: events.KeyboardState{Down: []string{"W"}}}))
}
