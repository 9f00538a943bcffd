// Package events carries results from the render thread back to the caller.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegl/internal/pipeline"
	"github.com/Faultbox/scenegl/internal/scene"
)

// ErrClosed is returned by Publish after the channel was closed.
var ErrClosed = errors.New("event channel closed")

// Event is one of ScreenCapture, PickingFeedback or UserInputState.
type Event interface {
	event()
}

// ScreenCapture is the back buffer as tightly packed RGB rows, bottom-up.
type ScreenCapture struct {
	RGB    []byte
	Width  int
	Height int
}

// PickingFeedback answers a picking request. Hit is false when no object
// covers the requested pixel; ObjectID and World are then zero.
type PickingFeedback struct {
	Hit      bool
	ObjectID scene.ObjectID
	Time     float64
	ScreenX  int
	ScreenY  int
	World    mgl32.Vec3
}

// UserInputState is the input snapshot of one frame.
type UserInputState struct {
	Keyboard KeyboardState
	Mouse    MouseState
	Delta    float64 // seconds since the previous frame
}

// KeyboardState lists keys held down and keys pressed during the frame, by
// SDL keycode name.
type KeyboardState struct {
	Down    []string
	Pressed []string
}

// IsPressed reports whether key went down during the frame.
func (k KeyboardState) IsPressed(key string) bool {
	for _, p := range k.Pressed {
		if p == key {
			return true
		}
	}
	return false
}

// MouseState is the cursor in drawable pixels, origin top-left.
type MouseState struct {
	X, Y       int
	DeltaX     int
	DeltaY     int
	Wheel      int
	Left       bool
	Right      bool
	LeftClick  bool
	RightClick bool
}

func (ScreenCapture) event()   {}
func (PickingFeedback) event() {}
func (UserInputState) event()  {}

// Channel is the engine-to-caller event channel. Publishing is serialized
// against Close so no event is written after cancellation.
type Channel struct {
	mu     sync.Mutex
	closed bool
	queue  *pipeline.Queue[Event]
}

func NewChannel() *Channel {
	return &Channel{queue: pipeline.NewQueue[Event]()}
}

// Publish enqueues ev. It fails with ErrClosed once the channel is closed.
func (c *Channel) Publish(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.queue.Send(ev)
	return nil
}

// Receive blocks for the next event. Events published before Close are
// still delivered.
func (c *Channel) Receive(ctx context.Context) (Event, error) {
	ev, err := c.queue.Receive(ctx)
	if errors.Is(err, pipeline.ErrClosed) {
		return nil, ErrClosed
	}
	return ev, err
}

// Close stops publishing.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.queue.Close()
}

// CloseOnDone closes the channel when ctx is cancelled.
func (c *Channel) CloseOnDone(ctx context.Context) {
	go func() {
		<-ctx.Done()
		c.Close()
	}()
}
