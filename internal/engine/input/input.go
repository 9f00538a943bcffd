// Package input turns SDL2 events into per-frame input snapshots.
package input

import (
	"slices"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/scenegl/internal/events"
)

// Key names as reported by SDL for the keys the viewer binds.
const (
	KeyEscape = "Escape"
	KeyF12    = "F12"
)

// Input accumulates SDL events between frames.
type Input struct {
	down    map[string]bool
	pressed []string

	mouse   events.MouseState
	lastX   int
	lastY   int
	resized bool
	width   int
	height  int
	quit    bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{down: make(map[string]bool)}
}

// Update polls SDL events. It returns true once the window was asked to close.
func (i *Input) Update() bool {
	i.reset()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		i.handle(event)
	}
	return i.quit
}

func (i *Input) reset() {
	i.pressed = i.pressed[:0]
	i.mouse.DeltaX, i.mouse.DeltaY, i.mouse.Wheel = 0, 0, 0
	i.mouse.LeftClick, i.mouse.RightClick = false, false
	i.resized = false
}

func (i *Input) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.quit = true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED || e.Event == sdl.WINDOWEVENT_RESIZED {
			i.resized = true
			i.width, i.height = int(e.Data1), int(e.Data2)
		}

	case *sdl.KeyboardEvent:
		name := sdl.GetKeyName(e.Keysym.Sym)
		if e.Type == sdl.KEYDOWN {
			if e.Repeat == 0 {
				i.pressed = append(i.pressed, name)
			}
			i.down[name] = true
		} else if e.Type == sdl.KEYUP {
			delete(i.down, name)
		}

	case *sdl.MouseMotionEvent:
		i.mouse.X, i.mouse.Y = int(e.X), int(e.Y)
		i.mouse.DeltaX += int(e.XRel)
		i.mouse.DeltaY += int(e.YRel)

	case *sdl.MouseWheelEvent:
		i.mouse.Wheel += int(e.Y)

	case *sdl.MouseButtonEvent:
		i.mouse.X, i.mouse.Y = int(e.X), int(e.Y)
		pressed := e.Type == sdl.MOUSEBUTTONDOWN
		switch e.Button {
		case sdl.BUTTON_LEFT:
			if pressed {
				i.lastX, i.lastY = i.mouse.X, i.mouse.Y
			} else if i.mouse.Left && i.lastX == i.mouse.X && i.lastY == i.mouse.Y {
				// A release without movement is a click; drags orbit the camera.
				i.mouse.LeftClick = true
			}
			i.mouse.Left = pressed
		case sdl.BUTTON_RIGHT:
			if !pressed && i.mouse.Right {
				i.mouse.RightClick = true
			}
			i.mouse.Right = pressed
		}
	}
}

// State returns the snapshot of the last Update.
func (i *Input) State(delta float64) events.UserInputState {
	down := make([]string, 0, len(i.down))
	for k := range i.down {
		down = append(down, k)
	}
	slices.Sort(down)

	return events.UserInputState{
		Keyboard: events.KeyboardState{
			Down:    down,
			Pressed: slices.Clone(i.pressed),
		},
		Mouse: i.mouse,
		Delta: delta,
	}
}

// Resized reports the new window size if it changed during the last Update.
func (i *Input) Resized() (int, int, bool) {
	return i.width, i.height, i.resized
}

// IsKeyPressed checks if a key went down during the last Update.
func (i *Input) IsKeyPressed(name string) bool {
	return slices.Contains(i.pressed, name)
}
