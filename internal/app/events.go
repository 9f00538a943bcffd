package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/capture"
	"github.com/Faultbox/scenegl/internal/engine/camera"
	"github.com/Faultbox/scenegl/internal/engine/input"
	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/internal/source"
	"github.com/Faultbox/scenegl/pkg/assertion"
)

// Notifier fans results out to remote clients.
type Notifier interface {
	Notify(source.Message)
}

// EventProcessor reacts to render feedback and user input: screenshots are
// saved, picking results logged, and input turned into new assertions.
type EventProcessor struct {
	log        *zap.Logger
	events     *events.Channel
	writer     *capture.Writer
	notifier   Notifier
	assertions source.Sink
	camera     *camera.OrbitCamera
	quit       func()
}

// Run handles events until ctx is done or the channel is closed.
func (p *EventProcessor) Run(ctx context.Context) error {
	p.log.Info("event processor started")
	defer p.log.Info("event processor stopped")

	for {
		ev, err := p.events.Receive(ctx)
		if err != nil {
			if errors.Is(err, events.ErrClosed) {
				return nil
			}
			return err
		}

		switch ev := ev.(type) {
		case events.ScreenCapture:
			p.screenshot(ev)
		case events.PickingFeedback:
			p.picking(ev)
		case events.UserInputState:
			p.userInput(ev)
		default:
			p.log.Warn("unknown event type", zap.String("type", fmt.Sprintf("%T", ev)))
		}
	}
}

func (p *EventProcessor) screenshot(ev events.ScreenCapture) {
	start := time.Now()
	path, err := p.writer.Save(ev)
	if err != nil {
		p.log.Error("screenshot failed", zap.Error(err))
		return
	}
	p.log.Info("screenshot saved",
		zap.String("path", path),
		zap.Int("width", ev.Width),
		zap.Int("height", ev.Height),
		zap.Duration("took", time.Since(start)),
	)
	if p.notifier != nil {
		p.notifier.Notify(source.ScreenshotMessage(path, ev.Width, ev.Height))
	}
}

func (p *EventProcessor) picking(ev events.PickingFeedback) {
	if ev.Hit {
		p.log.Info("object picked",
			zap.Uint32("object", uint32(ev.ObjectID)),
			zap.Int("x", ev.ScreenX),
			zap.Int("y", ev.ScreenY),
			zap.Float32s("world", ev.World[:]),
		)
	} else {
		p.log.Info("nothing picked", zap.Int("x", ev.ScreenX), zap.Int("y", ev.ScreenY))
	}
	if p.notifier != nil {
		p.notifier.Notify(source.PickingMessage(ev))
	}
}

// Movement keys pan the orbit center.
var movementKeys = map[string][3]float32{
	"W": {1, 0, 0},
	"S": {-1, 0, 0},
	"D": {0, 1, 0},
	"A": {0, -1, 0},
	"E": {0, 0, 1},
	"Q": {0, 0, -1},
}

func (p *EventProcessor) userInput(ev events.UserInputState) {
	if ev.Keyboard.IsPressed(input.KeyEscape) {
		p.log.Info("quit requested")
		p.quit()
		return
	}

	var batch assertion.Batch
	if ev.Keyboard.IsPressed(input.KeyF12) {
		batch = append(batch, assertion.GrabScreenshot{})
	}
	if ev.Mouse.LeftClick {
		batch = append(batch, assertion.GetPickingInfo{ScreenX: ev.Mouse.X, ScreenY: ev.Mouse.Y})
	}

	moved := false
	if ev.Mouse.Left && (ev.Mouse.DeltaX != 0 || ev.Mouse.DeltaY != 0) {
		p.camera.HandleDrag(float32(ev.Mouse.DeltaX), float32(ev.Mouse.DeltaY))
		moved = true
	}
	if ev.Mouse.Wheel != 0 {
		p.camera.HandleZoom(float32(ev.Mouse.Wheel))
		moved = true
	}

	var pan [3]float32
	for _, key := range ev.Keyboard.Down {
		if dir, ok := movementKeys[key]; ok {
			pan[0] += dir[0]
			pan[1] += dir[1]
			pan[2] += dir[2]
		}
	}
	if pan != ([3]float32{}) {
		// Frame-rate independent, tuned at 60 fps.
		scale := float32(ev.Delta * 60)
		p.camera.HandleMovement(pan[0]*scale, pan[1]*scale, pan[2]*scale)
		moved = true
	}
	if moved {
		batch = append(batch, p.camera.Orientation())
	}

	if len(batch) > 0 {
		p.assertions.Send(batch)
	}
}
