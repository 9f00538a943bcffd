// Package capture reads finished frames back from the GPU and writes them
// out as screenshots.
package capture

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/internal/render"
)

// Reader reads the primary color attachment as bottom-up RGB rows.
type Reader interface {
	ReadColorRGB() ([]byte, int, int, error)
}

// Publisher receives the captured frame.
type Publisher interface {
	Publish(events.Event) error
}

// Grabber creates screenshot commands.
type Grabber struct {
	log    *zap.Logger
	reader Reader
	sink   Publisher
}

func NewGrabber(log *zap.Logger, reader Reader, sink Publisher) *Grabber {
	return &Grabber{log: log, reader: reader, sink: sink}
}

// Request returns a one-shot command capturing the next frame once its
// content has been drawn.
func (g *Grabber) Request() render.Command {
	return &Command{grabber: g}
}

// Command reads back one frame.
type Command struct {
	grabber *Grabber
}

func (*Command) Zone() render.Zone                { return render.AfterContent }
func (*Command) SelfDestruct() bool               { return true }
func (*Command) SetState(info *render.Info) error { return nil }
func (*Command) Release()                         {}

func (c *Command) Render(info *render.Info) error {
	rgb, w, h, err := c.grabber.reader.ReadColorRGB()
	if err != nil {
		return fmt.Errorf("screen capture: %w", err)
	}
	c.grabber.log.Debug("frame captured", zap.Int("width", w), zap.Int("height", h))

	if err := c.grabber.sink.Publish(events.ScreenCapture{RGB: rgb, Width: w, Height: h}); err != nil {
		if errors.Is(err, events.ErrClosed) {
			return nil
		}
		return err
	}
	return nil
}
