package capture

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/internal/render"
)

type frame struct {
	rgb  []byte
	w, h int
	err  error
}

func (f frame) ReadColorRGB() ([]byte, int, int, error) {
	return f.rgb, f.w, f.h, f.err
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

func info(w, h int) *render.Info {
	i := render.NewInfo(w, h)
	return &i
}

// 1x2 frame: bottom row red, top row blue.
var twoRows = frame{rgb: []byte{255, 0, 0, 0, 0, 255}, w: 1, h: 2}

func TestCommandPublishesCapture(t *testing.T) {
	sink := &recorder{}
	g := NewGrabber(zaptest.NewLogger(t), twoRows, sink)

	cmd := g.Request()
	assert.Equal(t, render.AfterContent, cmd.Zone())
	assert.True(t, cmd.SelfDestruct())

	require.NoError(t, cmd.Render(info(1, 2)))
	require.Len(t, sink.events, 1)
	assert.Equal(t, events.ScreenCapture{RGB: twoRows.rgb, Width: 1, Height: 2}, sink.events[0])
}

func TestCommandErrors(t *testing.T) {
	readErr := errors.New("lost context")
	g := NewGrabber(zaptest.NewLogger(t), frame{err: readErr}, &recorder{})
	assert.ErrorIs(t, g.Request().Render(info(1, 1)), readErr)

	g = NewGrabber(zaptest.NewLogger(t), twoRows, &recorder{err: events.ErrClosed})
	assert.NoError(t, g.Request().Render(info(1, 2)), "a closed channel drops the capture")
}

func TestImageFlipsRows(t *testing.T) {
	img, err := Image(events.ScreenCapture{RGB: twoRows.rgb, Width: 1, Height: 2})
	require.NoError(t, err)

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0, 0, 0xffff, 0xffff}, []uint32{r, g, b, a}, "top row comes first")
	r, _, _, _ = img.At(0, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	_, err = Image(events.ScreenCapture{RGB: []byte{1, 2}, Width: 1, Height: 1})
	assert.Error(t, err)
}

func TestWriterSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	w := NewWriter(dir, "scene")
	fixed := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	ev := events.ScreenCapture{RGB: twoRows.rgb, Width: 1, Height: 2}
	first, err := w.Save(ev)
	require.NoError(t, err)
	second, err := w.Save(ev)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "scene_2024-05-01_12-30-00.png"), first)
	assert.Equal(t, filepath.Join(dir, "scene_2024-05-01_12-30-00_1.png"), second)

	f, err := os.Open(first)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dy())
	_, _, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}
