// Package app wires the pipeline together: producers, the assertion
// consumer and the event processor on goroutines, the render loop on the
// main thread.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/scenegl/internal/capture"
	"github.com/Faultbox/scenegl/internal/config"
	"github.com/Faultbox/scenegl/internal/engine/camera"
	"github.com/Faultbox/scenegl/internal/engine/framebuffer"
	"github.com/Faultbox/scenegl/internal/engine/input"
	"github.com/Faultbox/scenegl/internal/engine/renderer"
	"github.com/Faultbox/scenegl/internal/engine/texture"
	"github.com/Faultbox/scenegl/internal/engine/window"
	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/internal/geometry"
	"github.com/Faultbox/scenegl/internal/logger"
	"github.com/Faultbox/scenegl/internal/picking"
	"github.com/Faultbox/scenegl/internal/pipeline"
	"github.com/Faultbox/scenegl/internal/processor"
	"github.com/Faultbox/scenegl/internal/render"
	"github.com/Faultbox/scenegl/internal/scene"
	"github.com/Faultbox/scenegl/internal/source"
	"github.com/Faultbox/scenegl/pkg/assertion"
)

// animationSpeed is the demo rotation in degrees per second.
const animationSpeed = 30

// App is the viewer instance.
type App struct {
	cfg *config.Config
	log *zap.Logger

	window    *window.Window
	input     *input.Input
	target    *framebuffer.Target
	scheduler *render.Scheduler

	assertions *pipeline.Queue[assertion.Batch]
	commands   *pipeline.Queue[render.Command]
	events     *events.Channel

	consumer *processor.Consumer
	camera   *camera.OrbitCamera
	remote   *source.Remote
	writer   *capture.Writer
}

// New creates the window and GL resources. It must be called from the main
// goroutine, which then has to call Run.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:        cfg,
		log:        logger.Named("app"),
		input:      input.New(),
		assertions: pipeline.NewQueue[assertion.Batch](),
		commands:   pipeline.NewQueue[render.Command](),
		events:     events.NewChannel(),
		camera:     camera.NewOrbitCamera(),
		writer:     capture.NewWriter(cfg.Capture.Dir, cfg.Capture.Prefix),
	}

	var err error
	a.window, err = window.New(logger.Named("window"), window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	caps, err := renderer.Init(logger.Named("renderer"))
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}

	width, height := a.window.DrawableSize()
	a.target, err = framebuffer.New(width, height)
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create render target: %w", err)
	}

	programs := geometry.NewPrograms(caps.MaxTextureUnits)
	textures := texture.NewCache(logger.Named("texture"))
	a.scheduler = render.NewScheduler(logger.Named("render"), a.target, width, height, programs, textures)

	limit := min(cfg.Render.MaxTextureUnits, caps.MaxTextureUnits)
	store := scene.NewStore()
	manager := geometry.NewManager(logger.Named("geometry"), store, geometry.Resources{
		Programs: programs,
		Textures: textures,
	}, limit)

	proc := processor.New(
		logger.Named("processor"),
		store,
		manager,
		texture.NewLoader(logger.Named("texture")),
		capture.NewGrabber(logger.Named("capture"), a.target, a.events),
		picking.NewResolver(logger.Named("picking"), a.target, a.events),
	)
	a.consumer = processor.NewConsumer(logger.Named("consumer"), proc)

	if cfg.Remote.Listen != "" {
		a.remote = source.NewRemote(logger.Named("remote"), cfg.Remote.Origins)
	}

	a.log.Info("viewer initialized",
		zap.String("gl", caps.Version),
		zap.Int("texture_units", caps.MaxTextureUnits),
		zap.Int("buffer_texture_limit", limit),
	)
	return a, nil
}

// Run blocks until the window closes, ctx is cancelled or a component fails.
// Cancellation is reported as context.Canceled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	a.events.CloseOnDone(gctx)

	// The view starts where the interactive camera is.
	a.assertions.Send(assertion.Batch{a.camera.Orientation(), assertion.DefaultProjection()})

	g.Go(func() error {
		return a.consumer.Run(gctx, a.assertions, a.commands)
	})

	if len(a.cfg.Scene.Files) > 0 {
		files := source.NewFiles(logger.Named("scene"), a.cfg.Scene.Files, a.cfg.Scene.Watch)
		g.Go(func() error { return files.Run(gctx, a.assertions) })
	}
	if a.cfg.Scene.Animate {
		anim := source.NewAnimation(logger.Named("animation"), a.cfg.Scene.Tick, animationSpeed, source.DemoVertices())
		g.Go(func() error { return anim.Run(gctx, a.assertions) })
	}
	if a.remote != nil {
		g.Go(func() error {
			return a.remote.Run(gctx, a.cfg.Remote.Listen, a.cfg.Remote.Path, a.assertions)
		})
	}

	proc := &EventProcessor{
		log:        logger.Named("events"),
		events:     a.events,
		writer:     a.writer,
		assertions: a.assertions,
		camera:     a.camera,
		quit:       cancel,
	}
	if a.remote != nil {
		proc.notifier = a.remote
	}
	g.Go(func() error { return proc.Run(gctx) })

	loopErr := a.loop(gctx)
	cancel()
	a.assertions.Close()

	err := g.Wait()
	a.release()

	if loopErr != nil {
		return loopErr
	}
	return err
}

// loop renders frames until ctx is done or the window is closed.
func (a *App) loop(ctx context.Context) error {
	a.log.Info("starting render loop")
	defer a.log.Info("render loop stopped")

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	for ctx.Err() == nil {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if a.input.Update() {
			return nil
		}
		if _, _, ok := a.input.Resized(); ok {
			a.scheduler.Resize(a.window.DrawableSize())
		}
		a.publishInput(dt)

		if _, err := a.scheduler.Apply(a.commands); err != nil {
			return err
		}
		if err := a.scheduler.RenderFrame(dt); err != nil {
			return err
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			info := a.scheduler.Info()
			if a.cfg.Render.ShowFPS {
				a.window.SetTitle(fmt.Sprintf("%s - %d fps", a.cfg.Window.Title, frameCount))
			}
			a.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Float64("frame_ms", dt*1000),
				zap.Int("commands", a.scheduler.Len()),
				zap.Float64("render_time", info.TotalRenderTime),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// publishInput forwards the frame's input, scaled to drawable pixels, when
// anything happened.
func (a *App) publishInput(dt float64) {
	state := a.input.State(dt)
	if idle(state) {
		return
	}

	ww, wh := a.window.Size()
	dw, dh := a.window.DrawableSize()
	if ww > 0 && wh > 0 && (ww != dw || wh != dh) {
		state.Mouse.X = state.Mouse.X * dw / ww
		state.Mouse.Y = state.Mouse.Y * dh / wh
	}

	if err := a.events.Publish(state); err != nil && !errors.Is(err, events.ErrClosed) {
		a.log.Warn("input event dropped", zap.Error(err))
	}
}

func idle(s events.UserInputState) bool {
	m := s.Mouse
	return len(s.Keyboard.Down) == 0 && len(s.Keyboard.Pressed) == 0 &&
		m.DeltaX == 0 && m.DeltaY == 0 && m.Wheel == 0 && !m.LeftClick && !m.RightClick
}

// release frees GPU resources on the render thread, including commands the
// consumer produced after the last frame.
func (a *App) release() {
	a.commands.Close()
	for {
		cmd, ok := a.commands.TryReceive()
		if !ok {
			break
		}
		cmd.Release()
	}
	a.scheduler.ReleaseResources()
}

// Close destroys the window. Run must have returned.
func (a *App) Close() {
	a.log.Info("closing viewer")
	if a.window != nil {
		a.window.Close()
	}
}
