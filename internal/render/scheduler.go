package render

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Scheduler keeps the active commands in zone order and renders them once per
// frame. Every method must be called from the render thread except Resize and
// ReleaseResources, which may race with a frame and are serialized by locks.
type Scheduler struct {
	log    *zap.Logger
	target Target
	extra  []Releaser

	// Lock order: update, render, resize.
	updateMu sync.Mutex
	renderMu sync.Mutex
	resizeMu sync.Mutex
	shutdown bool

	before  []Command
	content []Command
	after   []Command

	info Info

	pendingWidth, pendingHeight int
	resized                     bool
}

// NewScheduler creates a scheduler drawing into target. Resources are released
// together with the commands.
func NewScheduler(log *zap.Logger, target Target, width, height int, resources ...Releaser) *Scheduler {
	return &Scheduler{
		log:           log,
		target:        target,
		extra:         resources,
		info:          NewInfo(width, height),
		pendingWidth:  width,
		pendingHeight: height,
		resized:       true,
	}
}

// Info returns a copy of the current frame state.
func (s *Scheduler) Info() Info {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.info
}

// UpdateState prepares cmd and inserts it into its zone. A SetState failure is
// a GPU-level error and is returned for the caller to abort on.
func (s *Scheduler) UpdateState(cmd Command) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()
	if s.shutdown {
		return nil
	}

	if err := cmd.SetState(&s.info); err != nil {
		cmd.Release()
		return fmt.Errorf("set state for %T: %w", cmd, err)
	}

	switch cmd.Zone() {
	case BeforeContent:
		s.before = append([]Command{cmd}, s.before...)
	case ContentRenderStep:
		s.content = append(s.content, cmd)
	case AfterContent:
		s.after = append(s.after, cmd)
	default:
		cmd.Release()
		return fmt.Errorf("%T declares %s", cmd, cmd.Zone())
	}
	return nil
}

// Apply drains src in arrival order, preparing every pending command.
func (s *Scheduler) Apply(src Source) (int, error) {
	n := 0
	for {
		cmd, ok := src.TryReceive()
		if !ok {
			return n, nil
		}
		if err := s.UpdateState(cmd); err != nil {
			return n, err
		}
		n++
	}
}

// Resize records a new viewport size, applied before the next frame.
func (s *Scheduler) Resize(width, height int) {
	s.resizeMu.Lock()
	defer s.resizeMu.Unlock()
	if s.shutdown {
		return
	}
	if width == s.pendingWidth && height == s.pendingHeight {
		return
	}
	s.pendingWidth, s.pendingHeight = width, height
	s.resized = true
}

// RenderFrame draws one frame. dt is the time since the previous frame in seconds.
func (s *Scheduler) RenderFrame(dt float64) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if s.shutdown {
		return nil
	}

	s.info.TotalRenderTime += dt
	if dt > 0 {
		s.info.FrameRate = 1 / dt
	}

	if err := s.applyResize(); err != nil {
		return err
	}

	if err := s.target.Begin(&s.info); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	var err error
	if s.before, err = s.traverse(s.before); err != nil {
		return err
	}
	if s.content, err = s.traverse(s.content); err != nil {
		return err
	}
	if s.after, err = s.traverse(s.after); err != nil {
		return err
	}

	if err := s.target.End(&s.info); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

// applyResize must be called with renderMu held.
func (s *Scheduler) applyResize() error {
	s.resizeMu.Lock()
	defer s.resizeMu.Unlock()
	if !s.resized {
		return nil
	}
	s.resized = false

	if err := s.target.Resize(s.pendingWidth, s.pendingHeight); err != nil {
		return fmt.Errorf("resize target to %dx%d: %w", s.pendingWidth, s.pendingHeight, err)
	}
	s.info.Width, s.info.Height = s.pendingWidth, s.pendingHeight
	s.log.Info("window resized", zap.Int("width", s.info.Width), zap.Int("height", s.info.Height))
	return nil
}

// traverse renders cmds in order and returns the list without the
// self-destructed ones.
func (s *Scheduler) traverse(cmds []Command) ([]Command, error) {
	kept := cmds[:0]
	for i, cmd := range cmds {
		if err := cmd.Render(&s.info); err != nil {
			kept = append(kept, cmds[i:]...)
			return kept, fmt.Errorf("render %T: %w", cmd, err)
		}
		if cmd.SelfDestruct() {
			cmd.Release()
			continue
		}
		kept = append(kept, cmd)
	}
	clear(cmds[len(kept):])
	return kept, nil
}

// Len returns the number of active commands.
func (s *Scheduler) Len() int {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()
	return len(s.before) + len(s.content) + len(s.after)
}

// ReleaseResources disposes every command, the registered resources and the
// target. Only the first call has an effect; later calls to any method are no-ops.
func (s *Scheduler) ReleaseResources() {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.resizeMu.Lock()
	defer s.resizeMu.Unlock()

	if s.shutdown {
		return
	}
	s.shutdown = true

	n := 0
	for _, zone := range [][]Command{s.before, s.content, s.after} {
		for _, cmd := range zone {
			cmd.Release()
			n++
		}
	}
	s.before, s.content, s.after = nil, nil, nil

	for _, r := range s.extra {
		r.Release()
	}
	s.target.Release()

	s.log.Info("render resources released", zap.Int("commands", n))
}
