// Package render schedules render commands into frames. It owns the ordered
// command list and is driven exclusively from the render thread.
package render

import "fmt"

// Zone fixes the relative order of commands within a frame.
type Zone uint8

const (
	BeforeContent Zone = iota
	ContentRenderStep
	AfterContent
)

func (z Zone) String() string {
	switch z {
	case BeforeContent:
		return "before-content"
	case ContentRenderStep:
		return "content"
	case AfterContent:
		return "after-content"
	}
	return fmt.Sprintf("zone(%d)", uint8(z))
}

// Command is a schedulable unit of per-frame GPU work.
type Command interface {
	// Zone is where the command renders within a frame.
	Zone() Zone
	// SelfDestruct commands render once, then are removed and released.
	SelfDestruct() bool
	// SetState prepares GPU resources. It runs once, on the render thread,
	// before the command is first rendered.
	SetState(info *Info) error
	Render(info *Info) error
	Release()
}

// Target is the surface frames are drawn into.
type Target interface {
	Resize(width, height int) error
	// Begin binds and clears the target.
	Begin(info *Info) error
	// End presents the frame to the window.
	End(info *Info) error
	Release()
}

// Releaser is a render-thread resource disposed with the scheduler.
type Releaser interface {
	Release()
}

// Source yields pending commands without blocking.
type Source interface {
	TryReceive() (Command, bool)
}
