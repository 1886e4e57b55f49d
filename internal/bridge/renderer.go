package bridge

import "errors"

// ErrNoDocument is returned by a Renderer when a command is run while no
// document is loaded (between navigation start and load-complete).
var ErrNoDocument = errors.New("no document loaded")

// Renderer is the only surface the bridge needs from the embedded document
// renderer. The concrete goja-backed implementation lives in
// internal/renderer; tests use a recording fake.
type Renderer interface {
	// Run delivers one command to the currently loaded document. Must be
	// invoked from the renderer's own execution context (see Dispatch).
	// Returns ErrNoDocument when no document is live.
	Run(cmd Command) error

	// InstallBridge (re)installs the in-document event bridge object.
	// Idempotent on a live document: existing listeners and buffered
	// pending events are preserved.
	InstallBridge() error

	// Dispatch schedules fn on the single execution context that is
	// authorized to drive the document. Calls never block; fn runs in
	// submission order relative to other dispatched work.
	Dispatch(fn func())

	// Surface returns the renderer's visual surface, creating it on first
	// call and reusing it afterwards.
	Surface() (Surface, error)
}

// Surface is the renderer's visual output, opaque to the bridge. The host
// embeds it into a container it owns.
type Surface interface {
	// ID identifies the surface for logging and container bookkeeping.
	ID() string
}

// Container is a host-owned slot that can embed the renderer surface.
type Container interface {
	Embed(s Surface)
}
