// Package bridge implements the host side of the cross-runtime command
// channel between a call-control host and an embedded document renderer.
// It is designed to be maximally standalone — coupling to the renderer is
// via the Renderer interface only.
//
// Commands submitted before the document finishes loading are buffered and
// flushed in FIFO order once it does. A document reload closes the gate
// again: commands submitted during the reload wait for the next
// load-complete signal. Delivery is exactly once; a command that fails to
// execute is logged and consumed, never retried (commands are
// fire-and-forget status pushes with no value in replaying them against a
// torn-down document).
package bridge

import (
	"fmt"
	"log"
	"sync"
)

// emitBuffer bounds the renderer→host emission channel. Emissions are
// status events; when the host sink stalls this long, newer status has
// already superseded whatever we would drop.
const emitBuffer = 128

// Bridge is the process-wide command/event channel. Construct via New (or
// the Open singleton) and wire the renderer's load notifications to
// DocumentLoaded / DocumentWillReload.
type Bridge struct {
	r Renderer

	mu    sync.Mutex
	ready bool
	queue *Queue

	emitCh  chan Emission
	sinkMu  sync.RWMutex
	sinks   []func(Emission)

	surfaceOnce sync.Once
	surface     Surface
	surfaceErr  error

	errSink func(error)

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Bridge attached to r and starts the emission delivery
// goroutine. The gate starts closed; the renderer opens it by calling
// DocumentLoaded once its document finishes loading.
func New(r Renderer) *Bridge {
	b := &Bridge{
		r:      r,
		queue:  NewQueue(),
		emitCh: make(chan Emission, emitBuffer),
		done:   make(chan struct{}),
	}
	b.errSink = func(err error) { log.Printf("BRIDGE: %v", err) }
	go b.deliverLoop()
	return b
}

// SetErrorSink replaces the default log-based sink for execution failures.
// Must be called before the bridge is shared between goroutines.
func (b *Bridge) SetErrorSink(fn func(error)) {
	if fn != nil {
		b.errSink = fn
	}
}

// Submit routes one command through the queue/gate. Never blocks: if the
// document is ready the command is marshaled onto the renderer context for
// immediate execution, otherwise it waits in the queue for the next flush.
func (b *Bridge) Submit(cmd Command) {
	b.mu.Lock()
	if !b.ready {
		b.queue.Submit(cmd)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	b.r.Dispatch(func() {
		b.run(cmd)
	})
}

// run executes one command on the renderer context. Failures are reported
// and the command is consumed, never retried.
func (b *Bridge) run(cmd Command) {
	if err := b.r.Run(cmd); err != nil {
		b.errSink(fmt.Errorf("execute %s: %w", cmd.Event, err))
	}
}

// DocumentLoaded opens the readiness gate. The in-document bridge is
// (re-)installed before the queue is flushed, so events emitted by flushed
// commands are replayable to handlers the document registers later. The
// whole sequence runs on the renderer context.
func (b *Bridge) DocumentLoaded() {
	b.r.Dispatch(func() {
		if err := b.r.InstallBridge(); err != nil {
			b.errSink(fmt.Errorf("install bridge: %w", err))
			return
		}

		b.mu.Lock()
		b.ready = true
		cmds := b.queue.DrainAll()
		b.mu.Unlock()

		if len(cmds) > 0 {
			log.Printf("BRIDGE: flushing %d queued command(s)", len(cmds))
		}
		for _, cmd := range cmds {
			b.run(cmd)
		}
	})
}

// DocumentWillReload closes the readiness gate. Called on navigation or
// reload start. Idempotent — a second close while already closed is a
// no-op, since no command can be lost by closing twice.
func (b *Bridge) DocumentWillReload() {
	b.mu.Lock()
	b.ready = false
	b.mu.Unlock()
}

// Ready reports whether the current document has signaled load-completion.
func (b *Bridge) Ready() bool {
	b.mu.Lock()
	r := b.ready
	b.mu.Unlock()
	return r
}

// Pending returns the number of commands waiting for the next flush.
func (b *Bridge) Pending() int {
	return b.queue.Len()
}

// Document returns the renderer handle the bridge drives. The bridge owns
// the renderer for the process lifetime, so hosts reach it through here
// rather than holding their own reference.
func (b *Bridge) Document() Renderer {
	return b.r
}

// AttachSurface embeds the renderer's visual surface into c. The surface is
// created at most once and reused across repeated attach calls; safe to
// call before or after readiness.
func (b *Bridge) AttachSurface(c Container) error {
	b.surfaceOnce.Do(func() {
		b.surface, b.surfaceErr = b.r.Surface()
	})
	if b.surfaceErr != nil {
		return fmt.Errorf("create surface: %w", b.surfaceErr)
	}
	c.Embed(b.surface)
	return nil
}

// OnEmission registers a host-side sink for renderer status events. Sinks
// are invoked in registration order on a dedicated goroutine, never on the
// renderer context.
func (b *Bridge) OnEmission(fn func(Emission)) {
	b.sinkMu.Lock()
	b.sinks = append(b.sinks, fn)
	b.sinkMu.Unlock()
}

// Emit delivers one renderer→host status event. Called by the renderer (or
// renderer-side call logic); never blocks the caller. If the delivery
// buffer is full the emission is dropped with a log line.
func (b *Bridge) Emit(e Emission) {
	select {
	case b.emitCh <- e:
	case <-b.done:
	default:
		log.Printf("BRIDGE: emission buffer full, dropping %q", e.Event)
	}
}

func (b *Bridge) deliverLoop() {
	for {
		select {
		case <-b.done:
			return
		case e := <-b.emitCh:
			b.sinkMu.RLock()
			sinks := make([]func(Emission), len(b.sinks))
			copy(sinks, b.sinks)
			b.sinkMu.RUnlock()
			for _, fn := range sinks {
				fn(e)
			}
		}
	}
}

// Close stops emission delivery. The command path is not torn down — the
// bridge lives for the process lifetime; Close exists for tests and for
// orderly host shutdown.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
