// Package renderer hosts the embedded document runtime the bridge drives.
// The document is a JavaScript program executed on a dop251/goja runtime;
// all document work runs on a single dedicated goroutine (the document's
// execution context), matching how a real browser renderer serializes
// script execution. A document (re)load tears the runtime down and builds a
// fresh one, so in-document bridge state never survives a reload.
package renderer

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/petervdpas/callbridge/internal/bridge"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
)

// Notifier receives document lifecycle notifications and renderer-side
// emissions. The bridge satisfies this.
type Notifier interface {
	DocumentWillReload()
	DocumentLoaded()
	Emit(e bridge.Emission)
}

// Options configures a Renderer.
type Options struct {
	// AppScript is the path of the document application script, read on
	// every (re)load. Takes precedence over AppSource.
	AppScript string

	// AppSource is an inline document application, used when AppScript is
	// empty. Mostly for tests and embedded apps.
	AppSource string

	// Natives are Go values installed as globals into every fresh document
	// runtime before the application script runs.
	Natives map[string]any

	// DevReload watches AppScript and reloads the document on change.
	DevReload bool
}

// Renderer owns the document execution context. Implements bridge.Renderer.
type Renderer struct {
	opts Options

	jobMu   sync.Mutex
	jobCond *sync.Cond
	jobs    []func()
	stopped bool

	// vm is the current document runtime. Touched only on the job
	// goroutine; nil between navigation start and load-complete.
	vm *goja.Runtime

	registry *require.Registry

	notifyMu sync.RWMutex
	notifier Notifier

	surfaceOnce sync.Once
	surface     bridge.Surface

	watcher *watcher
}

// New brings the renderer engine up: starts the document goroutine and,
// when DevReload is set, the app-script watcher. The first document load
// must be requested explicitly via LoadDocument.
func New(opts Options) (*Renderer, error) {
	if opts.AppScript == "" && opts.AppSource == "" {
		return nil, fmt.Errorf("renderer: no document application configured")
	}

	registry := require.NewRegistry()
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(docPrinter{}))

	r := &Renderer{
		opts:     opts,
		registry: registry,
	}
	r.jobCond = sync.NewCond(&r.jobMu)
	go r.loop()

	if opts.DevReload && opts.AppScript != "" {
		w, err := newWatcher(opts.AppScript, r.LoadDocument)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("watch app script: %w", err)
		}
		r.watcher = w
	}

	log.Printf("DOC: renderer engine up (app=%s)", opts.AppScript)
	return r, nil
}

// Bind wires the lifecycle notifier (the bridge). Must be called before the
// first LoadDocument for queued commands to flush on load.
func (r *Renderer) Bind(n Notifier) {
	r.notifyMu.Lock()
	r.notifier = n
	r.notifyMu.Unlock()
}

func (r *Renderer) notify() Notifier {
	r.notifyMu.RLock()
	n := r.notifier
	r.notifyMu.RUnlock()
	return n
}

// Dispatch schedules fn on the document goroutine. FIFO, never blocks.
func (r *Renderer) Dispatch(fn func()) {
	r.jobMu.Lock()
	if r.stopped {
		r.jobMu.Unlock()
		return
	}
	r.jobs = append(r.jobs, fn)
	r.jobCond.Signal()
	r.jobMu.Unlock()
}

func (r *Renderer) loop() {
	for {
		r.jobMu.Lock()
		for len(r.jobs) == 0 && !r.stopped {
			r.jobCond.Wait()
		}
		if r.stopped && len(r.jobs) == 0 {
			r.jobMu.Unlock()
			return
		}
		fn := r.jobs[0]
		r.jobs = r.jobs[1:]
		r.jobMu.Unlock()
		fn()
	}
}

// LoadDocument navigates to (or reloads) the document application. The
// notifier's DocumentWillReload fires before the old runtime is discarded
// and DocumentLoaded after the fresh application script has run.
func (r *Renderer) LoadDocument() {
	r.Dispatch(r.load)
}

// load runs on the document goroutine.
func (r *Renderer) load() {
	if n := r.notify(); n != nil {
		n.DocumentWillReload()
	}
	r.vm = nil

	src, err := r.appSource()
	if err != nil {
		log.Printf("DOC: load failed: %v", err)
		return
	}

	vm := goja.New()
	r.registry.Enable(vm)
	console.Enable(vm)
	vm.Set("__emit", r.jsEmit)
	for name, v := range r.opts.Natives {
		vm.Set(name, v)
	}
	r.vm = vm

	if _, err := vm.RunString(src); err != nil {
		// The document is still considered loaded — a script error in the
		// app does not keep the gate closed, same as a browser page with a
		// broken script.
		log.Printf("DOC: app script error: %v", err)
	}

	log.Printf("DOC: document loaded")
	if n := r.notify(); n != nil {
		n.DocumentLoaded()
	}
}

func (r *Renderer) appSource() (string, error) {
	if r.opts.AppScript == "" {
		return r.opts.AppSource, nil
	}
	b, err := os.ReadFile(r.opts.AppScript)
	if err != nil {
		return "", fmt.Errorf("read app script: %w", err)
	}
	return string(b), nil
}

// jsEmit is exposed to the document as __emit(event, payloadJSON). The
// install script routes hostBridge.sendToHost through it.
func (r *Renderer) jsEmit(event, payloadJSON string) {
	n := r.notify()
	if n == nil {
		return
	}
	n.Emit(parseEmission(event, payloadJSON))
}

// Run delivers one command to the current document. Document goroutine only.
func (r *Renderer) Run(cmd bridge.Command) error {
	if r.vm == nil {
		return bridge.ErrNoDocument
	}
	script, err := BuildScript(cmd)
	if err != nil {
		return err
	}
	if _, err := r.vm.RunString(script); err != nil {
		return fmt.Errorf("document rejected command: %w", err)
	}
	return nil
}

// InstallBridge (re)installs the in-document hostBridge object. Document
// goroutine only. Idempotent: listeners and pending events already present
// are preserved, only missing fields are initialized.
func (r *Renderer) InstallBridge() error {
	if r.vm == nil {
		return bridge.ErrNoDocument
	}
	if _, err := r.vm.RunString(installScript); err != nil {
		return fmt.Errorf("install script: %w", err)
	}
	return nil
}

// Eval runs src against the current document and returns the result's
// string form. A debugging hook, also used by tests to inspect document
// state; callable from any goroutine. Must not be called after Close.
func (r *Renderer) Eval(src string) (string, error) {
	type result struct {
		val string
		err error
	}
	ch := make(chan result, 1)
	r.Dispatch(func() {
		if r.vm == nil {
			ch <- result{err: bridge.ErrNoDocument}
			return
		}
		v, err := r.vm.RunString(src)
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{val: v.String()}
	})
	res := <-ch
	return res.val, res.err
}

// Surface returns the renderer's visual surface, created at most once.
func (r *Renderer) Surface() (bridge.Surface, error) {
	r.surfaceOnce.Do(func() {
		r.surface = newSurface()
		log.Printf("DOC: surface %s created", r.surface.ID())
	})
	return r.surface, nil
}

// Close stops the watcher and the document goroutine after draining
// dispatched work.
func (r *Renderer) Close() {
	if r.watcher != nil {
		r.watcher.close()
	}
	r.jobMu.Lock()
	r.stopped = true
	r.jobCond.Signal()
	r.jobMu.Unlock()
}
