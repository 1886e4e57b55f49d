package bridge

import (
	"fmt"
	"sync"
)

var (
	openMu   sync.Mutex
	instance *Bridge
	openErr  error
)

// Open returns the process-wide bridge, constructing it on first call.
// newRenderer performs the one-time renderer/engine bring-up; a bring-up
// failure is fatal and sticks — every later Open returns the same error.
// Concurrent first calls yield exactly one instance.
func Open(newRenderer func() (Renderer, error)) (*Bridge, error) {
	openMu.Lock()
	defer openMu.Unlock()

	if instance != nil || openErr != nil {
		return instance, openErr
	}

	r, err := newRenderer()
	if err != nil {
		openErr = fmt.Errorf("renderer bring-up: %w", err)
		return nil, openErr
	}
	instance = New(r)
	return instance, nil
}

// Default returns the process-wide bridge, or nil if Open has not succeeded
// yet.
func Default() *Bridge {
	openMu.Lock()
	defer openMu.Unlock()
	return instance
}
