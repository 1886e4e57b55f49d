// Package callapp is the renderer-side call logic: the document application
// that registers bridge handlers for the four call-control events and the
// native functions those handlers invoke. The natives drive the media
// signaling client and report status back to the host as emissions.
package callapp

import (
	"context"
	_ "embed"
	"log"
	"sync"

	"github.com/petervdpas/callbridge/internal/bridge"
	"github.com/petervdpas/callbridge/internal/media"
)

//go:embed app.js
var appSource string

// Source returns the embedded document application script.
func Source() string { return appSource }

// Session is what the app needs from an active media session.
type Session interface {
	SetMuted(muted bool) error
	SetCameraOff(off bool) error
	Leave() error
}

// Dialer opens a media session. Swappable so tests never touch a network.
type Dialer func(ctx context.Context, wsURL, token, room string, video bool, h media.Handlers) (Session, error)

func defaultDialer(opts media.Options) Dialer {
	return func(ctx context.Context, wsURL, token, room string, video bool, h media.Handlers) (Session, error) {
		return media.Dial(ctx, wsURL, token, room, video, h, opts)
	}
}

// App holds the native side of the document call logic. One App serves the
// renderer for the process lifetime; the active session changes as calls
// start and end.
type App struct {
	emit func(bridge.Emission)
	dial Dialer

	mu   sync.Mutex
	sess Session
}

// New creates the call app. emit delivers renderer→host status events —
// wire it to the bridge's Emit.
func New(emit func(bridge.Emission), opts media.Options) *App {
	return &App{
		emit: emit,
		dial: defaultDialer(opts),
	}
}

// SetDialer replaces the media dialer. Call before the document loads.
func (a *App) SetDialer(d Dialer) {
	a.dial = d
}

// Natives returns the globals the renderer installs into every fresh
// document runtime.
func (a *App) Natives() map[string]any {
	return map[string]any{
		"callNative": map[string]any{
			"connect":      a.connect,
			"setMuted":     a.setMuted,
			"setCameraOff": a.setCameraOff,
			"disconnect":   a.disconnect,
		},
	}
}

// connect is invoked from the document's startCall handler. Dialing happens
// off the document context; status arrives later as emissions.
func (a *App) connect(wsURL, token, room string, video bool) {
	go func() {
		h := media.Handlers{
			OnConnected: func(room string) {
				a.emit(bridge.Emission{Event: "callConnected", Payload: bridge.Payload{"roomName": room}})
			},
			OnDisconnected: func(reason string) {
				a.dropSession()
				a.emit(bridge.Emission{Event: "callDisconnected", Payload: bridge.Payload{"reason": reason}})
			},
			OnError: func(err error) {
				a.emit(bridge.Emission{Event: "callError", Payload: bridge.Payload{"message": err.Error()}})
			},
		}

		sess, err := a.dial(context.Background(), wsURL, token, room, video, h)
		if err != nil {
			log.Printf("CALLAPP: connect failed: %v", err)
			a.emit(bridge.Emission{Event: "callError", Payload: bridge.Payload{"message": err.Error()}})
			return
		}

		a.mu.Lock()
		old := a.sess
		a.sess = sess
		a.mu.Unlock()
		if old != nil {
			// A second startCall replaces the previous session.
			_ = old.Leave()
		}
	}()
}

func (a *App) setMuted(muted bool) {
	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()
	if sess == nil {
		log.Printf("CALLAPP: toggleMute with no active session")
		return
	}
	if err := sess.SetMuted(muted); err != nil {
		a.emit(bridge.Emission{Event: "callError", Payload: bridge.Payload{"message": err.Error()}})
	}
}

func (a *App) setCameraOff(off bool) {
	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()
	if sess == nil {
		log.Printf("CALLAPP: toggleCamera with no active session")
		return
	}
	if err := sess.SetCameraOff(off); err != nil {
		a.emit(bridge.Emission{Event: "callError", Payload: bridge.Payload{"message": err.Error()}})
	}
}

func (a *App) disconnect() {
	a.mu.Lock()
	sess := a.sess
	a.sess = nil
	a.mu.Unlock()
	if sess == nil {
		return
	}
	if err := sess.Leave(); err != nil {
		log.Printf("CALLAPP: leave: %v", err)
	}
	a.emit(bridge.Emission{Event: "callDisconnected", Payload: bridge.Payload{"reason": "local hangup"}})
}

func (a *App) dropSession() {
	a.mu.Lock()
	a.sess = nil
	a.mu.Unlock()
}
