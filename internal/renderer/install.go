package renderer

import (
	"encoding/json"
	"log"

	"github.com/petervdpas/callbridge/internal/bridge"

	"github.com/google/uuid"
)

// installScript creates the in-document hostBridge object. Every field is
// guarded so a re-install on a live document preserves existing listeners
// and buffered pending events. A handler that throws is logged and isolated
// — the remaining handlers for the event still run.
//
// sendToHost defaults to a console no-op when the native __emit hook is
// absent, so document-side calls never fail before the host sink is wired.
const installScript = `
(function () {
  var b = globalThis.hostBridge;
  if (!b) b = globalThis.hostBridge = {};
  if (!b.listeners) b.listeners = {};
  if (!b.pendingEvents) b.pendingEvents = [];

  if (!b.send) b.send = function (event, payload) {
    b.pendingEvents.push({ event: event, payload: payload });
    var hs = b.listeners[event] || [];
    for (var i = 0; i < hs.length; i++) {
      try { hs[i](payload); } catch (e) { console.error('handler error:', event, e); }
    }
  };

  if (!b.on) b.on = function (event, handler) {
    (b.listeners[event] = b.listeners[event] || []).push(handler);
    for (var i = 0; i < b.pendingEvents.length; i++) {
      var ev = b.pendingEvents[i];
      if (ev.event === event) handler(ev.payload);
    }
  };

  if (!b.sendToHost) {
    if (typeof __emit === 'function') {
      b.sendToHost = function (event, payload) {
        __emit(event, JSON.stringify(payload || {}));
      };
    } else {
      b.sendToHost = function (event, payload) {
        console.log('[doc → host]', event, payload);
      };
    }
  }
})();
`

// parseEmission decodes a document-side emission. A payload that fails to
// parse is delivered empty rather than dropped — the event name alone still
// carries status.
func parseEmission(event, payloadJSON string) bridge.Emission {
	var payload bridge.Payload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		log.Printf("DOC: bad emission payload for %q: %v", event, err)
		payload = bridge.Payload{}
	}
	return bridge.Emission{Event: event, Payload: payload}
}

// docPrinter routes document console output into the host log.
type docPrinter struct{}

func (docPrinter) Log(s string)   { log.Printf("DOC: console: %s", s) }
func (docPrinter) Warn(s string)  { log.Printf("DOC: console warn: %s", s) }
func (docPrinter) Error(s string) { log.Printf("DOC: console error: %s", s) }

// surface is the renderer's visual output handle. There is no real window
// here — embedding the surface into a host layout is the container's
// problem, the bridge only guarantees the handle is created once.
type surface struct {
	id string
}

func newSurface() *surface {
	return &surface{id: "surface-" + uuid.NewString()}
}

func (s *surface) ID() string { return s.id }
