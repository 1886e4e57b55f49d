package bridge

// The call command facade: the four operations the host issues against the
// in-document call logic. Each builds a structured command and routes it
// through the queue/gate; all are non-blocking regardless of readiness.

// StartCall asks the document to join a room on the signaling endpoint.
// wsURL and token are passed through opaquely to the media SDK inside the
// document.
func (b *Bridge) StartCall(wsURL, token, roomName string, video bool) {
	b.Submit(Command{
		Event: EventStartCall,
		Payload: Payload{
			"wsUrl":    wsURL,
			"token":    token,
			"roomName": roomName,
			"video":    video,
		},
	})
}

// SetAudioMuted mutes or unmutes the local audio track.
func (b *Bridge) SetAudioMuted(muted bool) {
	b.Submit(Command{
		Event:   EventToggleMute,
		Payload: Payload{"mute": muted},
	})
}

// SetVideoEnabled enables or disables the local camera. The wire payload
// carries "off", not "enabled" — the document-side call logic depends on
// the inverted field name, so it is preserved exactly.
func (b *Bridge) SetVideoEnabled(enabled bool) {
	b.Submit(Command{
		Event:   EventToggleCamera,
		Payload: Payload{"off": !enabled},
	})
}

// Disconnect ends the active call, if any.
func (b *Bridge) Disconnect() {
	b.Submit(Command{
		Event:   EventEndCall,
		Payload: Payload{},
	})
}
