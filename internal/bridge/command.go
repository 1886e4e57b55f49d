package bridge

// Event names a bridge event. Host→renderer commands use the four fixed
// constants below; renderer→host status events are free-form strings
// (callConnected, callDisconnected, callError, appReady, ...) and are not
// validated here.
type Event string

const (
	EventStartCall    Event = "startCall"
	EventToggleMute   Event = "toggleMute"
	EventToggleCamera Event = "toggleCamera"
	EventEndCall      Event = "endCall"
)

// Payload is the structured value carried by a command or emission. The
// bridge never inspects its contents; serialization for the runtime boundary
// is the executor's job.
type Payload map[string]any

// Command is one host-issued instruction for the document. Immutable once
// submitted — it is owned by the queue until dequeued for execution.
type Command struct {
	Event   Event
	Payload Payload
}

// Emission is a renderer-issued status event delivered asynchronously to the
// host. Uncorrelated with any prior command.
type Emission struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}
