// Package media is a minimal client for the call signaling endpoint. It
// speaks JSON control frames over a websocket: join a room, flip mute and
// camera state, leave. Media negotiation, tracks and encoding belong to the
// SDK behind the endpoint and are none of this package's business — the
// wsUrl/token pair is treated as an opaque destination.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("media")

// Handlers receive connection status callbacks. All callbacks fire on the
// client's read goroutine; they must not block.
type Handlers struct {
	OnConnected    func(room string)
	OnDisconnected func(reason string)
	OnError        func(err error)
}

// Options tunes dial behavior. Zero values pick the defaults below.
type Options struct {
	DialTimeout  time.Duration
	PingInterval time.Duration
}

const (
	defaultDialTimeout  = 10 * time.Second
	defaultPingInterval = 20 * time.Second
)

// message is the wire format of a signaling control frame.
type message struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Room    string `json:"room,omitempty"`
	Video   bool   `json:"video,omitempty"`
	Mute    *bool  `json:"mute,omitempty"`
	Off     *bool  `json:"off,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client is one signaling session. Create with Dial, end with Leave or
// Close.
type Client struct {
	id   string
	room string
	h    Handlers

	writeMu sync.Mutex
	conn    *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the signaling endpoint and joins room. The token rides
// in the Authorization header, passed through without interpretation.
func Dial(ctx context.Context, wsURL, token, room string, video bool, h Handlers, opts Options) (*Client, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c := &Client{
		id:   uuid.NewString(),
		room: room,
		h:    h,
		conn: conn,
		done: make(chan struct{}),
	}

	if err := c.send(message{Type: "join", Session: c.id, Room: room, Video: video}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", room, err)
	}

	go c.readLoop()
	go c.pingLoop(opts.PingInterval)

	log.Infof("session %s joining room %q (video=%v)", c.id, room, video)
	return c, nil
}

// ID returns the client's session identifier.
func (c *Client) ID() string { return c.id }

// SetMuted flips the audio mute control.
func (c *Client) SetMuted(muted bool) error {
	return c.send(message{Type: "mute", Session: c.id, Mute: &muted})
}

// SetCameraOff flips the camera control. The wire field is "off", matching
// the bridge's toggleCamera payload.
func (c *Client) SetCameraOff(off bool) error {
	return c.send(message{Type: "camera", Session: c.id, Off: &off})
}

// Leave tells the endpoint we are going, then closes the connection.
func (c *Client) Leave() error {
	err := c.send(message{Type: "leave", Session: c.id})
	c.Close()
	return err
}

// Close tears the connection down without a leave frame.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
		log.Debugf("session %s closed", c.id)
	})
}

func (c *Client) send(m message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return fmt.Errorf("session %s already closed", c.id)
	default:
	}
	return c.conn.WriteJSON(m)
}

func (c *Client) readLoop() {
	for {
		var m message
		if err := c.conn.ReadJSON(&m); err != nil {
			select {
			case <-c.done:
			default:
				log.Warnf("session %s read: %v", c.id, err)
				c.Close()
				if c.h.OnDisconnected != nil {
					c.h.OnDisconnected("connection lost")
				}
			}
			return
		}

		switch m.Type {
		case "joined":
			log.Infof("session %s joined room %q", c.id, c.room)
			if c.h.OnConnected != nil {
				c.h.OnConnected(c.room)
			}
		case "error":
			log.Warnf("session %s endpoint error: %s", c.id, m.Error)
			if c.h.OnError != nil {
				c.h.OnError(fmt.Errorf("signaling: %s", m.Error))
			}
		case "bye":
			reason := m.Reason
			if reason == "" {
				reason = "remote closed"
			}
			c.Close()
			if c.h.OnDisconnected != nil {
				c.h.OnDisconnected(reason)
			}
			return
		default:
			// Forward-compatible: unknown frames are logged, not fatal.
			if raw, err := json.Marshal(m); err == nil {
				log.Debugf("session %s ignoring frame: %s", c.id, raw)
			}
		}
	}
}

func (c *Client) pingLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				log.Debugf("session %s ping: %v", c.id, err)
			}
		}
	}
}
