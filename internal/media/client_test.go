package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// signalingServer is a scripted in-process signaling endpoint.
type signalingServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conn   *websocket.Conn
	auth   string
	frames chan message
}

func newSignalingServer(t *testing.T) *signalingServer {
	t.Helper()
	s := &signalingServer{frames: make(chan message, 16)}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auth = r.Header.Get("Authorization")
		s.mu.Unlock()

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		for {
			var m message
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			s.frames <- m
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *signalingServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *signalingServer) push(t *testing.T, m message) {
	t.Helper()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		t.Fatal("no client connected")
	}
	if err := conn.WriteJSON(m); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func (s *signalingServer) nextFrame(t *testing.T) message {
	t.Helper()
	select {
	case m := <-s.frames:
		return m
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for client frame")
		return message{}
	}
}

func TestDialJoinsWithToken(t *testing.T) {
	s := newSignalingServer(t)

	c, err := Dial(context.Background(), s.wsURL(), "t0k3n", "Lobby", true, Handlers{}, Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	join := s.nextFrame(t)
	if join.Type != "join" || join.Room != "Lobby" || !join.Video {
		t.Fatalf("unexpected join frame: %+v", join)
	}
	if join.Session != c.ID() {
		t.Fatalf("join session %q != client id %q", join.Session, c.ID())
	}

	s.mu.Lock()
	auth := s.auth
	s.mu.Unlock()
	if auth != "Bearer t0k3n" {
		t.Fatalf("token not passed through: %q", auth)
	}
}

func TestDialWithoutTokenOmitsHeader(t *testing.T) {
	s := newSignalingServer(t)

	c, err := Dial(context.Background(), s.wsURL(), "", "demo", false, Handlers{}, Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	s.nextFrame(t)

	s.mu.Lock()
	auth := s.auth
	s.mu.Unlock()
	if auth != "" {
		t.Fatalf("unexpected Authorization header: %q", auth)
	}
}

func TestJoinedFiresOnConnected(t *testing.T) {
	s := newSignalingServer(t)

	connected := make(chan string, 1)
	c, err := Dial(context.Background(), s.wsURL(), "", "Lobby", false, Handlers{
		OnConnected: func(room string) { connected <- room },
	}, Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	s.nextFrame(t)

	s.push(t, message{Type: "joined", Room: "Lobby"})

	select {
	case room := <-connected:
		if room != "Lobby" {
			t.Fatalf("connected to wrong room %q", room)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnConnected never fired")
	}
}

func TestControlFrames(t *testing.T) {
	s := newSignalingServer(t)

	c, err := Dial(context.Background(), s.wsURL(), "", "demo", false, Handlers{}, Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	s.nextFrame(t)

	if err := c.SetMuted(true); err != nil {
		t.Fatal(err)
	}
	m := s.nextFrame(t)
	if m.Type != "mute" || m.Mute == nil || !*m.Mute {
		t.Fatalf("unexpected mute frame: %+v", m)
	}

	if err := c.SetCameraOff(true); err != nil {
		t.Fatal(err)
	}
	m = s.nextFrame(t)
	if m.Type != "camera" || m.Off == nil || !*m.Off {
		t.Fatalf("unexpected camera frame: %+v", m)
	}

	if err := c.Leave(); err != nil {
		t.Fatal(err)
	}
	m = s.nextFrame(t)
	if m.Type != "leave" {
		t.Fatalf("unexpected leave frame: %+v", m)
	}
}

func TestEndpointErrorFiresOnError(t *testing.T) {
	s := newSignalingServer(t)

	errs := make(chan error, 1)
	c, err := Dial(context.Background(), s.wsURL(), "", "demo", false, Handlers{
		OnError: func(err error) { errs <- err },
	}, Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	s.nextFrame(t)

	s.push(t, message{Type: "error", Error: "room full"})

	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "room full") {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnError never fired")
	}
}

func TestByeFiresOnDisconnected(t *testing.T) {
	s := newSignalingServer(t)

	gone := make(chan string, 1)
	c, err := Dial(context.Background(), s.wsURL(), "", "demo", false, Handlers{
		OnDisconnected: func(reason string) { gone <- reason },
	}, Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	s.nextFrame(t)

	s.push(t, message{Type: "bye", Reason: "kicked"})

	select {
	case reason := <-gone:
		if reason != "kicked" {
			t.Fatalf("unexpected reason %q", reason)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnDisconnected never fired")
	}

	// The session is closed after bye; further controls must fail.
	if err := c.SetMuted(true); err == nil {
		t.Fatal("SetMuted succeeded on closed session")
	}
}

func TestConnectionLossFiresOnDisconnected(t *testing.T) {
	s := newSignalingServer(t)

	gone := make(chan string, 1)
	c, err := Dial(context.Background(), s.wsURL(), "", "demo", false, Handlers{
		OnDisconnected: func(reason string) { gone <- reason },
	}, Options{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	s.nextFrame(t)

	s.mu.Lock()
	s.conn.Close()
	s.mu.Unlock()

	select {
	case reason := <-gone:
		if reason != "connection lost" {
			t.Fatalf("unexpected reason %q", reason)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnDisconnected never fired")
	}
}

func TestDialFailure(t *testing.T) {
	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/rtc", "", "demo", false, Handlers{}, Options{
		DialTimeout: time.Second,
	}); err == nil {
		t.Fatal("expected dial failure")
	}
}
