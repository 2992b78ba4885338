package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/idozri/vidto-listen/internal/api/middleware"
	"github.com/idozri/vidto-listen/internal/logging"
	"github.com/idozri/vidto-listen/internal/playback"
	"github.com/idozri/vidto-listen/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var (
	errSocketClosed = errors.New("socket closed")
	errSlowClient   = errors.New("client is not keeping up")
)

// Bridge holds the browser-side media element of every session.
type Bridge struct {
	mu       sync.Mutex
	elements map[string]*playback.RemoteElement
}

func NewBridge() *Bridge {
	return &Bridge{elements: make(map[string]*playback.RemoteElement)}
}

// Element returns the session's element, creating it on first use.
func (b *Bridge) Element(sessionID string) *playback.RemoteElement {
	b.mu.Lock()
	defer b.mu.Unlock()
	el, ok := b.elements[sessionID]
	if !ok {
		el = playback.NewRemoteElement()
		b.elements[sessionID] = el
	}
	return el
}

// Forget drops the element of a closed session.
func (b *Bridge) Forget(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.elements, sessionID)
}

// outbound is a server → browser frame.
type outbound struct {
	Type     string            `json:"type"` // "snapshot", "event", "command"
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Event    *session.Event    `json:"event,omitempty"`
	Command  *playback.Command `json:"command,omitempty"`
}

// inbound is a browser → server frame: element notifications or control
// requests from the custom player controls.
type inbound struct {
	Type     string  `json:"type"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Delta    float64 `json:"delta"`
	Volume   float64 `json:"volume"`
}

type SocketHandler struct {
	bridge   *Bridge
	upgrader websocket.Upgrader
	log      *logging.Logger
}

func NewSocketHandler(bridge *Bridge, allowedOrigins []string, logger *logging.Logger) *SocketHandler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &SocketHandler{
		bridge: bridge,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		log: logger.Named("ws"),
	}
}

// Serve connects the browser's <video> element to the session player.
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		h.log.Debugw("upgrade failed", "error", err)
		return
	}

	out := make(chan outbound, sendBuffer)
	done := make(chan struct{})
	send := func(m outbound) error {
		select {
		case <-done:
			return errSocketClosed
		default:
		}
		select {
		case out <- m:
			return nil
		default:
			return errSlowClient
		}
	}

	detach := h.bridge.Element(s.ID()).Attach(func(c playback.Command) error {
		return send(outbound{Type: "command", Command: &c})
	})
	unsubscribe := s.Subscribe(func(ev session.Event) {
		send(outbound{Type: "event", Event: &ev})
	})

	go h.writeLoop(conn, out, done)

	snap := s.Snapshot()
	send(outbound{Type: "snapshot", Snapshot: &snap})
	if p := s.Player(); p != nil {
		p.Sync()
	}
	h.log.Debugw("client attached", "session", s.ID())

	h.readLoop(conn, s)

	unsubscribe()
	detach()
	close(done)
	conn.Close()
	h.log.Debugw("client detached", "session", s.ID())
}

func (h *SocketHandler) writeLoop(conn *websocket.Conn, out <-chan outbound, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case m := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (h *SocketHandler) readLoop(conn *websocket.Conn, s *session.Session) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debugw("read failed", "session", s.ID(), "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		s.Touch()

		p := s.Player()
		if p == nil {
			continue
		}
		if err := apply(p, msg); err != nil {
			h.log.Debugw("control failed", "session", s.ID(), "type", msg.Type, "error", err)
		}
	}
}

func apply(p *playback.Adapter, msg inbound) error {
	switch msg.Type {
	case "timeupdate":
		p.TimeUpdate(msg.Time)
	case "loadedmetadata":
		p.LoadedMetadata(msg.Duration)
	case "ended":
		p.Ended()
	case "toggle":
		return p.TogglePlay()
	case "seek":
		return p.Seek(msg.Time)
	case "skip":
		return p.Skip(msg.Delta)
	case "volume":
		return p.SetVolume(msg.Volume)
	default:
		return errors.New("unknown message type " + msg.Type)
	}
	return nil
}
