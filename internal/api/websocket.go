package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"grimm.is/burrow/internal/events"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The listener is a local unix socket and callers are verified by
	// SO_PEERCRED; there is no browser origin to defend against.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents upgrades the connection and streams hub events to the
// caller as JSON messages. The optional "types" query parameter is a
// comma-separated list of event types to subscribe to; empty means all.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var types []events.EventType
	if v := r.URL.Query().Get("types"); v != "" {
		for _, t := range strings.Split(v, ",") {
			types = append(types, events.EventType(strings.TrimSpace(t)))
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	ch := s.hub.Subscribe(256, types...)
	defer s.hub.Unsubscribe(ch)

	// Reader exists only to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	defer conn.Close()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
