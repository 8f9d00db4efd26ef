package wsapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/anno-git/hokuyohub/internal/control"
	"github.com/anno-git/hokuyohub/internal/obslog"
)

// Server upgrades HTTP requests on /ws/live into hub-managed clients
// (spec §6.4 "one endpoint"). It is an http.Handler so cmd/hokuyohub can
// mount it directly on the same mux as internal/httpapi.
type Server struct {
	hub      *Hub
	adapter  *control.Adapter
	upgrader websocket.Upgrader
}

// New builds a Server over hub, bound to adapter. hub is constructed
// separately (with NewHub) so it can be passed to control.New as a
// Broadcaster before the Adapter it depends on here even exists. The
// caller must start hub.Run() in its own goroutine before serving
// requests.
func New(hub *Hub, adapter *control.Adapter) *Server {
	return &Server{
		hub:     hub,
		adapter: adapter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Hub returns the Server's underlying Hub.
func (s *Server) Hub() *Hub { return s.hub }

// ServeHTTP upgrades the connection, joins it to the hub, sends the
// initial sensor.snapshot (spec §6.4 "on connect"), and runs its pumps
// until the client disconnects. Grounded on room.go's ServeHTTP, split
// across client.go's two pumps.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.L.Error("wsapi: upgrade", "error", err)
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, sendBufferSize), server: s}
	s.hub.join <- c

	snap := s.adapter.Snapshot()
	snap.Type = "sensor.snapshot"
	if data, err := json.Marshal(snap); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	c.readPump()
}
