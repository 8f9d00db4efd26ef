// Package wsapi implements the spec §6.4 WebSocket live-view surface:
// one endpoint at /ws/live broadcasting raw-lite/filtered-lite/clusters-lite
// frames and config-change notifications, and accepting typed client
// commands that mirror the REST surface.
//
// Grounded on _examples/westphae-goflying/ahrsweb/room.go's Room:
// buffered join/leave/forward channels draining into a per-client send
// channel, generalized here to broadcast arbitrary JSON-encodable
// messages (internal/control.Broadcaster) rather than raw []byte, and to
// dispatch typed inbound commands instead of only forwarding them.
package wsapi

import (
	"encoding/json"

	"github.com/anno-git/hokuyohub/internal/obslog"
)

const sendBufferSize = 16

// Hub fans broadcast messages out to every connected client. It
// implements control.Broadcaster, and is constructed before the
// control.Adapter exists (the Adapter needs a Broadcaster; the Server
// that dispatches client commands against the Adapter is wired in
// afterward via New).
type Hub struct {
	forward chan any
	join    chan *client
	leave   chan *client
	clients map[*client]bool
}

// NewHub builds an unstarted Hub. Run must be started in its own
// goroutine before any client connects.
func NewHub() *Hub {
	return &Hub{
		forward: make(chan any, 64),
		join:    make(chan *client),
		leave:   make(chan *client),
		clients: make(map[*client]bool),
	}
}

// Broadcast satisfies control.Broadcaster: msg is marshaled once and the
// bytes fanned out to every client, per spec §6.4's broadcast list.
func (h *Hub) Broadcast(msg any) {
	h.forward <- msg
}

// Run drives the join/leave/forward select loop until ctx-independent
// shutdown (the hub has no owned goroutines besides this one; callers
// stop it by no longer delivering to it).
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.join:
			h.clients[c] = true
			obslog.L.Info("wsapi: client joined", "count", len(h.clients))
		case c := <-h.leave:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			obslog.L.Info("wsapi: client left", "count", len(h.clients))
		case msg := <-h.forward:
			data, err := json.Marshal(msg)
			if err != nil {
				obslog.L.Error("wsapi: marshal broadcast", "error", err)
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					obslog.L.Error("wsapi: client send buffer full, dropping message")
				}
			}
		}
	}
}
