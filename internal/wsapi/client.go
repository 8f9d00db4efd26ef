package wsapi

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/anno-git/hokuyohub/internal/obslog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20
)

// client is one connected /ws/live subscriber: a socket, its outbound
// send buffer, and the hub it joined. Modeled on room.go's client, split
// into read/write pumps per the canonical gorilla/websocket idiom (the
// pack's Room has no matching client.go to reuse verbatim).
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// readPump decodes one inbound command per message and replies inline;
// it owns the only reader of conn, per gorilla/websocket's single-reader
// requirement.
func (c *client) readPump() {
	defer func() {
		c.hub.leave <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				obslog.L.Error("wsapi: read", "error", err)
			}
			return
		}
		resp := c.server.dispatch(data)
		if resp == nil {
			continue
		}
		select {
		case c.send <- resp:
		default:
			obslog.L.Error("wsapi: response buffer full, dropping reply")
		}
	}
}

// writePump is the sole writer of conn, draining send and issuing
// periodic pings, matching room.go's client.write but with an added
// keepalive ticker (room.go has none; spec §6.4 connections are
// long-lived live views, so a stalled peer must be detected).
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
