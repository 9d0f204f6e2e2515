package hub

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"collabcode/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16 // code buffers ride on this channel
)

// WebSocketClient implements Client over a gorilla/websocket connection.
// The identity fields are fixed at handshake time after token verification;
// nothing a client sends later can change them.
type WebSocketClient struct {
	connID   string
	userID   string
	userName string
	roomID   string

	Conn *websocket.Conn
	Hub  *Manager
	Send chan models.OutboundEvent

	// onDisconnect runs once when the read pump exits, before the client
	// unregisters. Used for presence bookkeeping.
	onDisconnect func()
}

func NewWebSocketClient(conn *websocket.Conn, hub *Manager, connID, userID, userName string) *WebSocketClient {
	return &WebSocketClient{
		connID:   connID,
		userID:   userID,
		userName: userName,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan models.OutboundEvent, 256),
	}
}

// SetOnDisconnect registers a teardown callback. Call before Run.
func (c *WebSocketClient) SetOnDisconnect(fn func()) { c.onDisconnect = fn }

func (c *WebSocketClient) ConnID() string      { return c.connID }
func (c *WebSocketClient) UserID() string      { return c.userID }
func (c *WebSocketClient) UserName() string    { return c.userName }
func (c *WebSocketClient) RoomID() string      { return c.roomID }
func (c *WebSocketClient) SetRoomID(id string) { c.roomID = id }

func (c *WebSocketClient) SendChannel() chan<- models.OutboundEvent { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the send channel, which stops the write pump; the read pump
// stops when the connection closes underneath it.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

// readPump moves inbound frames into the hub's event channel. Its exit is the
// single funnel for every disconnect path — clean close, network drop or
// missed heartbeat — so the hub always learns the connection is gone.
func (c *WebSocketClient) readPump() {
	defer func() {
		if c.onDisconnect != nil {
			c.onDisconnect()
		}
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.Hub.Storage.RefreshPresence(c.userID)
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading from conn %s: %v", c.connID, err)
			}
			break
		}

		var event models.Event
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("error decoding event from conn %s: %v", c.connID, err)
			continue
		}

		c.Hub.EventCh <- InboundEvent{From: c, Event: event}
	}
}

// writePump drains the Send channel into the socket and keeps the connection
// alive with pings. After each write it flushes whatever has queued up behind
// it before going back to sleep.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("error encoding event for conn %s: %v", c.connID, err)
				continue
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			n := len(c.Send)
			for i := 0; i < n; i++ {
				next, ok := <-c.Send
				if !ok {
					c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				extra, err := json.Marshal(next)
				if err != nil {
					continue
				}
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.Conn.WriteMessage(websocket.TextMessage, extra); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
