package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// inbound is what a WebSocket client sends: an utterance, or a voice action.
type inbound struct {
	Text   string      `json:"text"`
	Action VoiceAction `json:"action,omitempty"`
}

// WebSocketClient implements Client over gorilla/websocket.
type WebSocketClient struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Hub

	send chan Frame
	errs chan Frame
}

func NewWebSocketClient(id string, conn *websocket.Conn, hub *Hub) *WebSocketClient {
	return &WebSocketClient{
		ID:   id,
		Conn: conn,
		Hub:  hub,
		send: make(chan Frame, sendBuffer),
		errs: make(chan Frame, 8),
	}
}

func (c *WebSocketClient) SessionID() string  { return c.ID }
func (c *WebSocketClient) Send() chan<- Frame { return c.send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the send channel, which stops writePump.
func (c *WebSocketClient) Close() {
	close(c.send)
}

func (c *WebSocketClient) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(message, &in); err != nil {
			log.Printf("Error decoding JSON from session %s: %v", c.ID, err)
			c.reportError("invalid message")
			continue
		}

		// Results reach this client as broadcast frames.
		if in.Action != "" {
			_, _, err = c.Hub.Voice(ctx, c.ID, in.Action)
		} else {
			_, _, err = c.Hub.Turn(ctx, c.ID, in.Text)
		}
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrHubStopped) {
			return
		}
		if err != nil {
			c.reportError(err.Error())
		}
	}
}

func (c *WebSocketClient) reportError(msg string) {
	select {
	case c.errs <- Frame{Type: FrameError, Error: msg}:
	default:
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				return
			}

		case frame := <-c.errs:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
