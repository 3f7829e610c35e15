// internal/server/handlers/websocket.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"propmap/internal/domain/temporal"
)

// Client message types
const (
	messageForward  = "forward"
	messageReverse  = "reverse"
	messageSeek     = "seek"
	messageSnapshot = "snapshot"
	messageError    = "error"
)

// WebSocketClient represents a client following one map view
type WebSocketClient struct {
	conn          *websocket.Conn
	send          chan []byte
	done          chan struct{}
	viewID        string
	manager       temporal.ViewManager
	subscriptions []temporal.Subscription
	config        WebSocketConfig
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.Mutex
	closeOnce     sync.Once
	log           *zap.Logger
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4 * 1024,
	}
}

// ClientMessage is a sequence action sent by the browser
type ClientMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ViewWebSocketHandler streams a view's attribute changes to the browser and
// accepts slider and step-button actions from it
func ViewWebSocketHandler(manager temporal.ViewManager, bus temporal.EventBus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewID := chi.URLParam(r, "id")

		if _, err := manager.GetView(r.Context(), viewID); err != nil {
			respondWithDomainError(w, "Failed to get view", err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			zap.L().Warn("websocket upgrade failed", zap.String("view", viewID), zap.Error(err))
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		client := &WebSocketClient{
			ctx:     ctx,
			cancel:  cancel,
			conn:    conn,
			send:    make(chan []byte, 64),
			done:    make(chan struct{}),
			viewID:  viewID,
			manager: manager,
			config:  DefaultWebSocketConfig(),
			log:     zap.L().With(zap.String("view", viewID)),
		}

		// Events published while the snapshot is taken queue behind it
		client.mu.Lock()
		if err := client.subscribeToView(bus); err != nil {
			client.mu.Unlock()
			client.log.Error("subscribe to view events", zap.Error(err))
			client.closeConnection()
			return
		}
		client.queueSnapshot()
		client.mu.Unlock()

		go client.writePump()
		go client.readPump()

		client.log.Debug("websocket connected")
	}
}

// queueSnapshot queues the view's current state, or a closed event when the
// view went away before the subscription was in place. Callers hold mu.
func (c *WebSocketClient) queueSnapshot() {
	state, err := c.manager.GetView(c.ctx, c.viewID)
	if err != nil {
		c.push(mustMarshal(temporal.Event{
			Type:   temporal.EventClosed,
			ViewID: c.viewID,
			Time:   time.Now(),
		}))
		return
	}

	c.push(mustMarshal(map[string]interface{}{
		"type":  messageSnapshot,
		"state": state,
	}))
}

// readPump applies client actions to the view
func (c *WebSocketClient) readPump() {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket error", zap.Error(err))
			}
			return
		}

		c.processIncomingMessage(message)
	}
}

// writePump pumps queued events to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			if isClosedEvent(message) {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view closed"))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processIncomingMessage applies one client message
func (c *WebSocketClient) processIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError("invalid message")
		return
	}

	var action temporal.Action
	switch msg.Type {
	case messageForward:
		action = temporal.ActionForward
	case messageReverse:
		action = temporal.ActionReverse
	case messageSeek:
		action = temporal.ActionSeek
	default:
		c.sendError("unknown message type " + msg.Type)
		return
	}

	// Changes reach the client through the changed subject
	if _, err := c.manager.Step(c.ctx, c.viewID, action, msg.Index); err != nil {
		c.sendError(err.Error())
	}
}

func (c *WebSocketClient) sendError(message string) {
	c.enqueue(mustMarshal(map[string]string{
		"type":  messageError,
		"error": message,
	}))
}

// enqueue hands data to the write pump without blocking the publisher
func (c *WebSocketClient) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.push(data)
}

func (c *WebSocketClient) push(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Warn("websocket send buffer full, dropping message")
	}
}

// subscribeToView subscribes to the view's change and teardown subjects
func (c *WebSocketClient) subscribeToView(bus temporal.EventBus) error {
	if bus == nil {
		return nil
	}

	for _, subject := range []string{c.manager.ChangedSubject(c.viewID), c.manager.ClosedSubject(c.viewID)} {
		sub, err := bus.Subscribe(subject, c.enqueue)
		if err != nil {
			return err
		}
		c.subscriptions = append(c.subscriptions, sub)
	}
	return nil
}

// closeConnection closes the WebSocket connection and cleans up resources
func (c *WebSocketClient) closeConnection() {
	c.closeOnce.Do(func() {
		for _, sub := range c.subscriptions {
			sub.Unsubscribe()
		}
		c.cancel()
		close(c.done)
		c.conn.Close()
		c.log.Debug("websocket disconnected")
	})
}

func isClosedEvent(message []byte) bool {
	var e struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(message, &e) == nil && e.Type == temporal.EventClosed
}

func mustMarshal(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}
