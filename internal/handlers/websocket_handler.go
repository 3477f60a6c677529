package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"did-backend/internal/events"
	"did-backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 64
)

// EventStreamHandler pushes registry events to websocket subscribers. It
// registers itself as a sink on the event publisher, so every event that
// reaches NATS also reaches connected browsers.
type EventStreamHandler struct {
	upgrader websocket.Upgrader
	log      *logrus.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewEventStreamHandler creates a new EventStreamHandler instance and
// hooks it into the publisher.
func NewEventStreamHandler(publisher *events.Publisher, log *logrus.Logger) *EventStreamHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &EventStreamHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:     log,
		clients: map[*wsClient]struct{}{},
	}
	publisher.AddSink(h)
	return h
}

// OnEvent implements events.Sink: fan the event out to every subscriber.
// Slow clients get dropped rather than blocking the publisher.
func (h *EventStreamHandler) OnEvent(eventType string, payload []byte) {
	frame, err := json.Marshal(gin.H{
		"type":      eventType,
		"payload":   json.RawMessage(payload),
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			h.dropLocked(client)
		}
	}
}

func (h *EventStreamHandler) dropLocked(client *wsClient) {
	delete(h.clients, client)
	close(client.send)
	metrics.WebSocketClients.Dec()
}

// StreamHandler upgrades the connection and streams events
// GET /api/v1/ws/events
func (h *EventStreamHandler) StreamHandler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("⚠️ WebSocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	metrics.WebSocketClients.Inc()
	h.log.WithFields(logrus.Fields{"remote": conn.RemoteAddr().String()}).Info("🔌 WebSocket subscriber connected")

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *EventStreamHandler) writeLoop(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains the connection to process close frames and detect
// disconnects.
func (h *EventStreamHandler) readLoop(client *wsClient) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			h.dropLocked(client)
		}
		h.mu.Unlock()
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
