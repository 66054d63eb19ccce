package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kode4food/caravan/topic"

	"github.com/selectdimensions/react-flow-testbed/internal/events"
	"github.com/selectdimensions/react-flow-testbed/pkg/api"
	"github.com/selectdimensions/react-flow-testbed/pkg/log"
)

type (
	// Client represents a WebSocket client connection for event streaming
	Client struct {
		conn      *websocket.Conn
		consumer  topic.Consumer[*api.FlowEvent]
		filter    events.Filter
		onClose   func(*Client)
		done      chan struct{}
		closeOnce sync.Once
	}
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 512
	wsBufferSize       = 1024
	incomingBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades an HTTP connection to WebSocket and streams flow
// events to it. Query parameters "type" (repeatable) and "flow_id" narrow
// the initial subscription. onOpen and onClose may be nil
func HandleWebSocket(
	hub *events.Hub, w http.ResponseWriter, r *http.Request,
	onOpen, onClose func(*Client),
) *Client {
	// Subscribe before the handshake completes so no event published after
	// the client connects is missed
	consumer := hub.NewConsumer()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		consumer.Close()
		slog.Error("WebSocket upgrade failed",
			log.Error(err))
		return nil
	}

	q := r.URL.Query()
	sub := &api.ClientSubscription{
		FlowID: api.FlowID(q.Get("flow_id")),
	}
	for _, typ := range q["type"] {
		sub.EventTypes = append(sub.EventTypes, api.EventType(typ))
	}

	client := &Client{
		conn:     conn,
		consumer: consumer,
		filter:   BuildFilter(sub),
		onClose:  onClose,
		done:     make(chan struct{}),
	}

	if onOpen != nil {
		onOpen(client)
	}
	go client.run()
	return client
}

func (s *Server) handleWebSocket(c *gin.Context) {
	HandleWebSocket(s.eventHub, c.Writer, c.Request,
		s.registerWebSocket, s.unregisterWebSocket,
	)
}

// Close disconnects the client. It is safe to call more than once
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) run() {
	defer func() {
		c.Close()
		c.consumer.Close()
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	incoming := make(chan []byte, incomingBufferSize)
	go c.readMessages(incoming)

	for {
		select {
		case <-c.done:
			c.sendClose()
			return

		case message, ok := <-incoming:
			if !ok {
				return
			}
			if !c.handleSubscribe(message) {
				return
			}

		case event, ok := <-c.consumer.Receive():
			if !ok {
				c.sendClose()
				return
			}
			if !c.sendEventIfMatched(event) {
				return
			}

		case <-ticker.C:
			if !c.sendPing() {
				return
			}
		}
	}
}

func (c *Client) readMessages(incoming chan []byte) {
	defer close(incoming)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case incoming <- message:
		case <-c.done:
			return
		}
	}
}

func (c *Client) handleSubscribe(message []byte) bool {
	var sub api.SubscribeRequest
	if err := json.Unmarshal(message, &sub); err != nil {
		slog.Error("Failed to parse WebSocket message",
			log.Error(err))
		return true
	}

	if sub.Type != api.MessageTypeSubscribe {
		slog.Warn("Unknown WebSocket message",
			log.ErrorString(fmt.Sprintf("unexpected type %q", sub.Type)))
		return true
	}

	c.filter = BuildFilter(&sub.Data)

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteJSON(api.SubscribedResult{
		Type: api.MessageTypeSubscribed,
		Data: sub.Data,
	})
	if err != nil {
		slog.Error("WebSocket write failed",
			slog.String("context", "subscribed"),
			log.Error(err))
		return false
	}
	return true
}

func (c *Client) sendEventIfMatched(event *api.FlowEvent) bool {
	if !c.filter(event) {
		return true
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(event); err != nil {
		slog.Error("WebSocket write failed",
			log.Error(err))
		return false
	}
	return true
}

func (c *Client) sendPing() bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.PingMessage, nil)
	return err == nil
}

func (c *Client) sendClose() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
	)
}

// BuildFilter creates an event filter from a client subscription. An empty
// subscription matches every event
func BuildFilter(sub *api.ClientSubscription) events.Filter {
	filter := events.FilterTypes(sub.EventTypes...)
	if sub.FlowID != "" {
		filter = events.And(filter, events.FilterFlow(sub.FlowID))
	}
	return filter
}
