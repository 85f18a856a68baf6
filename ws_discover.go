package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/frndr/backend/match"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsReadLimit    = 1 << 16
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

// ClientFrame is a message from a live discover client.
type ClientFrame struct {
	Type  string `json:"type"` // "refresh"
	Limit *int   `json:"limit,omitempty"`
}

// ServerEvent represents a server-sent event
type ServerEvent struct {
	Type string `json:"type"` // "info" | "matches" | "error"
	Data any    `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer for the browser app.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// discoverClient is one live discover connection.
type discoverClient struct {
	userID int
	conn   *websocket.Conn
	send   chan ServerEvent
	d      *discovery
	logger *zerolog.Logger
}

// GET /ws/discover
func wsDiscoverHandler(d *discovery) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := getUserIDFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		logger := zerolog.Ctx(r.Context())
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Int("user_id", userID).Msg("websocket upgrade failed")
			return
		}

		c := &discoverClient{
			userID: userID,
			conn:   conn,
			send:   make(chan ServerEvent, 16),
			d:      d,
			logger: logger,
		}
		c.send <- ServerEvent{Type: "info", Data: "connected"}

		go c.writer()
		c.reader(r.Context())
	}
}

// push queues an event, dropping it if the client is not keeping up.
func (c *discoverClient) push(evt ServerEvent) {
	select {
	case c.send <- evt:
	default:
		c.logger.Warn().Int("user_id", c.userID).Str("type", evt.Type).Msg("dropping event for slow client")
	}
}

func (c *discoverClient) reader(ctx context.Context) {
	defer close(c.send)

	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.push(ServerEvent{Type: "error", Data: "invalid message format"})
			continue
		}

		switch frame.Type {
		case "refresh":
			c.refresh(ctx, frame)
		default:
			c.push(ServerEvent{Type: "error", Data: "unknown message type"})
		}
	}
}

func (c *discoverClient) refresh(ctx context.Context, frame ClientFrame) {
	limit := c.d.defaultLimit
	if frame.Limit != nil {
		if *frame.Limit < 0 {
			c.push(ServerEvent{Type: "error", Data: "invalid_limit"})
			return
		}
		limit = min(*frame.Limit, c.d.maxLimit)
	}

	views, err := c.d.matches(ctx, c.userID, limit)
	if errors.Is(err, match.ErrUserNotFound) {
		c.push(ServerEvent{Type: "error", Data: "not_found"})
		return
	} else if err != nil {
		c.logger.Error().Err(err).Int("user_id", c.userID).Msg("live match lookup failed")
		c.push(ServerEvent{Type: "error", Data: "match_error"})
		return
	}
	c.push(ServerEvent{Type: "matches", Data: views})
}

func (c *discoverClient) writer() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
