/*
Package realtime contains the presence and message fan-out core.

This file defines the Client struct, one per live WebSocket connection.
It runs the read and write pumps, dispatches inbound events to the
Gateway by event tag, and guarantees the disconnect cleanup runs exactly
once however the connection ends.
*/
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
)

const (
	// timeout for a single write to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong before declaring the peer gone.
	pongWait = 60 * time.Second

	// ping frequency, comfortably inside pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// MaxContentBytes caps the content of a relayed chat message.
	MaxContentBytes = 5000

	// sendQueueSize is the per-connection outbound buffer. A connection
	// that falls this far behind starts losing events (fire and forget).
	sendQueueSize = 256
)

// Client represents one authenticated live connection.
type Client struct {
	// gateway owns the registry this client is tracked in.
	gateway *Gateway

	// underlying WebSocket connection.
	conn *websocket.Conn

	// userID is the authenticated account this connection belongs to.
	userID string

	// name is the account's display name, embedded in relayed messages.
	name string

	// connID uniquely identifies this connection instance. Assigned at
	// connect time, invalid forever after disconnect.
	connID string

	// send queues outbound frames for the write pump.
	send chan []byte

	// closeOnce guards the disconnect cleanup against double firing.
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient wraps an upgraded connection for an authenticated user and
// assigns its connection id.
func NewClient(gateway *Gateway, conn *websocket.Conn, userID, name string) *Client {
	connID := uuid.New().String()

	return &Client{
		gateway: gateway,
		conn:    conn,
		userID:  userID,
		name:    name,
		connID:  connID,
		send:    make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().
			Str("user_id", userID).
			Str("conn_id", connID).
			Logger(),
	}
}

// UserID returns the authenticated account id for this connection.
func (c *Client) UserID() string { return c.userID }

// ConnID returns this connection's identifier.
func (c *Client) ConnID() string { return c.connID }

// ReadPump reads inbound frames until the connection dies, handling
// heartbeats and dispatching events. Cleanup runs on exit no matter why
// the loop ended.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundEvent(messageBytes)
	}
}

// cleanupOnDisconnect runs the CLOSED transition exactly once: the
// gateway unregisters the connection (and, for a last connection, clears
// presence and broadcasts the snapshot), then the transport closes.
func (c *Client) cleanupOnDisconnect() {
	c.closeOnce.Do(func() {
		c.logger.Info().Msg("Connection cleanup starting.")

		c.gateway.Unregister(c)

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error during cleanup")
		}
	})
}

// processInboundEvent parses one inbound frame and dispatches it by tag.
// Malformed frames are logged and dropped; they never kill the connection.
func (c *Client) processInboundEvent(messageBytes []byte) {
	var evt Event
	if err := json.Unmarshal(messageBytes, &evt); err != nil {
		c.logger.Warn().Err(err).Bytes("message_bytes", messageBytes).Msg("Client sent invalid JSON")
		return
	}

	switch evt.Type {
	case EventNewMessageInSocket:
		var p InboundMessagePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid NEW_MESSAGE payload")
			return
		}
		if len(p.Content) > MaxContentBytes {
			c.logger.Warn().Int("content_bytes", len(p.Content)).Msg("Message content too long, dropping")
			return
		}
		c.gateway.HandleNewMessage(c, p)

	case EventStartTyping, EventStopTyping:
		var p InboundTypingPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid typing payload")
			return
		}
		c.gateway.HandleTyping(c, evt.Type, p)

	case EventChatJoined:
		var p PresencePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid CHAT_JOINED payload")
			return
		}
		c.gateway.HandleChatJoined(c, p)

	case EventChatExited:
		var p PresencePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid CHAT_EXITED payload")
			return
		}
		c.gateway.HandleChatExited(c, p)

	case EventJoinCall:
		var p JoinCallPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid JOIN_CALL payload")
			return
		}
		c.gateway.HandleJoinCall(c, p)

	case EventRingCall:
		var p RingPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid RING_CALL payload")
			return
		}
		c.gateway.HandleRing(c, p)

	case EventOffer, EventAnswer, EventIceCandidate:
		var p SignalPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid call signal payload")
			return
		}
		c.gateway.HandleCallSignal(c, evt.Type, p)

	default:
		c.logger.Warn().Str("event_type", string(evt.Type)).Msg("Client sent unsupported event type")
	}
}

// WritePump drains the send queue to the connection and keeps the
// heartbeat alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued frame. Returns false when the
// write pump should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat ping. Returns false when the write
// pump should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Info().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// queueBytes hands a pre-marshaled frame to the write pump without
// blocking. A full queue drops the frame for this connection only.
func (c *Client) queueBytes(raw []byte) {
	select {
	case c.send <- raw:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping event")
	}
}
