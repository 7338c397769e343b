/*
Package realtime contains the presence and message fan-out core.

This file defines the Gateway, the single owner of the connection
registry, presence set, and call rooms. REST handlers call Deliver after
state mutations; live connections feed their inbound events through the
Handle* methods. Nothing outside this component mutates the registry.
*/
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stxxcsxnny/Groovz/internal/app/db"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/randx"
)

// persistTimeout bounds the detached message persistence write.
const persistTimeout = 10 * time.Second

// MessageStore persists chat messages. Persistence runs detached from
// delivery: a failed write is logged and never blocks or rolls back the
// realtime fan-out.
type MessageStore interface {
	CreateMessage(ctx context.Context, p db.CreateMessageParams) (db.Message, error)
}

// Gateway routes typed events to the live connections of targeted users
// and owns every mutation point of the registry and presence set.
type Gateway struct {
	registry *ConnRegistry
	presence *PresenceSet
	calls    *CallRegistry

	// store receives detached message writes. May be nil in tests.
	store MessageStore

	// scopes remembers, per user, the member list supplied with the most
	// recent CHAT_JOINED signal. It defines who receives the online-users
	// snapshot when the user later exits or fully disconnects; presence
	// broadcasts are scoped to that list, never global.
	muScopes sync.Mutex
	scopes   map[string][]string

	logger zerolog.Logger
}

// NewGateway constructs the gateway and its owned state. The registry
// and presence set live exactly as long as the process.
func NewGateway(store MessageStore) *Gateway {
	return &Gateway{
		registry: NewConnRegistry(),
		presence: NewPresenceSet(),
		calls:    NewCallRegistry(),
		store:    store,
		scopes:   make(map[string][]string),
		logger:   logx.Logger().With().Str("component", "Gateway").Logger(),
	}
}

// Registry exposes read access for handlers (connection counts).
func (g *Gateway) Registry() *ConnRegistry { return g.registry }

// Presence exposes the presence set for read access.
func (g *Gateway) Presence() *PresenceSet { return g.presence }

// Register moves an authenticated connection to its active state.
func (g *Gateway) Register(c *Client) {
	g.registry.Register(c)
}

// Connect wraps an upgraded socket in a client and registers it. The
// caller starts the read and write pumps.
func (g *Gateway) Connect(conn *websocket.Conn, userID, name string) *Client {
	c := NewClient(g, conn, userID, name)
	g.Register(c)
	return c
}

// Unregister runs the disconnect cleanup for a connection. It is safe on
// partially-initialized state and idempotent through the registry's
// no-op semantics; the client's own close guard ensures it fires once
// per connection.
//
// When the last connection of a user drops, the user leaves the presence
// set and every call room, and the remaining members of the user's last
// announced chat scope receive a fresh online-users snapshot.
func (g *Gateway) Unregister(c *Client) {
	last := g.registry.Unregister(c.userID, c.connID)
	if !last {
		return
	}

	g.presence.Leave(c.userID)
	g.calls.LeaveAll(c.userID)

	scope := g.takeScope(c.userID)
	if len(scope) > 0 {
		g.Deliver(EventOnlineUsers, scope, g.presence.Snapshot())
	}
}

// Deliver resolves the target users to their live connections and
// queues one independent copy of the event per connection.
//
// Delivery is fire and forget: no acknowledgement, no retry. An empty
// audience is a logged no-op, never an error. A full queue on one
// connection never aborts delivery to the rest of the fan-out.
func (g *Gateway) Deliver(eventType EventType, userIDs []string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		g.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build event.")
		return
	}

	raw, err := json.Marshal(evt)
	if err != nil {
		g.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal event envelope.")
		return
	}

	connIDs := g.registry.Resolve(userIDs)
	if len(connIDs) == 0 {
		g.logger.Debug().
			Str("event_type", string(eventType)).
			Int("audience", len(userIDs)).
			Msg("Audience fully offline, dropping event.")
		return
	}

	for _, connID := range connIDs {
		client, ok := g.registry.Lookup(connID)
		if !ok {
			// Connection dropped between resolve and dispatch.
			continue
		}
		client.queueBytes(raw)
	}
}

// HandleNewMessage relays an inbound chat message to the supplied member
// list and persists it as a detached write afterwards.
func (g *Gateway) HandleNewMessage(c *Client, p InboundMessagePayload) {
	wire := WireMessage{
		ID:      randx.MessageID(),
		Content: p.Content,
		Sender: MessageSender{
			ID:   c.userID,
			Name: c.name,
		},
		ChatID:    p.ChatID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	g.Deliver(EventNewMessageInSocket, p.Members, NewMessagePayload{
		ChatID:  p.ChatID,
		Message: wire,
	})
	g.Deliver(EventNewMessage, p.Members, MessageNotifyPayload{
		ChatID:   p.ChatID,
		SenderID: c.userID,
	})

	go g.persistMessage(c, p)
}

// persistMessage writes the message to the store. At most once: failure
// is logged and the delivered copies stand.
func (g *Gateway) persistMessage(c *Client, p InboundMessagePayload) {
	if g.store == nil {
		return
	}

	chatID, err := uuid.Parse(p.ChatID)
	if err != nil {
		g.logger.Warn().Str("chat_id", p.ChatID).Msg("Unparseable chat id, message not persisted.")
		return
	}
	senderID, err := uuid.Parse(c.userID)
	if err != nil {
		g.logger.Warn().Str("user_id", c.userID).Msg("Unparseable sender id, message not persisted.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if _, err := g.store.CreateMessage(ctx, db.CreateMessageParams{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  p.Content,
	}); err != nil {
		g.logger.Error().Err(err).Str("chat_id", p.ChatID).Msg("Failed to persist message.")
	}
}

// HandleTyping relays a typing indicator to the supplied member list.
func (g *Gateway) HandleTyping(c *Client, eventType EventType, p InboundTypingPayload) {
	g.Deliver(eventType, p.Members, TypingPayload{
		ChatID:       p.ChatID,
		TypingUserID: c.userID,
	})
}

// HandleChatJoined records the user as online, remembers the supplied
// member list as the user's presence scope, and broadcasts the snapshot
// to that list.
func (g *Gateway) HandleChatJoined(c *Client, p PresencePayload) {
	g.presence.Join(c.userID)
	g.setScope(c.userID, p.Members)
	g.Deliver(EventOnlineUsers, p.Members, g.presence.Snapshot())
}

// HandleChatExited removes the user from the presence set and broadcasts
// the updated snapshot to the supplied member list.
func (g *Gateway) HandleChatExited(c *Client, p PresencePayload) {
	g.presence.Leave(c.userID)
	g.takeScope(c.userID)
	g.Deliver(EventOnlineUsers, p.Members, g.presence.Snapshot())
}

// HandleJoinCall adds the user to the call room, tells existing
// participants who joined, and tells the joiner who was already there.
func (g *Gateway) HandleJoinCall(c *Client, p JoinCallPayload) {
	others := g.calls.Join(p.CallID, c.userID)

	if len(others) > 0 {
		g.Deliver(EventUserJoinedCall, others, CallEventPayload{
			CallID: p.CallID,
			UserID: c.userID,
		})

		for _, other := range others {
			g.Deliver(EventOtherUser, []string{c.userID}, CallEventPayload{
				CallID: p.CallID,
				UserID: other,
			})
		}
	}
}

// HandleRing relays a call invitation to the invited user. The callee
// has not joined the call room yet, so no membership check applies here.
func (g *Gateway) HandleRing(c *Client, p RingPayload) {
	g.Deliver(EventIncomingRing, []string{p.To}, CallEventPayload{
		CallID:  p.CallID,
		UserID:  c.userID,
		Payload: p.Payload,
	})
}

// HandleCallSignal relays an offer, answer, or ICE candidate verbatim to
// the other participants of the call room. Signaling from a user who
// never joined the room is dropped and logged, never an error.
func (g *Gateway) HandleCallSignal(c *Client, eventType EventType, p SignalPayload) {
	others, member := g.calls.Others(p.CallID, c.userID)
	if !member {
		g.logger.Warn().
			Str("call_id", p.CallID).
			Str("user_id", c.userID).
			Str("event_type", string(eventType)).
			Msg("Call signal from non-participant, dropping.")
		return
	}

	if len(others) == 0 {
		g.logger.Debug().Str("call_id", p.CallID).Msg("No other call participants, dropping signal.")
		return
	}

	g.Deliver(eventType, others, CallEventPayload{
		CallID:  p.CallID,
		UserID:  c.userID,
		Payload: p.Payload,
	})
}

// setScope remembers the presence broadcast scope for a user.
func (g *Gateway) setScope(userID string, members []string) {
	scope := make([]string, len(members))
	copy(scope, members)

	g.muScopes.Lock()
	defer g.muScopes.Unlock()
	g.scopes[userID] = scope
}

// takeScope returns and clears the user's presence broadcast scope.
func (g *Gateway) takeScope(userID string) []string {
	g.muScopes.Lock()
	defer g.muScopes.Unlock()

	scope := g.scopes[userID]
	delete(g.scopes, userID)
	return scope
}
