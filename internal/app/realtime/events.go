/*
Package realtime contains the presence and message fan-out core: the
connection registry, the presence set, the event gateway that routes
typed events to the live connections of targeted users, and the call
signaling relay.

This file defines the event taxonomy and the payload structures carried
over the socket. Event payloads are marshaled once at construction and
never mutated after dispatch.
*/
package realtime

import "encoding/json"

// EventType tags an event envelope on the wire.
type EventType string

const (
	// EventNewMessageInSocket carries a full message to live chat members.
	EventNewMessageInSocket EventType = "NEW_MESSAGE_IN_SOCKET"

	// EventNewMessage notifies chat members that a chat has a new message.
	EventNewMessage EventType = "NEW_MESSAGE"

	// EventStartTyping and EventStopTyping relay typing indicators.
	EventStartTyping EventType = "START_TYPING"
	EventStopTyping  EventType = "STOP_TYPING"

	// EventChatJoined and EventChatExited are inbound presence announcements.
	EventChatJoined EventType = "CHAT_JOINED"
	EventChatExited EventType = "CHAT_EXITED"

	// EventOnlineUsers broadcasts the current online-user snapshot.
	EventOnlineUsers EventType = "ONLINE_USERS"

	// EventAlert carries a human-readable notice (member added, group renamed).
	EventAlert EventType = "ALERT"

	// EventRefetchChats tells clients their chat list is stale.
	EventRefetchChats EventType = "REFETCH_CHATS"

	// EventNewRequest notifies a user of an incoming friend request.
	EventNewRequest EventType = "NEW_REQUEST"

	// Call signaling. The server relays these verbatim between the call's
	// participants and keeps no call state beyond ephemeral room membership.
	EventJoinCall       EventType = "JOIN_CALL"
	EventUserJoinedCall EventType = "USER_JOINED_CALL"
	EventOtherUser      EventType = "OTHER_USER"
	EventRingCall       EventType = "RING_CALL"
	EventIncomingRing   EventType = "INCOMING_RING"
	EventOffer          EventType = "OFFER"
	EventAnswer         EventType = "ANSWER"
	EventIceCandidate   EventType = "ICE_CANDIDATE"
)

// Event is the tagged envelope exchanged over the socket, in both
// directions.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent freezes payload into an outbound envelope. The payload is
// marshaled exactly once; the resulting envelope is immutable.
func NewEvent(eventType EventType, payload any) (Event, error) {
	evt := Event{Type: eventType}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		evt.Payload = raw
	}

	return evt, nil
}

// MessageSender identifies the author inside a relayed message.
type MessageSender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WireMessage is the realtime projection of a chat message. It is built
// before persistence completes, so its ID is minted by the gateway.
type WireMessage struct {
	ID          string          `json:"id"`
	Content     string          `json:"content"`
	Sender      MessageSender   `json:"sender"`
	ChatID      string          `json:"chatId"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

// NewMessagePayload is the outbound EventNewMessageInSocket payload.
type NewMessagePayload struct {
	ChatID  string      `json:"chatId"`
	Message WireMessage `json:"message"`
}

// MessageNotifyPayload is the outbound EventNewMessage payload.
type MessageNotifyPayload struct {
	ChatID   string `json:"chatId"`
	SenderID string `json:"senderId"`
}

// TypingPayload is the outbound typing indicator payload.
type TypingPayload struct {
	ChatID       string `json:"chatId"`
	TypingUserID string `json:"typingUserId"`
}

// InboundMessagePayload is what a client sends with EventNewMessageInSocket.
// Members is the chat's member list the caller resolved via REST.
type InboundMessagePayload struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
	Content string   `json:"content"`
}

// InboundTypingPayload is what a client sends with the typing events.
type InboundTypingPayload struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
}

// PresencePayload is what a client sends with EventChatJoined and
// EventChatExited. Members defines the broadcast scope for the
// resulting online-users snapshot.
type PresencePayload struct {
	UserID  string   `json:"userId"`
	Members []string `json:"members"`
}

// JoinCallPayload is what a client sends with EventJoinCall.
type JoinCallPayload struct {
	CallID string `json:"callId"`
}

// RingPayload is what a client sends with EventRingCall to invite a
// specific user into a call.
type RingPayload struct {
	CallID  string          `json:"callId"`
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SignalPayload is what a client sends with EventOffer, EventAnswer, and
// EventIceCandidate. Payload is relayed verbatim.
type SignalPayload struct {
	CallID  string          `json:"callId"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CallEventPayload is the outbound form of the relayed call signals.
type CallEventPayload struct {
	CallID  string          `json:"callId"`
	UserID  string          `json:"userId"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
