package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxxcsxnny/Groovz/internal/app/db"
)

// recordingStore captures detached message writes for assertions.
type recordingStore struct {
	mu     sync.Mutex
	params []db.CreateMessageParams
	done   chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{done: make(chan struct{}, 8)}
}

func (s *recordingStore) CreateMessage(_ context.Context, p db.CreateMessageParams) (db.Message, error) {
	s.mu.Lock()
	s.params = append(s.params, p)
	s.mu.Unlock()
	s.done <- struct{}{}
	return db.Message{ChatID: p.ChatID, SenderID: p.SenderID, Content: p.Content}, nil
}

func (s *recordingStore) waitForWrite(t *testing.T) db.CreateMessageParams {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for detached persistence write")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params[len(s.params)-1]
}

// connect registers a fresh connection for userID on the gateway.
func connect(g *Gateway, userID string) *Client {
	c := NewClient(g, nil, userID, "user "+userID)
	g.Register(c)
	return c
}

// receiveEvent pops one queued event off the client's send queue.
// Deliver queues synchronously, so an empty queue is a failure.
func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var evt Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		return evt
	default:
		t.Fatal("expected a queued event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("expected no queued event, got %s", raw)
	default:
	}
}

func TestDeliverOneCopyPerConnection(t *testing.T) {
	g := NewGateway(nil)

	c1 := connect(g, "alice")
	c2 := connect(g, "alice")

	g.Deliver(EventRefetchChats, []string{"alice"}, nil)

	evt1 := receiveEvent(t, c1)
	evt2 := receiveEvent(t, c2)
	assert.Equal(t, EventRefetchChats, evt1.Type)
	assert.Equal(t, EventRefetchChats, evt2.Type)

	// Exactly one copy each.
	assertNoEvent(t, c1)
	assertNoEvent(t, c2)
}

func TestDeliverOfflineAudienceIsNoop(t *testing.T) {
	g := NewGateway(nil)

	assert.NotPanics(t, func() {
		g.Deliver(EventStartTyping, []string{"ghost"}, TypingPayload{ChatID: "c1", TypingUserID: "x"})
	}, "fully offline audience is a documented no-op")
}

func TestDeliverSkipsOfflineTargets(t *testing.T) {
	g := NewGateway(nil)

	online := connect(g, "alice")

	g.Deliver(EventAlert, []string{"alice", "ghost"}, "Welcome")

	evt := receiveEvent(t, online)
	assert.Equal(t, EventAlert, evt.Type)

	var text string
	require.NoError(t, json.Unmarshal(evt.Payload, &text))
	assert.Equal(t, "Welcome", text)
}

func TestNewMessageFanOutToAllDevices(t *testing.T) {
	chatID := uuid.New().String()
	alice := uuid.New().String()
	bob := uuid.New().String()

	store := newRecordingStore()
	g := NewGateway(store)

	a1 := connect(g, alice)
	a2 := connect(g, alice)
	sender := connect(g, bob)

	g.HandleNewMessage(sender, InboundMessagePayload{
		ChatID:  chatID,
		Members: []string{alice},
		Content: "hello",
	})

	// Both of alice's connections receive the full message and the notify.
	for _, c := range []*Client{a1, a2} {
		evt := receiveEvent(t, c)
		assert.Equal(t, EventNewMessageInSocket, evt.Type)

		var p NewMessagePayload
		require.NoError(t, json.Unmarshal(evt.Payload, &p))
		assert.Equal(t, chatID, p.ChatID)
		assert.Equal(t, "hello", p.Message.Content)
		assert.Equal(t, bob, p.Message.Sender.ID)
		assert.NotEmpty(t, p.Message.ID)

		notify := receiveEvent(t, c)
		assert.Equal(t, EventNewMessage, notify.Type)

		assertNoEvent(t, c)
	}

	// The sender targeted only alice and gets nothing back.
	assertNoEvent(t, sender)

	// Persistence happens detached from delivery.
	written := store.waitForWrite(t)
	assert.Equal(t, chatID, written.ChatID.String())
	assert.Equal(t, bob, written.SenderID.String())
	assert.Equal(t, "hello", written.Content)
}

func TestTypingRelay(t *testing.T) {
	g := NewGateway(nil)

	typist := connect(g, "alice")
	watcher := connect(g, "bob")

	g.HandleTyping(typist, EventStartTyping, InboundTypingPayload{
		ChatID:  "c1",
		Members: []string{"bob"},
	})

	evt := receiveEvent(t, watcher)
	assert.Equal(t, EventStartTyping, evt.Type)

	var p TypingPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, "alice", p.TypingUserID)
	assert.Equal(t, "c1", p.ChatID)

	assertNoEvent(t, typist)
}

func TestChatJoinAndExitScenario(t *testing.T) {
	g := NewGateway(nil)

	a := connect(g, "alice")
	b := connect(g, "bob")

	// Alice announces presence for a chat with members [alice, bob].
	g.HandleChatJoined(a, PresencePayload{UserID: "alice", Members: []string{"alice", "bob"}})

	for _, c := range []*Client{a, b} {
		evt := receiveEvent(t, c)
		assert.Equal(t, EventOnlineUsers, evt.Type)

		var online []string
		require.NoError(t, json.Unmarshal(evt.Payload, &online))
		assert.Equal(t, []string{"alice"}, online)
	}

	// Presence is announcement-driven: bob holds a connection but never
	// joined, so he is not in the snapshot.
	assert.False(t, g.Presence().Contains("bob"))

	g.HandleChatExited(a, PresencePayload{UserID: "alice", Members: []string{"alice", "bob"}})

	for _, c := range []*Client{a, b} {
		evt := receiveEvent(t, c)
		assert.Equal(t, EventOnlineUsers, evt.Type)

		var online []string
		require.NoError(t, json.Unmarshal(evt.Payload, &online))
		assert.Empty(t, online)
	}
}

func TestDisconnectClearsPresenceAndBroadcasts(t *testing.T) {
	g := NewGateway(nil)

	a := connect(g, "alice")
	b := connect(g, "bob")

	g.HandleChatJoined(a, PresencePayload{UserID: "alice", Members: []string{"alice", "bob"}})
	receiveEvent(t, a)
	receiveEvent(t, b)

	g.Unregister(a)

	assert.False(t, g.Presence().Contains("alice"))
	assert.Equal(t, 0, g.Registry().Connections("alice"))

	// The remaining scope members get the snapshot without alice. Alice's
	// own connection is gone at this point.
	evt := receiveEvent(t, b)
	assert.Equal(t, EventOnlineUsers, evt.Type)

	var online []string
	require.NoError(t, json.Unmarshal(evt.Payload, &online))
	assert.NotContains(t, online, "alice")
}

func TestDisconnectKeepsPresenceWhileDevicesRemain(t *testing.T) {
	g := NewGateway(nil)

	a1 := connect(g, "alice")
	a2 := connect(g, "alice")

	g.HandleChatJoined(a1, PresencePayload{UserID: "alice", Members: []string{"alice"}})
	receiveEvent(t, a1)
	receiveEvent(t, a2)

	g.Unregister(a1)

	// One device remains, so presence is untouched.
	assert.True(t, g.Presence().Contains("alice"))
	assert.Equal(t, 1, g.Registry().Connections("alice"))
	assertNoEvent(t, a2)
}

func TestUnregisterTwiceIsHarmless(t *testing.T) {
	g := NewGateway(nil)

	a := connect(g, "alice")

	assert.NotPanics(t, func() {
		g.Unregister(a)
		g.Unregister(a)
	})
}
