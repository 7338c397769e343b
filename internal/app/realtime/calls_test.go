package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallJoinReturnsExistingParticipants(t *testing.T) {
	cr := NewCallRegistry()

	others := cr.Join("call-1", "alice")
	assert.Empty(t, others, "first participant sees an empty room")

	others = cr.Join("call-1", "bob")
	assert.Equal(t, []string{"alice"}, others)

	others = cr.Join("call-1", "carol")
	assert.ElementsMatch(t, []string{"alice", "bob"}, others)
}

func TestCallJoinIsIdempotent(t *testing.T) {
	cr := NewCallRegistry()

	cr.Join("call-1", "alice")
	others := cr.Join("call-1", "alice")
	assert.Empty(t, others, "rejoining must not list the user to themselves")
}

func TestCallOthersRequiresMembership(t *testing.T) {
	cr := NewCallRegistry()

	cr.Join("call-1", "alice")
	cr.Join("call-1", "bob")

	others, member := cr.Others("call-1", "alice")
	assert.True(t, member)
	assert.Equal(t, []string{"bob"}, others)

	_, member = cr.Others("call-1", "mallory")
	assert.False(t, member)

	_, member = cr.Others("no-such-call", "alice")
	assert.False(t, member)
}

func TestCallLeaveRemovesEmptyRoom(t *testing.T) {
	cr := NewCallRegistry()

	cr.Join("call-1", "alice")
	cr.Join("call-1", "bob")

	cr.Leave("call-1", "alice")
	others, member := cr.Others("call-1", "bob")
	assert.True(t, member)
	assert.Empty(t, others)

	cr.Leave("call-1", "bob")
	_, member = cr.Others("call-1", "bob")
	assert.False(t, member, "the emptied room is gone entirely")

	// Leaving again or leaving an unknown room is a no-op.
	assert.NotPanics(t, func() {
		cr.Leave("call-1", "bob")
		cr.Leave("never-existed", "bob")
	})
}

func TestCallLeaveAllSweepsEveryRoom(t *testing.T) {
	cr := NewCallRegistry()

	cr.Join("call-1", "alice")
	cr.Join("call-1", "bob")
	cr.Join("call-2", "alice")

	cr.LeaveAll("alice")

	_, member := cr.Others("call-1", "alice")
	assert.False(t, member)
	_, member = cr.Others("call-2", "alice")
	assert.False(t, member, "the room alice held alone is deleted")

	others, member := cr.Others("call-1", "bob")
	assert.True(t, member)
	assert.Empty(t, others)
}

func TestSignalRelayedOnlyBetweenParticipants(t *testing.T) {
	g := NewGateway(nil)

	caller := connect(g, "alice")
	callee := connect(g, "bob")
	outsider := connect(g, "mallory")

	g.HandleJoinCall(caller, JoinCallPayload{CallID: "call-1"})
	g.HandleJoinCall(callee, JoinCallPayload{CallID: "call-1"})

	// The second join announces bob to alice and alice to bob.
	joined := receiveEvent(t, caller)
	assert.Equal(t, EventUserJoinedCall, joined.Type)

	otherUser := receiveEvent(t, callee)
	assert.Equal(t, EventOtherUser, otherUser.Type)

	offer := json.RawMessage(`{"sdp":"v=0"}`)
	g.HandleCallSignal(caller, EventOffer, SignalPayload{CallID: "call-1", Payload: offer})

	evt := receiveEvent(t, callee)
	assert.Equal(t, EventOffer, evt.Type)

	var p CallEventPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, "call-1", p.CallID)
	assert.Equal(t, "alice", p.UserID)
	assert.JSONEq(t, string(offer), string(p.Payload))

	// A non-participant's signal is dropped before any fan-out.
	g.HandleCallSignal(outsider, EventIceCandidate, SignalPayload{CallID: "call-1"})
	assertNoEvent(t, caller)
	assertNoEvent(t, callee)
}

func TestRingReachesCalleeBeforeTheyJoin(t *testing.T) {
	g := NewGateway(nil)

	caller := connect(g, "alice")
	callee := connect(g, "bob")

	g.HandleRing(caller, RingPayload{CallID: "call-1", To: "bob"})

	evt := receiveEvent(t, callee)
	assert.Equal(t, EventIncomingRing, evt.Type)

	var p CallEventPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, "call-1", p.CallID)
}
