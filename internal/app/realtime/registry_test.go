package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRegistryClient(userID string) *Client {
	return NewClient(nil, nil, userID, "user "+userID)
}

func TestRegisterAndResolve(t *testing.T) {
	r := NewConnRegistry()

	c1 := newRegistryClient("alice")
	c2 := newRegistryClient("alice")
	c3 := newRegistryClient("bob")

	r.Register(c1)
	r.Register(c2)
	r.Register(c3)

	assert.Equal(t, 2, r.Connections("alice"), "expected two connections for alice")
	assert.Equal(t, 1, r.Connections("bob"), "expected one connection for bob")

	connIDs := r.Resolve([]string{"alice", "bob"})
	assert.Len(t, connIDs, 3, "expected all three connections resolved")
	assert.ElementsMatch(t, []string{c1.connID, c2.connID, c3.connID}, connIDs)
}

func TestResolveSkipsOfflineUsers(t *testing.T) {
	r := NewConnRegistry()

	c := newRegistryClient("alice")
	r.Register(c)

	connIDs := r.Resolve([]string{"alice", "ghost"})
	assert.Equal(t, []string{c.connID}, connIDs, "offline user should be skipped, not fail")
}

func TestResolveEmptyInput(t *testing.T) {
	r := NewConnRegistry()

	assert.Empty(t, r.Resolve(nil), "resolve of nil input should be empty")
	assert.Empty(t, r.Resolve([]string{}), "resolve of empty input should be empty")
}

func TestUnregisterRemovesEmptyEntry(t *testing.T) {
	r := NewConnRegistry()

	c1 := newRegistryClient("alice")
	c2 := newRegistryClient("alice")
	r.Register(c1)
	r.Register(c2)

	last := r.Unregister("alice", c1.connID)
	assert.False(t, last, "alice still has a live connection")
	assert.Equal(t, 1, r.Connections("alice"))

	last = r.Unregister("alice", c2.connID)
	assert.True(t, last, "removing the final connection must report last")
	assert.Equal(t, 0, r.Connections("alice"), "empty entry must be deleted, not kept")
	assert.Empty(t, r.Resolve([]string{"alice"}))
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := NewConnRegistry()

	c := newRegistryClient("alice")
	r.Register(c)

	assert.True(t, r.Unregister("alice", c.connID))

	// Repeated cleanup for the same connection must be a silent no-op.
	assert.False(t, r.Unregister("alice", c.connID))
	assert.False(t, r.Unregister("alice", c.connID))
}

func TestUnregisterUnknownUser(t *testing.T) {
	r := NewConnRegistry()

	assert.NotPanics(t, func() {
		assert.False(t, r.Unregister("nobody", "no-conn"))
	}, "cleanup on partially-initialized state must be safe")
}

func TestLookup(t *testing.T) {
	r := NewConnRegistry()

	c := newRegistryClient("alice")
	r.Register(c)

	got, ok := r.Lookup(c.connID)
	assert.True(t, ok)
	assert.Same(t, c, got)

	r.Unregister("alice", c.connID)
	_, ok = r.Lookup(c.connID)
	assert.False(t, ok, "connection id is invalid after disconnect")
}
