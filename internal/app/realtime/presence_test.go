package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceJoinLeave(t *testing.T) {
	p := NewPresenceSet()

	assert.False(t, p.Contains("alice"))

	p.Join("alice")
	assert.True(t, p.Contains("alice"))

	// Join is idempotent.
	p.Join("alice")
	assert.Equal(t, []string{"alice"}, p.Snapshot())

	p.Leave("alice")
	assert.False(t, p.Contains("alice"))
	assert.Empty(t, p.Snapshot())
}

func TestPresenceLeaveUnknownUser(t *testing.T) {
	p := NewPresenceSet()

	assert.NotPanics(t, func() { p.Leave("ghost") })
}

func TestPresenceSnapshotIsSortedCopy(t *testing.T) {
	p := NewPresenceSet()

	p.Join("carol")
	p.Join("alice")
	p.Join("bob")

	snapshot := p.Snapshot()
	assert.Equal(t, []string{"alice", "bob", "carol"}, snapshot)

	// Mutating the snapshot must not touch the set.
	snapshot[0] = "mallory"
	assert.True(t, p.Contains("alice"))
	assert.False(t, p.Contains("mallory"))
}
