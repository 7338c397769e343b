/*
Package realtime contains the presence and message fan-out core.

This file defines the PresenceSet, the set of users currently announced
as online. Membership is driven by explicit CHAT_JOINED and CHAT_EXITED
signals from clients, not derived from the connection registry: a user
can hold a connection without having announced presence for any chat.
That decoupling is deliberate and load-bearing.
*/
package realtime

import (
	"sort"
	"sync"
)

// PresenceSet tracks which users have announced themselves online.
type PresenceSet struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

// NewPresenceSet constructs an empty presence set.
func NewPresenceSet() *PresenceSet {
	return &PresenceSet{online: make(map[string]struct{})}
}

// Join marks the user as online. Idempotent.
func (p *PresenceSet) Join(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = struct{}{}
}

// Leave marks the user as offline. Unknown users are a no-op.
func (p *PresenceSet) Leave(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
}

// Contains reports whether the user has announced presence.
func (p *PresenceSet) Contains(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[userID]
	return ok
}

// Snapshot returns a sorted copy of the online user ids, safe to embed
// in an event payload.
func (p *PresenceSet) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make([]string, 0, len(p.online))
	for userID := range p.online {
		snapshot = append(snapshot, userID)
	}
	sort.Strings(snapshot)
	return snapshot
}
