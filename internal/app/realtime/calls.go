/*
Package realtime contains the presence and message fan-out core.

This file defines the CallRegistry, the ephemeral per-call grouping
behind the signaling relay. A call room is just the set of user ids that
joined a caller-supplied call id. There is no accepted/rejected/ended
state; rooms disappear when their last participant leaves.
*/
package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
)

// CallRegistry tracks which users joined which call rooms.
type CallRegistry struct {
	mu sync.Mutex

	// rooms maps call id -> set of participant user ids.
	rooms map[string]map[string]struct{}

	logger zerolog.Logger
}

// NewCallRegistry constructs an empty call registry.
func NewCallRegistry() *CallRegistry {
	return &CallRegistry{
		rooms:  make(map[string]map[string]struct{}),
		logger: logx.Logger().With().Str("component", "CallRegistry").Logger(),
	}
}

// Join adds the user to the call room, creating it if absent, and
// returns the other participants already present.
func (cr *CallRegistry) Join(callID, userID string) []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	room := cr.rooms[callID]
	if room == nil {
		room = make(map[string]struct{})
		cr.rooms[callID] = room
	}

	others := make([]string, 0, len(room))
	for participant := range room {
		if participant != userID {
			others = append(others, participant)
		}
	}

	room[userID] = struct{}{}

	cr.logger.Info().
		Str("call_id", callID).
		Str("user_id", userID).
		Int("participants", len(room)).
		Msg("User joined call room.")

	return others
}

// Others returns the call's participants excluding userID, and whether
// userID itself is a participant. Signaling for a call the sender never
// joined is dropped by the gateway.
func (cr *CallRegistry) Others(callID, userID string) (others []string, member bool) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	room, ok := cr.rooms[callID]
	if !ok {
		return nil, false
	}

	if _, ok := room[userID]; !ok {
		return nil, false
	}

	for participant := range room {
		if participant != userID {
			others = append(others, participant)
		}
	}
	return others, true
}

// Leave removes the user from the call room, deleting the room when it
// empties. Unknown rooms or users are a no-op.
func (cr *CallRegistry) Leave(callID, userID string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.leaveLocked(callID, userID)
}

// LeaveAll removes the user from every call room, used when the user's
// last connection drops.
func (cr *CallRegistry) LeaveAll(userID string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	for callID, room := range cr.rooms {
		if _, ok := room[userID]; ok {
			cr.leaveLocked(callID, userID)
		}
	}
}

// leaveLocked requires cr.mu to be held.
func (cr *CallRegistry) leaveLocked(callID, userID string) {
	room, ok := cr.rooms[callID]
	if !ok {
		return
	}

	delete(room, userID)

	if len(room) == 0 {
		delete(cr.rooms, callID)
		cr.logger.Info().Str("call_id", callID).Msg("Call room empty, removed.")
	}
}
