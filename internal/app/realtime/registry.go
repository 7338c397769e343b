/*
Package realtime contains the presence and message fan-out core.

This file defines the ConnRegistry, the map from a user id to the set of
that user's live connections. A user may hold several connections at
once (multiple devices or tabs). The registry is process-local shared
state with no persistence; it is rebuilt empty on restart.
*/
package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
)

// ConnRegistry maps user ids to their live connections.
//
// Invariants: a connection id appears under at most one user id, and an
// entry with an empty connection set never exists. The key is deleted
// when the last connection goes, which is the signal the user is fully
// offline.
type ConnRegistry struct {
	// mu protects byUser and byConn.
	mu sync.RWMutex

	// byUser maps user id -> connection id -> client.
	byUser map[string]map[string]*Client

	// byConn maps connection id -> client for direct dispatch.
	byConn map[string]*Client

	logger zerolog.Logger
}

// NewConnRegistry constructs an empty registry.
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{
		byUser: make(map[string]map[string]*Client),
		byConn: make(map[string]*Client),
		logger: logx.Logger().With().Str("component", "ConnRegistry").Logger(),
	}
}

// Register adds the client's connection under its user id, creating the
// user entry on first connection.
func (r *ConnRegistry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.byUser[c.userID]
	if conns == nil {
		conns = make(map[string]*Client)
		r.byUser[c.userID] = conns
	}
	conns[c.connID] = c
	r.byConn[c.connID] = c

	r.logger.Info().
		Str("user_id", c.userID).
		Str("conn_id", c.connID).
		Int("user_connections", len(conns)).
		Msg("Connection registered.")
}

// Unregister removes the connection from the user's set and reports
// whether it was the user's last one. Unknown user or connection ids are
// a logged no-op, never an error: disconnect cleanup must always
// complete, even from partially-initialized state.
func (r *ConnRegistry) Unregister(userID, connID string) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byConn, connID)

	conns, ok := r.byUser[userID]
	if !ok {
		r.logger.Warn().
			Str("user_id", userID).
			Str("conn_id", connID).
			Msg("Unregister for unknown user. Ignoring.")
		return false
	}

	if _, ok := conns[connID]; !ok {
		r.logger.Warn().
			Str("user_id", userID).
			Str("conn_id", connID).
			Msg("Unregister for unknown connection. Ignoring.")
		return false
	}

	delete(conns, connID)

	if len(conns) == 0 {
		delete(r.byUser, userID)
		r.logger.Info().Str("user_id", userID).Msg("Last connection removed, user fully offline.")
		return true
	}

	r.logger.Info().
		Str("user_id", userID).
		Str("conn_id", connID).
		Int("user_connections", len(conns)).
		Msg("Connection unregistered.")
	return false
}

// Resolve flattens the given user ids into the connection ids currently
// registered for them. Users with no live connections are skipped and
// logged, never an error. Order groups by user but is otherwise
// unspecified.
func (r *ConnRegistry) Resolve(userIDs []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var connIDs []string
	for _, userID := range userIDs {
		conns, ok := r.byUser[userID]
		if !ok {
			r.logger.Debug().Str("user_id", userID).Msg("No live connections for user, skipping.")
			continue
		}
		for connID := range conns {
			connIDs = append(connIDs, connID)
		}
	}

	return connIDs
}

// Lookup returns the client behind a connection id.
func (r *ConnRegistry) Lookup(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byConn[connID]
	return c, ok
}

// Connections returns how many live connections the user holds.
func (r *ConnRegistry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser[userID])
}
