/*
Package handler provides the HTTP handler function for WebSocket connection
upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for
rate limiting, authenticating the connecting user, upgrading the HTTP
connection to WebSocket, and starting the client lifecycle.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stxxcsxnny/Groovz/internal/pkg/auth/jwt"
	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
	"github.com/stxxcsxnny/Groovz/internal/pkg/limiter"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

// wsToken extracts the session token for the upgrade request. Browser
// WebSocket clients cannot set headers, so a token query parameter is
// accepted alongside the cookie and Bearer forms.
func wsToken(r *http.Request) string {
	if token := jwt.TokenFromRequest(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket
// connection requests. Authentication failures refuse the request before
// the upgrade, so a refused connection is never registered.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := wsToken(r)
		if token == "" {
			logx.Warn("WebSocket request rejected: Missing session token", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
		if err != nil || payload.Role != jwt.RoleUser {
			logx.Warn("WebSocket request rejected: Invalid session token", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			logx.Warn("WebSocket request rejected: Malformed user id in token", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		// A valid token for a deleted account still refuses the upgrade.
		user, err := deps.DB.GetUserByID(r.Context(), userID)
		if err != nil {
			logx.Warn("WebSocket request rejected: Unknown account", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := deps.Gateway.Connect(conn, user.ID.String(), user.Name)

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered",
			"user_id", user.ID, "conn_id", client.ConnID())

		client.ReadPump()
	}
}
