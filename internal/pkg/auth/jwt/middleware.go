package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

// Context key for the parsed Payload, namespaced to avoid collisions.
type contextKey string

const (
	// ContextAuthPayloadKey stores the parsed session Payload in the request context.
	ContextAuthPayloadKey contextKey = "auth_payload"

	// SessionCookieName is the cookie carrying the ordinary login token.
	SessionCookieName = "groovz-token"

	// AdminCookieName is the cookie carrying the admin dashboard token.
	AdminCookieName = "groovz-admin-token"
)

// TokenFromRequest extracts the raw session token from the request,
// preferring the session cookie and falling back to a Bearer header.
// An empty string means no credential was presented.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// IdentityExtractorMiddleware parses the session token when present and
// injects the Payload into the request context. It never rejects the
// request itself; unauthenticated callers simply carry no payload.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Invalid or expired JWT provided, treating as anonymous", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that did not carry a valid user session
// token. It runs after IdentityExtractorMiddleware and only checks the
// extracted payload.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := GetPayloadFromContext(r)
		if payload == nil || payload.Role != RoleUser || payload.UserID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetPayloadFromContext returns the authenticated Payload, or nil for an
// anonymous request.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
