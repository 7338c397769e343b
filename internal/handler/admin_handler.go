/*
Package handler provides HTTP handler functions for the admin dashboard:
secret-key login, aggregate stats, and user/chat listings.
*/
package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/stxxcsxnny/Groovz/internal/pkg/auth/jwt"
	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/req"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

// RequireAdmin rejects requests without a valid admin token cookie. The
// admin session is separate from user sessions and carries no user id.
func RequireAdmin(deps *AppDeps) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(jwt.AdminCookieName)
			if err != nil || cookie.Value == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			payload, err := jwt.ParseToken(cookie.Value, deps.Config.JWTSecret)
			if err != nil || payload.Role != jwt.RoleAdmin {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type AdminLoginInput struct {
	SecretKey string `json:"secretKey"`
}

// HandleAdminLogin checks the shared admin secret and issues the
// short-lived admin token cookie.
func HandleAdminLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input AdminLoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if deps.Config.AdminSecretKey == "" ||
			subtle.ConstantTimeCompare([]byte(input.SecretKey), []byte(deps.Config.AdminSecretKey)) != 1 {
			logx.Warn("admin login rejected: wrong secret key", "ip", r.RemoteAddr)
			resp.RespondError(w, r, errs.NewError(errs.ErrAdminSecretInvalid))
			return
		}

		token, err := jwt.GenerateToken(&jwt.Payload{Role: jwt.RoleAdmin},
			deps.Config.JWTSecret, jwt.AdminExpiration)
		if err != nil {
			logx.Error(err, "admin token generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		setAuthCookie(w, deps, jwt.AdminCookieName, token, int(jwt.AdminExpiration.Seconds()))

		resp.RespondSuccess(w, r, map[string]string{"message": "admin session started"})
	}
}

// HandleAdminLogout clears the admin token cookie.
func HandleAdminLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setAuthCookie(w, deps, jwt.AdminCookieName, "", -1)
		resp.RespondSuccess(w, r, map[string]string{"message": "admin session ended"})
	}
}

// HandleAdminStats returns the dashboard counters.
func HandleAdminStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.DB.GetDashboardStats(r.Context())
		if err != nil {
			logx.Error(err, "dashboard stats query failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		onlineUsers := deps.Gateway.Presence().Snapshot()

		resp.RespondSuccess(w, r, map[string]any{
			"stats":            stats,
			"onlineUsersCount": len(onlineUsers),
		})
	}
}

// HandleAdminListUsers returns every account.
func HandleAdminListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.DB.ListUsers(r.Context())
		if err != nil {
			logx.Error(err, "admin user listing failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"users": users})
	}
}

// HandleAdminListChats returns every chat with its members and message
// count.
func HandleAdminListChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chats, err := deps.DB.ListAllChats(r.Context())
		if err != nil {
			logx.Error(err, "admin chat listing failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(chats))
		for _, chat := range chats {
			members, err := deps.DB.ChatMembers(r.Context(), chat.ID)
			if err != nil {
				logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}

			count, err := deps.DB.CountMessages(r.Context(), chat.ID)
			if err != nil {
				logx.Error(err, "message count failed", "chat_id", chat.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}

			views = append(views, map[string]any{
				"chat":          chat,
				"members":       members,
				"messagesCount": count,
			})
		}

		resp.RespondSuccess(w, r, map[string]any{"chats": views})
	}
}
