/*
Package handler provides the HTTP handlers and routing setup for the Groovz server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/stxxcsxnny/Groovz/internal/pkg/auth/jwt"
	"github.com/stxxcsxnny/Groovz/internal/pkg/limiter"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

const (
	LoginRate    = 0.2
	LoginBurst   = 5
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(rate.Limit(LoginRate), LoginBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Groovz Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(loginLimiter.Middleware).Post("/register", HandleRegister(deps))
			auth.With(loginLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.Post("/logout", HandleLogout(deps))
		})

		api.Route("/user", func(user chi.Router) {
			user.Use(jwt.RequireAuth)

			user.Get("/profile", HandleGetProfile(deps))
			user.Get("/search", HandleSearchUsers(deps))
			user.Post("/avatar", HandleUploadAvatar(deps))

			user.Get("/friends", HandleListFriends(deps))
			user.Get("/notifications", HandleListNotifications(deps))
			user.Post("/request", HandleSendFriendRequest(deps))
			user.Post("/request/answer", HandleAnswerFriendRequest(deps))
		})

		api.Route("/chat", func(chat chi.Router) {
			chat.Use(jwt.RequireAuth)

			chat.Post("/new", HandleCreateGroupChat(deps))
			chat.Get("/my", HandleListMyChats(deps))
			chat.Get("/my/groups", HandleListMyGroups(deps))

			chat.Route("/{chatID}", func(one chi.Router) {
				one.Get("/", HandleGetChatDetails(deps))
				one.Put("/", HandleRenameGroup(deps))
				one.Delete("/", HandleDeleteChat(deps))

				one.Put("/members", HandleAddMembers(deps))
				one.Delete("/members/{userID}", HandleRemoveMember(deps))
				one.Delete("/leave", HandleLeaveGroup(deps))

				one.Get("/messages", HandleListMessages(deps))
				one.Post("/attachments/presign", HandlePresignAttachment(deps))
				one.Post("/attachments", HandleSendAttachments(deps))
			})
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.With(loginLimiter.Middleware).Post("/login", HandleAdminLogin(deps))
			admin.Post("/logout", HandleAdminLogout(deps))

			admin.Group(func(protected chi.Router) {
				protected.Use(RequireAdmin(deps))

				protected.Get("/stats", HandleAdminStats(deps))
				protected.Get("/users", HandleAdminListUsers(deps))
				protected.Get("/chats", HandleAdminListChats(deps))
			})
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
