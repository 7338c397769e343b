package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stxxcsxnny/Groovz/internal/app/db"
	"github.com/stxxcsxnny/Groovz/internal/app/realtime"
	"github.com/stxxcsxnny/Groovz/internal/app/storage"
	"github.com/stxxcsxnny/Groovz/internal/configs"
)

// EventGateway is the realtime surface the handlers drive. Satisfied by
// *realtime.Gateway.
type EventGateway interface {
	Deliver(eventType realtime.EventType, userIDs []string, payload any)
	Connect(conn *websocket.Conn, userID, name string) *realtime.Client
	Presence() *realtime.PresenceSet
}

// DataStore is the query surface the handlers depend on. Satisfied by
// *db.Store.
type DataStore interface {
	CreateUser(ctx context.Context, p db.CreateUserParams) (db.User, error)
	GetUserByUsername(ctx context.Context, username string) (db.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (db.User, error)
	SearchUsers(ctx context.Context, query string) ([]db.User, error)
	ListUsers(ctx context.Context) ([]db.User, error)
	UpdateUserAvatar(ctx context.Context, id uuid.UUID, avatarKey string) error

	CreateFriendRequest(ctx context.Context, sender, receiver uuid.UUID) (db.FriendRequest, error)
	FriendRequestBetween(ctx context.Context, a, b uuid.UUID) (db.FriendRequest, error)
	GetFriendRequest(ctx context.Context, id uuid.UUID) (db.FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, id uuid.UUID) error
	ListFriendRequestsForReceiver(ctx context.Context, receiver uuid.UUID) ([]db.FriendRequest, error)

	CreateChat(ctx context.Context, name string, isGroup bool, creator uuid.UUID, members []uuid.UUID) (db.Chat, error)
	GetChat(ctx context.Context, id uuid.UUID) (db.Chat, error)
	ChatMemberIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error)
	ChatMembers(ctx context.Context, chatID uuid.UUID) ([]db.ChatMember, error)
	IsChatMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]db.Chat, error)
	ListGroupsCreatedBy(ctx context.Context, userID uuid.UUID) ([]db.Chat, error)
	ListAllChats(ctx context.Context) ([]db.Chat, error)
	FindPrivateChatBetween(ctx context.Context, a, b uuid.UUID) (db.Chat, error)
	AddChatMembers(ctx context.Context, chatID uuid.UUID, userIDs []uuid.UUID) error
	RemoveChatMember(ctx context.Context, chatID, userID uuid.UUID) error
	CountChatMembers(ctx context.Context, chatID uuid.UUID) (int64, error)
	UpdateChatCreator(ctx context.Context, chatID, userID uuid.UUID) error
	RenameChat(ctx context.Context, chatID uuid.UUID, name string) error
	DeleteChat(ctx context.Context, chatID uuid.UUID) error

	CreateMessage(ctx context.Context, p db.CreateMessageParams) (db.Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]db.Message, error)
	CountMessages(ctx context.Context, chatID uuid.UUID) (int64, error)
	ChatAttachmentKeys(ctx context.Context, chatID uuid.UUID) ([]string, error)

	GetDashboardStats(ctx context.Context) (db.DashboardStats, error)
}

type AppDeps struct {
	Gateway        EventGateway
	Config         *configs.AppConfig
	StorageService storage.StorageService
	DB             DataStore
}
