package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is an account row. PasswordHash is only populated by queries that
// need to verify credentials.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	AvatarKey    string    `json:"avatarKey,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FriendRequest is a pending friend request between two accounts.
type FriendRequest struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	CreatedAt  time.Time `json:"createdAt"`

	// SenderName is populated by queries that join the sender row.
	SenderName string `json:"senderName,omitempty"`
}

// Chat is a private (two-member) or group conversation.
type Chat struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsGroup   bool      `json:"groupChat"`
	CreatorID uuid.UUID `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMember is the member projection used by chat listings.
type ChatMember struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarKey string    `json:"avatarKey,omitempty"`
}

// Message is a persisted chat message. Attachments holds the stored
// attachment descriptors as raw JSON.
type Message struct {
	ID          uuid.UUID       `json:"id"`
	ChatID      uuid.UUID       `json:"chatId"`
	SenderID    uuid.UUID       `json:"senderId"`
	Content     string          `json:"content"`
	Attachments json.RawMessage `json:"attachments"`
	CreatedAt   time.Time       `json:"createdAt"`

	// SenderName is populated by queries that join the sender row.
	SenderName string `json:"senderName,omitempty"`
}
