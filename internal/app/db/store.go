package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the hand-written query layer over the connection pool. All
// methods take a context and return plain model structs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Users ---

// CreateUserParams carries the fields for a new account.
type CreateUserParams struct {
	Name         string
	Username     string
	PasswordHash string
	Email        string
	AvatarKey    string
}

// CreateUser inserts a new account and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	const q = `
		INSERT INTO users (name, username, password_hash, email, avatar_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, username, email, avatar_key, created_at`

	var u User
	err := s.pool.QueryRow(ctx, q, p.Name, p.Username, p.PasswordHash, p.Email, p.AvatarKey).
		Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.AvatarKey, &u.CreatedAt)
	return u, err
}

// GetUserByUsername returns the account for username, including the
// password hash for credential checks.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const q = `
		SELECT id, name, username, password_hash, email, avatar_key, created_at
		FROM users WHERE username = $1`

	var u User
	err := s.pool.QueryRow(ctx, q, username).
		Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Email, &u.AvatarKey, &u.CreatedAt)
	return u, err
}

// GetUserByID returns the account for id.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const q = `
		SELECT id, name, username, email, avatar_key, created_at
		FROM users WHERE id = $1`

	var u User
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.AvatarKey, &u.CreatedAt)
	return u, err
}

// SearchUsers returns accounts whose username or email matches the query,
// case-insensitively.
func (s *Store) SearchUsers(ctx context.Context, query string) ([]User, error) {
	const q = `
		SELECT id, name, username, email, avatar_key, created_at
		FROM users
		WHERE username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT 50`

	rows, err := s.pool.Query(ctx, q, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListUsers returns all accounts, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	const q = `
		SELECT id, name, username, email, avatar_key, created_at
		FROM users ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// UpdateUserAvatar replaces the stored avatar object key for an account.
func (s *Store) UpdateUserAvatar(ctx context.Context, id uuid.UUID, avatarKey string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET avatar_key = $2 WHERE id = $1`, id, avatarKey)
	return err
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.AvatarKey, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Friend requests ---

// CreateFriendRequest inserts a pending request from sender to receiver.
func (s *Store) CreateFriendRequest(ctx context.Context, sender, receiver uuid.UUID) (FriendRequest, error) {
	const q = `
		INSERT INTO friend_requests (sender_id, receiver_id)
		VALUES ($1, $2)
		RETURNING id, status, sender_id, receiver_id, created_at`

	var fr FriendRequest
	err := s.pool.QueryRow(ctx, q, sender, receiver).
		Scan(&fr.ID, &fr.Status, &fr.SenderID, &fr.ReceiverID, &fr.CreatedAt)
	return fr, err
}

// FriendRequestBetween returns an existing request between the two
// accounts in either direction.
func (s *Store) FriendRequestBetween(ctx context.Context, a, b uuid.UUID) (FriendRequest, error) {
	const q = `
		SELECT id, status, sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)`

	var fr FriendRequest
	err := s.pool.QueryRow(ctx, q, a, b).
		Scan(&fr.ID, &fr.Status, &fr.SenderID, &fr.ReceiverID, &fr.CreatedAt)
	return fr, err
}

// GetFriendRequest returns the request with the sender's display name.
func (s *Store) GetFriendRequest(ctx context.Context, id uuid.UUID) (FriendRequest, error) {
	const q = `
		SELECT fr.id, fr.status, fr.sender_id, fr.receiver_id, fr.created_at, u.name
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.id = $1`

	var fr FriendRequest
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&fr.ID, &fr.Status, &fr.SenderID, &fr.ReceiverID, &fr.CreatedAt, &fr.SenderName)
	return fr, err
}

// DeleteFriendRequest removes the request.
func (s *Store) DeleteFriendRequest(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, id)
	return err
}

// ListFriendRequestsForReceiver returns pending requests addressed to the
// account, newest first, joined with the sender's display name.
func (s *Store) ListFriendRequestsForReceiver(ctx context.Context, receiver uuid.UUID) ([]FriendRequest, error) {
	const q = `
		SELECT fr.id, fr.status, fr.sender_id, fr.receiver_id, fr.created_at, u.name
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.receiver_id = $1
		ORDER BY fr.created_at DESC`

	rows, err := s.pool.Query(ctx, q, receiver)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []FriendRequest
	for rows.Next() {
		var fr FriendRequest
		if err := rows.Scan(&fr.ID, &fr.Status, &fr.SenderID, &fr.ReceiverID, &fr.CreatedAt, &fr.SenderName); err != nil {
			return nil, err
		}
		requests = append(requests, fr)
	}
	return requests, rows.Err()
}

// --- Chats ---

// CreateChat inserts a chat and its member rows in one transaction.
func (s *Store) CreateChat(ctx context.Context, name string, isGroup bool, creator uuid.UUID, members []uuid.UUID) (Chat, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Chat{}, err
	}
	defer tx.Rollback(ctx)

	const insertChat = `
		INSERT INTO chats (name, is_group, creator_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, is_group, creator_id, created_at`

	var c Chat
	if err := tx.QueryRow(ctx, insertChat, name, isGroup, creator).
		Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatorID, &c.CreatedAt); err != nil {
		return Chat{}, err
	}

	const insertMember = `
		INSERT INTO chat_members (chat_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, member := range members {
		if _, err := tx.Exec(ctx, insertMember, c.ID, member); err != nil {
			return Chat{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Chat{}, err
	}
	return c, nil
}

// GetChat returns the chat row for id.
func (s *Store) GetChat(ctx context.Context, id uuid.UUID) (Chat, error) {
	const q = `
		SELECT id, name, is_group, creator_id, created_at
		FROM chats WHERE id = $1`

	var c Chat
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatorID, &c.CreatedAt)
	return c, err
}

// ChatMemberIDs returns the user ids belonging to the chat. This is the
// membership source the realtime gateway resolves audiences against.
func (s *Store) ChatMemberIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT user_id FROM chat_members WHERE chat_id = $1`

	rows, err := s.pool.Query(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ChatMembers returns the member projections for chat listings.
func (s *Store) ChatMembers(ctx context.Context, chatID uuid.UUID) ([]ChatMember, error) {
	const q = `
		SELECT u.id, u.name, u.avatar_key
		FROM chat_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.chat_id = $1
		ORDER BY cm.joined_at`

	rows, err := s.pool.Query(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []ChatMember
	for rows.Next() {
		var m ChatMember
		if err := rows.Scan(&m.ID, &m.Name, &m.AvatarKey); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// IsChatMember reports whether user belongs to the chat.
func (s *Store) IsChatMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM chat_members WHERE chat_id = $1 AND user_id = $2
		)`

	var ok bool
	err := s.pool.QueryRow(ctx, q, chatID, userID).Scan(&ok)
	return ok, err
}

// ListChatsForUser returns every chat the user belongs to, most recently
// created first.
func (s *Store) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	const q = `
		SELECT c.id, c.name, c.is_group, c.creator_id, c.created_at
		FROM chats c
		JOIN chat_members cm ON cm.chat_id = c.id
		WHERE cm.user_id = $1
		ORDER BY c.created_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChats(rows)
}

// ListGroupsCreatedBy returns the group chats the user administers.
func (s *Store) ListGroupsCreatedBy(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	const q = `
		SELECT id, name, is_group, creator_id, created_at
		FROM chats
		WHERE is_group AND creator_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChats(rows)
}

// ListAllChats returns every chat, newest first, for the admin listing.
func (s *Store) ListAllChats(ctx context.Context) ([]Chat, error) {
	const q = `
		SELECT id, name, is_group, creator_id, created_at
		FROM chats ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChats(rows)
}

func scanChats(rows pgx.Rows) ([]Chat, error) {
	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// FindPrivateChatBetween returns the 1:1 chat both users belong to.
func (s *Store) FindPrivateChatBetween(ctx context.Context, a, b uuid.UUID) (Chat, error) {
	const q = `
		SELECT c.id, c.name, c.is_group, c.creator_id, c.created_at
		FROM chats c
		WHERE NOT c.is_group
		  AND EXISTS (SELECT 1 FROM chat_members WHERE chat_id = c.id AND user_id = $1)
		  AND EXISTS (SELECT 1 FROM chat_members WHERE chat_id = c.id AND user_id = $2)
		LIMIT 1`

	var c Chat
	err := s.pool.QueryRow(ctx, q, a, b).
		Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatorID, &c.CreatedAt)
	return c, err
}

// AddChatMembers inserts the given users into the chat, ignoring ones
// already present.
func (s *Store) AddChatMembers(ctx context.Context, chatID uuid.UUID, userIDs []uuid.UUID) error {
	const q = `
		INSERT INTO chat_members (chat_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, id := range userIDs {
		if _, err := s.pool.Exec(ctx, q, chatID, id); err != nil {
			return fmt.Errorf("failed to add member %s: %w", id, err)
		}
	}
	return nil
}

// RemoveChatMember deletes one membership row.
func (s *Store) RemoveChatMember(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM chat_members WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	return err
}

// CountChatMembers returns the chat's current member count.
func (s *Store) CountChatMembers(ctx context.Context, chatID uuid.UUID) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chat_members WHERE chat_id = $1`, chatID).Scan(&n)
	return n, err
}

// UpdateChatCreator hands group administration to another member.
func (s *Store) UpdateChatCreator(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chats SET creator_id = $2 WHERE id = $1`, chatID, userID)
	return err
}

// RenameChat updates the chat's display name.
func (s *Store) RenameChat(ctx context.Context, chatID uuid.UUID, name string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chats SET name = $2 WHERE id = $1`, chatID, name)
	return err
}

// DeleteChat removes the chat; members and messages cascade.
func (s *Store) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	return err
}

// --- Messages ---

// CreateMessageParams carries the fields for a persisted message.
type CreateMessageParams struct {
	ChatID      uuid.UUID
	SenderID    uuid.UUID
	Content     string
	Attachments json.RawMessage
}

// CreateMessage inserts a message row.
func (s *Store) CreateMessage(ctx context.Context, p CreateMessageParams) (Message, error) {
	attachments := p.Attachments
	if len(attachments) == 0 {
		attachments = json.RawMessage(`[]`)
	}

	const q = `
		INSERT INTO messages (chat_id, sender_id, content, attachments)
		VALUES ($1, $2, $3, $4)
		RETURNING id, chat_id, sender_id, content, attachments, created_at`

	var m Message
	err := s.pool.QueryRow(ctx, q, p.ChatID, p.SenderID, p.Content, attachments).
		Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Attachments, &m.CreatedAt)
	return m, err
}

// ListMessages returns one page of the chat's history, newest first,
// joined with sender display names.
func (s *Store) ListMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]Message, error) {
	const q = `
		SELECT m.id, m.chat_id, m.sender_id, m.content, m.attachments, m.created_at, u.name
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, q, chatID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Attachments, &m.CreatedAt, &m.SenderName); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the number of messages in the chat.
func (s *Store) CountMessages(ctx context.Context, chatID uuid.UUID) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM messages WHERE chat_id = $1`, chatID).Scan(&n)
	return n, err
}

// ChatAttachmentKeys returns every stored attachment key referenced by
// the chat's messages, used for storage cleanup when a chat is deleted.
func (s *Store) ChatAttachmentKeys(ctx context.Context, chatID uuid.UUID) ([]string, error) {
	const q = `
		SELECT a->>'fileKey'
		FROM messages m, jsonb_array_elements(m.attachments) a
		WHERE m.chat_id = $1 AND a->>'fileKey' IS NOT NULL`

	rows, err := s.pool.Query(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// --- Admin ---

// DashboardStats aggregates the counters shown on the admin dashboard.
type DashboardStats struct {
	Users         int64 `json:"usersCount"`
	Chats         int64 `json:"totalChatsCount"`
	Groups        int64 `json:"groupsCount"`
	Messages      int64 `json:"messagesCount"`
	MessagesToday int64 `json:"messagesTodayCount"`
}

// GetDashboardStats collects the admin dashboard counters in one query.
func (s *Store) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	const q = `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM chats),
			(SELECT count(*) FROM chats WHERE is_group),
			(SELECT count(*) FROM messages),
			(SELECT count(*) FROM messages WHERE created_at >= now() - interval '24 hours')`

	var st DashboardStats
	err := s.pool.QueryRow(ctx, q).
		Scan(&st.Users, &st.Chats, &st.Groups, &st.Messages, &st.MessagesToday)
	return st, err
}
