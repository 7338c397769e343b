/*
Package handler provides HTTP handler functions for chat management:
group lifecycle, membership, message history, and attachment messages.
*/
package handler

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stxxcsxnny/Groovz/internal/app/db"
	"github.com/stxxcsxnny/Groovz/internal/app/realtime"
	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/randx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/req"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

const (
	// MaxGroupMembers caps group chat size.
	MaxGroupMembers = 100

	// MaxAttachmentsPerMessage caps attachments on a single message.
	MaxAttachmentsPerMessage = 5

	// MessagePageSize is the page size for message history.
	MessagePageSize = 20

	presignUploadTTL   = 15 * time.Minute
	presignDownloadTTL = 7 * 24 * time.Hour

	storageCleanupTimeout = 30 * time.Second
)

// ChatView is the chat listing projection: the chat row plus its member
// projections.
type ChatView struct {
	db.Chat
	Members []db.ChatMember `json:"members"`
}

// chatFromRequest resolves the chatID URL parameter and the caller's
// identity, and loads the chat row.
func chatFromRequest(deps *AppDeps, r *http.Request) (db.Chat, uuid.UUID, *errs.CustomError) {
	userID, customErr := currentUserID(r)
	if customErr != nil {
		return db.Chat{}, uuid.Nil, customErr
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		return db.Chat{}, uuid.Nil, errs.NewError(errs.ErrInvalidParams)
	}

	chat, err := deps.DB.GetChat(r.Context(), chatID)
	if err != nil {
		if db.IsNotFound(err) {
			return db.Chat{}, uuid.Nil, errs.NewError(errs.ErrChatNotFound)
		}

		logx.Error(err, "chat fetch failed", "chat_id", chatID)
		return db.Chat{}, uuid.Nil, errs.NewError(errs.ErrUnknown)
	}

	return chat, userID, nil
}

// requireChatMember verifies the caller belongs to the chat.
func requireChatMember(deps *AppDeps, r *http.Request, chatID, userID uuid.UUID) *errs.CustomError {
	member, err := deps.DB.IsChatMember(r.Context(), chatID, userID)
	if err != nil {
		logx.Error(err, "chat membership check failed", "chat_id", chatID)
		return errs.NewError(errs.ErrUnknown)
	}
	if !member {
		return errs.NewError(errs.ErrNotChatMember)
	}
	return nil
}

type CreateGroupInput struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// HandleCreateGroupChat creates a group with the caller plus at least two
// other members, greets the group, and tells the other members to
// refetch their chat lists.
func HandleCreateGroupChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input CreateGroupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		others := make([]uuid.UUID, 0, len(input.Members))
		seen := map[uuid.UUID]struct{}{creatorID: {}}
		for _, idStr := range input.Members {
			id, err := uuid.Parse(idStr)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			others = append(others, id)
		}

		if len(others) < 2 {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupTooSmall))
			return
		}
		if len(others)+1 > MaxGroupMembers {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupTooLarge, MaxGroupMembers))
			return
		}

		allMembers := append([]uuid.UUID{creatorID}, others...)
		chat, err := deps.DB.CreateChat(r.Context(), name, true, creatorID, allMembers)
		if err != nil {
			logx.Error(err, "group create failed", "name", name)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Deliver(realtime.EventAlert, memberStrings(allMembers), "Welcome to "+name+" group")
		deps.Gateway.Deliver(realtime.EventRefetchChats, memberStrings(others), nil)

		resp.RespondSuccess(w, r, map[string]any{"chat": chat})
	}
}

// HandleListMyChats returns every chat the caller belongs to, each with
// its member projections.
func HandleListMyChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		chats, err := deps.DB.ListChatsForUser(r.Context(), userID)
		if err != nil {
			logx.Error(err, "chat list fetch failed", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]ChatView, 0, len(chats))
		for _, chat := range chats {
			members, err := deps.DB.ChatMembers(r.Context(), chat.ID)
			if err != nil {
				logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			views = append(views, ChatView{Chat: chat, Members: members})
		}

		resp.RespondSuccess(w, r, map[string]any{"chats": views})
	}
}

// HandleListMyGroups returns the groups the caller created.
func HandleListMyGroups(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		groups, err := deps.DB.ListGroupsCreatedBy(r.Context(), userID)
		if err != nil {
			logx.Error(err, "group list fetch failed", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"groups": groups})
	}
}

// HandleGetChatDetails returns one chat with its members, members only.
func HandleGetChatDetails(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := requireChatMember(deps, r, chat.ID, userID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		members, err := deps.DB.ChatMembers(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"chat": ChatView{Chat: chat, Members: members}})
	}
}

type AddMembersInput struct {
	Members []string `json:"members"`
}

// HandleAddMembers adds users to a group, creator only. The whole group
// is alerted with the new member names and told to refetch its chat
// lists, new members included.
func HandleAddMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !chat.IsGroup {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupChat))
			return
		}
		if chat.CreatorID != userID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotChatCreator))
			return
		}

		var input AddMembersInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if len(input.Members) == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		newIDs := make([]uuid.UUID, 0, len(input.Members))
		newNames := make([]string, 0, len(input.Members))
		for _, idStr := range input.Members {
			id, err := uuid.Parse(idStr)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}

			user, err := deps.DB.GetUserByID(r.Context(), id)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}

			newIDs = append(newIDs, id)
			newNames = append(newNames, user.Name)
		}

		count, err := deps.DB.CountChatMembers(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member count failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if count+int64(len(newIDs)) > MaxGroupMembers {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupTooLarge, MaxGroupMembers))
			return
		}

		if err := deps.DB.AddChatMembers(r.Context(), chat.ID, newIDs); err != nil {
			logx.Error(err, "add members failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		memberIDs, err := deps.DB.ChatMemberIDs(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Deliver(realtime.EventAlert, memberStrings(memberIDs),
			strings.Join(newNames, ", ")+" has been added in the group")
		deps.Gateway.Deliver(realtime.EventRefetchChats, memberStrings(memberIDs), nil)

		resp.RespondSuccess(w, r, map[string]string{"message": "members added"})
	}
}

// HandleRemoveMember removes one user from a group, creator only. A
// group never shrinks below three members this way.
func HandleRemoveMember(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !chat.IsGroup {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupChat))
			return
		}
		if chat.CreatorID != userID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotChatCreator))
			return
		}

		removeID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		removed, err := deps.DB.GetUserByID(r.Context(), removeID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		count, err := deps.DB.CountChatMembers(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member count failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if count <= 3 {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupTooSmall))
			return
		}

		if err := deps.DB.RemoveChatMember(r.Context(), chat.ID, removeID); err != nil {
			logx.Error(err, "remove member failed", "chat_id", chat.ID, "user_id", removeID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		memberIDs, err := deps.DB.ChatMemberIDs(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		// The removed user refetches too, so the chat drops off their list.
		deps.Gateway.Deliver(realtime.EventAlert, memberStrings(memberIDs),
			removed.Name+" has been removed from the group")
		deps.Gateway.Deliver(realtime.EventRefetchChats,
			append(memberStrings(memberIDs), removeID.String()), nil)

		resp.RespondSuccess(w, r, map[string]string{"message": "member removed"})
	}
}

// HandleLeaveGroup removes the caller from a group. When the creator
// leaves, a random remaining member inherits the group; when the last
// member leaves, the group is deleted.
func HandleLeaveGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !chat.IsGroup {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupChat))
			return
		}

		if customErr := requireChatMember(deps, r, chat.ID, userID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.DB.RemoveChatMember(r.Context(), chat.ID, userID); err != nil {
			logx.Error(err, "leave group failed", "chat_id", chat.ID, "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		remaining, err := deps.DB.ChatMemberIDs(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if len(remaining) == 0 {
			if err := deps.DB.DeleteChat(r.Context(), chat.ID); err != nil {
				logx.Error(err, "empty group delete failed", "chat_id", chat.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			resp.RespondSuccess(w, r, map[string]string{"message": "group deleted"})
			return
		}

		if chat.CreatorID == userID {
			newCreator := remaining[rand.Intn(len(remaining))]
			if err := deps.DB.UpdateChatCreator(r.Context(), chat.ID, newCreator); err != nil {
				logx.Error(err, "creator hand-off failed", "chat_id", chat.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
		}

		leaver, err := deps.DB.GetUserByID(r.Context(), userID)
		leaverName := "A member"
		if err == nil {
			leaverName = leaver.Name
		}

		deps.Gateway.Deliver(realtime.EventAlert, memberStrings(remaining),
			"User "+leaverName+" has left the group")
		deps.Gateway.Deliver(realtime.EventRefetchChats, memberStrings(remaining), nil)

		resp.RespondSuccess(w, r, map[string]string{"message": "group left"})
	}
}

type RenameGroupInput struct {
	Name string `json:"name"`
}

// HandleRenameGroup renames a group, creator only.
func HandleRenameGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !chat.IsGroup {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupChat))
			return
		}
		if chat.CreatorID != userID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotChatCreator))
			return
		}

		var input RenameGroupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.DB.RenameChat(r.Context(), chat.ID, name); err != nil {
			logx.Error(err, "group rename failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		memberIDs, err := deps.DB.ChatMemberIDs(r.Context(), chat.ID)
		if err == nil {
			deps.Gateway.Deliver(realtime.EventRefetchChats, memberStrings(memberIDs), nil)
		}

		resp.RespondSuccess(w, r, map[string]string{"message": "group renamed"})
	}
}

// HandleDeleteChat deletes a chat with its messages and stored
// attachments. Groups may only be deleted by their creator; private
// chats by either member.
func HandleDeleteChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if chat.IsGroup {
			if chat.CreatorID != userID {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotChatCreator))
				return
			}
		} else {
			if customErr := requireChatMember(deps, r, chat.ID, userID); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
		}

		memberIDs, err := deps.DB.ChatMemberIDs(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		attachmentKeys, err := deps.DB.ChatAttachmentKeys(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "attachment key fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.DB.DeleteChat(r.Context(), chat.ID); err != nil {
			logx.Error(err, "chat delete failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		// Blob cleanup runs detached; a failed delete leaves an orphaned
		// object, never a failed request.
		if len(attachmentKeys) > 0 {
			go func(keys []string) {
				ctx, cancel := context.WithTimeout(context.Background(), storageCleanupTimeout)
				defer cancel()

				for _, key := range keys {
					if err := deps.StorageService.Delete(ctx, key); err != nil {
						logx.Error(err, "attachment cleanup failed", "key", key)
					}
				}
			}(attachmentKeys)
		}

		deps.Gateway.Deliver(realtime.EventRefetchChats, memberStrings(memberIDs), nil)

		resp.RespondSuccess(w, r, map[string]string{"message": "chat deleted"})
	}
}

// HandleListMessages returns one page of the chat's history, members
// only. Pages are 1-based and newest first.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := requireChatMember(deps, r, chat.ID, userID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		page := 1
		if pageStr := r.URL.Query().Get("page"); pageStr != "" {
			parsed, err := strconv.Atoi(pageStr)
			if err != nil || parsed < 1 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			page = parsed
		}

		messages, err := deps.DB.ListMessages(r.Context(), chat.ID, MessagePageSize, (page-1)*MessagePageSize)
		if err != nil {
			logx.Error(err, "message page fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		total, err := deps.DB.CountMessages(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "message count failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		totalPages := (total + MessagePageSize - 1) / MessagePageSize

		resp.RespondSuccess(w, r, map[string]any{
			"messages":   messages,
			"totalPages": totalPages,
		})
	}
}

type PresignAttachmentInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignAttachment issues a presigned upload URL for one
// attachment. The object key is prefixed with the chat id so a later
// send can verify the attachment belongs to this chat.
func HandlePresignAttachment(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := requireChatMember(deps, r, chat.ID, userID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input PresignAttachmentInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.MimeType == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if input.FileSize <= 0 || input.FileSize > req.MaxRequestFileSize {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileSizeTooLarge))
			return
		}

		objectKey, err := randx.ObjectKey()
		if err != nil {
			logx.Error(err, "object key generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		key := chat.ID.String() + "/" + objectKey
		uploadURL, err := deps.StorageService.PresignUpload(r.Context(), key, input.MimeType, input.FileSize, presignUploadTTL)
		if err != nil {
			logx.Error(err, "presign upload failed", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"key":       key,
			"uploadUrl": uploadURL,
		})
	}
}

// attachmentRecord is the descriptor persisted on the message row. The
// fileKey field feeds attachment cleanup when the chat is deleted.
type attachmentRecord struct {
	FileKey  string `json:"fileKey"`
	FileName string `json:"fileName,omitempty"`
	URL      string `json:"url"`
}

type SendAttachmentsInput struct {
	Keys    []string `json:"keys"`
	Names   []string `json:"names"`
	Content string   `json:"content"`
}

// HandleSendAttachments records a message carrying previously uploaded
// attachments, then fans it out to the chat's live members the same way
// a plain socket message flows.
func HandleSendAttachments(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, userID, customErr := chatFromRequest(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := requireChatMember(deps, r, chat.ID, userID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input SendAttachmentsInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if len(input.Keys) == 0 || len(input.Keys) > MaxAttachmentsPerMessage {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentCountInvalid, MaxAttachmentsPerMessage))
			return
		}
		if len(input.Content) > realtime.MaxContentBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		prefix := chat.ID.String() + "/"
		attachments := make([]attachmentRecord, 0, len(input.Keys))
		for i, key := range input.Keys {
			suffix, ok := strings.CutPrefix(key, prefix)
			if !ok || !randx.IsValidObjectKey(suffix) {
				resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentKeyInvalid))
				return
			}

			url, err := deps.StorageService.PresignDownload(r.Context(), key, presignDownloadTTL)
			if err != nil {
				logx.Error(err, "presign download failed", "key", key)
				resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
				return
			}

			record := attachmentRecord{FileKey: key, URL: url}
			if i < len(input.Names) {
				record.FileName = input.Names[i]
			}
			attachments = append(attachments, record)
		}

		rawAttachments, err := json.Marshal(attachments)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		message, err := deps.DB.CreateMessage(r.Context(), db.CreateMessageParams{
			ChatID:      chat.ID,
			SenderID:    userID,
			Content:     input.Content,
			Attachments: rawAttachments,
		})
		if err != nil {
			logx.Error(err, "attachment message insert failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		sender, err := deps.DB.GetUserByID(r.Context(), userID)
		senderName := ""
		if err == nil {
			senderName = sender.Name
		}

		memberIDs, err := deps.DB.ChatMemberIDs(r.Context(), chat.ID)
		if err != nil {
			logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		audience := memberStrings(memberIDs)
		deps.Gateway.Deliver(realtime.EventNewMessageInSocket, audience, realtime.NewMessagePayload{
			ChatID: chat.ID.String(),
			Message: realtime.WireMessage{
				ID:      message.ID.String(),
				Content: message.Content,
				Sender: realtime.MessageSender{
					ID:   userID.String(),
					Name: senderName,
				},
				ChatID:      chat.ID.String(),
				Attachments: message.Attachments,
				CreatedAt:   message.CreatedAt.UTC().Format(time.RFC3339),
			},
		})
		deps.Gateway.Deliver(realtime.EventNewMessage, audience, realtime.MessageNotifyPayload{
			ChatID:   chat.ID.String(),
			SenderID: userID.String(),
		})

		resp.RespondSuccess(w, r, map[string]any{"message": message})
	}
}
