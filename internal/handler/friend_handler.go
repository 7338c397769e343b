/*
Package handler provides HTTP handler functions for the social graph:
friend requests, notifications, and the friends list.
*/
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stxxcsxnny/Groovz/internal/app/db"
	"github.com/stxxcsxnny/Groovz/internal/app/realtime"
	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/req"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

type SendRequestInput struct {
	UserID string `json:"userId"`
}

// HandleSendFriendRequest records a pending friend request and notifies
// the receiver's live connections.
func HandleSendFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input SendRequestInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		receiverID, err := uuid.Parse(input.UserID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if receiverID == senderID {
			resp.RespondError(w, r, errs.NewError(errs.ErrRequestToSelf))
			return
		}

		if _, err := deps.DB.GetUserByID(r.Context(), receiverID); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		if _, err := deps.DB.FriendRequestBetween(r.Context(), senderID, receiverID); err == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrRequestAlreadyExists))
			return
		} else if !db.IsNotFound(err) {
			logx.Error(err, "friend request lookup failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		request, err := deps.DB.CreateFriendRequest(r.Context(), senderID, receiverID)
		if err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRequestAlreadyExists))
				return
			}

			logx.Error(err, "friend request insert failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Deliver(realtime.EventNewRequest, []string{receiverID.String()}, nil)

		resp.RespondSuccess(w, r, map[string]any{"request": request})
	}
}

type AnswerRequestInput struct {
	RequestID string `json:"requestId"`
	Accept    bool   `json:"accept"`
}

// HandleAnswerFriendRequest accepts or rejects a pending request. Accept
// creates the private chat between the pair unless one already exists,
// and tells both sides to refetch their chat lists.
func HandleAnswerFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input AnswerRequestInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		requestID, err := uuid.Parse(input.RequestID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		request, err := deps.DB.GetFriendRequest(r.Context(), requestID)
		if err != nil {
			if db.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRequestNotFound))
				return
			}

			logx.Error(err, "friend request fetch failed", "request_id", requestID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if request.ReceiverID != userID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotRequestReceiver))
			return
		}

		if err := deps.DB.DeleteFriendRequest(r.Context(), requestID); err != nil {
			logx.Error(err, "friend request delete failed", "request_id", requestID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if !input.Accept {
			resp.RespondSuccess(w, r, map[string]string{"message": "request rejected"})
			return
		}

		// Accepting twice, or befriending someone you already share a
		// private chat with, must not create a second chat.
		if _, err := deps.DB.FindPrivateChatBetween(r.Context(), request.SenderID, request.ReceiverID); err == nil {
			resp.RespondSuccess(w, r, map[string]string{"message": "request accepted"})
			return
		} else if !db.IsNotFound(err) {
			logx.Error(err, "private chat lookup failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		members := []uuid.UUID{request.SenderID, request.ReceiverID}
		chat, err := deps.DB.CreateChat(r.Context(), "", false, request.ReceiverID, members)
		if err != nil {
			logx.Error(err, "private chat create failed", "request_id", requestID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Deliver(realtime.EventRefetchChats, memberStrings(members), nil)

		resp.RespondSuccess(w, r, map[string]any{
			"message": "request accepted",
			"chat":    chat,
		})
	}
}

// HandleListNotifications returns the caller's pending incoming friend
// requests, joined with sender names.
func HandleListNotifications(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		requests, err := deps.DB.ListFriendRequestsForReceiver(r.Context(), userID)
		if err != nil {
			logx.Error(err, "notifications fetch failed", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"requests": requests})
	}
}

// HandleListFriends returns the users the caller shares a private chat
// with. An optional chatId query parameter excludes users who are
// already members of that chat, which feeds the add-members picker.
func HandleListFriends(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		chats, err := deps.DB.ListChatsForUser(r.Context(), userID)
		if err != nil {
			logx.Error(err, "friends list fetch failed", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		exclude := make(map[uuid.UUID]struct{})
		if chatIDStr := r.URL.Query().Get("chatId"); chatIDStr != "" {
			chatID, err := uuid.Parse(chatIDStr)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}

			memberIDs, err := deps.DB.ChatMemberIDs(r.Context(), chatID)
			if err != nil {
				logx.Error(err, "chat member fetch failed", "chat_id", chatID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			for _, id := range memberIDs {
				exclude[id] = struct{}{}
			}
		}

		seen := make(map[uuid.UUID]struct{})
		friends := make([]db.ChatMember, 0)

		for _, chat := range chats {
			if chat.IsGroup {
				continue
			}

			members, err := deps.DB.ChatMembers(r.Context(), chat.ID)
			if err != nil {
				logx.Error(err, "chat member fetch failed", "chat_id", chat.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}

			for _, m := range members {
				if m.ID == userID {
					continue
				}
				if _, ok := exclude[m.ID]; ok {
					continue
				}
				if _, ok := seen[m.ID]; ok {
					continue
				}
				seen[m.ID] = struct{}{}
				friends = append(friends, m)
			}
		}

		resp.RespondSuccess(w, r, map[string]any{"friends": friends})
	}
}

// memberStrings converts member uuids into the string ids the gateway
// resolves against.
func memberStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
