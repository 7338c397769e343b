package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxxcsxnny/Groovz/internal/app/db"
	"github.com/stxxcsxnny/Groovz/internal/app/realtime"
	"github.com/stxxcsxnny/Groovz/internal/pkg/auth/jwt"
	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

// delivery captures one gateway fan-out for assertions.
type delivery struct {
	event    realtime.EventType
	audience []string
	payload  any
}

// fakeGateway records deliveries instead of queueing them on sockets.
type fakeGateway struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (f *fakeGateway) Deliver(eventType realtime.EventType, userIDs []string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{event: eventType, audience: userIDs, payload: payload})
}

func (f *fakeGateway) Connect(conn *websocket.Conn, userID, name string) *realtime.Client {
	return nil
}

func (f *fakeGateway) Presence() *realtime.PresenceSet {
	return realtime.NewPresenceSet()
}

// audienceOf returns the audience of the single delivery carrying the
// given event type.
func (f *fakeGateway) audienceOf(t *testing.T, eventType realtime.EventType) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var audience []string
	count := 0
	for _, d := range f.deliveries {
		if d.event == eventType {
			audience = d.audience
			count++
		}
	}
	require.Equalf(t, 1, count, "expected exactly one %s delivery", eventType)
	return audience
}

// fakeChatStore stubs the store methods the membership handlers hit.
// The embedded DataStore panics on anything unstubbed.
type fakeChatStore struct {
	DataStore

	chat        db.Chat
	users       map[uuid.UUID]db.User
	memberIDs   []uuid.UUID
	memberCount int64
	isMember    bool

	added   []uuid.UUID
	removed []uuid.UUID
}

func (s *fakeChatStore) GetChat(ctx context.Context, id uuid.UUID) (db.Chat, error) {
	return s.chat, nil
}

func (s *fakeChatStore) GetUserByID(ctx context.Context, id uuid.UUID) (db.User, error) {
	user, ok := s.users[id]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (s *fakeChatStore) IsChatMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	return s.isMember, nil
}

func (s *fakeChatStore) CountChatMembers(ctx context.Context, chatID uuid.UUID) (int64, error) {
	return s.memberCount, nil
}

func (s *fakeChatStore) AddChatMembers(ctx context.Context, chatID uuid.UUID, userIDs []uuid.UUID) error {
	s.added = append(s.added, userIDs...)
	return nil
}

func (s *fakeChatStore) RemoveChatMember(ctx context.Context, chatID, userID uuid.UUID) error {
	s.removed = append(s.removed, userID)
	return nil
}

func (s *fakeChatStore) ChatMemberIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error) {
	return s.memberIDs, nil
}

// chatRequest builds an authenticated request with chi URL parameters
// and an optional JSON body.
func chatRequest(method string, caller uuid.UUID, params map[string]string, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, "/", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, "/", nil)
	}

	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}

	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, jwt.ContextAuthPayloadKey, &jwt.Payload{
		UserID: caller.String(),
		Role:   jwt.RoleUser,
	})

	return r.WithContext(ctx)
}

func TestAddMembersRefetchReachesWholeGroup(t *testing.T) {
	creator := uuid.New()
	newbie := uuid.New()
	all := []uuid.UUID{creator, uuid.New(), uuid.New(), newbie}

	store := &fakeChatStore{
		chat:        db.Chat{ID: uuid.New(), Name: "hiking", IsGroup: true, CreatorID: creator},
		users:       map[uuid.UUID]db.User{newbie: {ID: newbie, Name: "Dana"}},
		memberIDs:   all,
		memberCount: 3,
	}
	gateway := &fakeGateway{}
	deps := &AppDeps{Gateway: gateway, DB: store}

	r := chatRequest(http.MethodPut, creator,
		map[string]string{"chatID": store.chat.ID.String()},
		`{"members":["`+newbie.String()+`"]}`)
	w := httptest.NewRecorder()
	HandleAddMembers(deps)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{newbie}, store.added)

	// Existing members refresh their chat lists too, not only the new
	// member.
	assert.ElementsMatch(t, memberStrings(all), gateway.audienceOf(t, realtime.EventAlert))
	assert.ElementsMatch(t, memberStrings(all), gateway.audienceOf(t, realtime.EventRefetchChats))
}

func TestRemoveMemberRefetchIncludesRemovedUser(t *testing.T) {
	creator := uuid.New()
	target := uuid.New()
	remaining := []uuid.UUID{creator, uuid.New(), uuid.New()}

	store := &fakeChatStore{
		chat:        db.Chat{ID: uuid.New(), Name: "hiking", IsGroup: true, CreatorID: creator},
		users:       map[uuid.UUID]db.User{target: {ID: target, Name: "Dana"}},
		memberIDs:   remaining,
		memberCount: 4,
	}
	gateway := &fakeGateway{}
	deps := &AppDeps{Gateway: gateway, DB: store}

	r := chatRequest(http.MethodDelete, creator, map[string]string{
		"chatID": store.chat.ID.String(),
		"userID": target.String(),
	}, "")
	w := httptest.NewRecorder()
	HandleRemoveMember(deps)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{target}, store.removed)

	// The alert goes to the remaining members; the refetch also reaches
	// the removed user so the chat drops off their list.
	assert.ElementsMatch(t, memberStrings(remaining), gateway.audienceOf(t, realtime.EventAlert))
	assert.ElementsMatch(t, append(memberStrings(remaining), target.String()),
		gateway.audienceOf(t, realtime.EventRefetchChats))
}

func TestLeaveGroupRemainingMembersRefetch(t *testing.T) {
	creator := uuid.New()
	leaver := uuid.New()
	remaining := []uuid.UUID{creator, uuid.New(), uuid.New()}

	store := &fakeChatStore{
		chat:      db.Chat{ID: uuid.New(), Name: "hiking", IsGroup: true, CreatorID: creator},
		users:     map[uuid.UUID]db.User{leaver: {ID: leaver, Name: "Dana"}},
		memberIDs: remaining,
		isMember:  true,
	}
	gateway := &fakeGateway{}
	deps := &AppDeps{Gateway: gateway, DB: store}

	r := chatRequest(http.MethodDelete, leaver,
		map[string]string{"chatID": store.chat.ID.String()}, "")
	w := httptest.NewRecorder()
	HandleLeaveGroup(deps)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{leaver}, store.removed)

	// Remaining members get the alert and refresh their chat lists.
	assert.ElementsMatch(t, memberStrings(remaining), gateway.audienceOf(t, realtime.EventAlert))
	assert.ElementsMatch(t, memberStrings(remaining), gateway.audienceOf(t, realtime.EventRefetchChats))
}

func TestAttachmentContentCapIsByteSized(t *testing.T) {
	member := uuid.New()
	store := &fakeChatStore{
		chat:     db.Chat{ID: uuid.New(), IsGroup: true, CreatorID: member},
		isMember: true,
	}
	gateway := &fakeGateway{}
	deps := &AppDeps{Gateway: gateway, DB: store}

	// Two-byte runes: under the cap by rune count, over it by bytes. The
	// cap counts bytes on every ingress path.
	content := strings.Repeat("é", realtime.MaxContentBytes/2+1)
	body, err := json.Marshal(map[string]any{
		"keys":    []string{store.chat.ID.String() + "/upload"},
		"content": content,
	})
	require.NoError(t, err)

	r := chatRequest(http.MethodPost, member,
		map[string]string{"chatID": store.chat.ID.String()}, string(body))
	w := httptest.NewRecorder()
	HandleSendAttachments(deps)(w, r)

	var envelope resp.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, errs.ErrMessageContentTooLong, envelope.Code)
	assert.Empty(t, gateway.deliveries)
}
