/*
Package handler provides HTTP handler functions for account registration,
login, profile access, and avatar management.
*/
package handler

import (
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stxxcsxnny/Groovz/internal/app/db"
	"github.com/stxxcsxnny/Groovz/internal/pkg/auth/jwt"
	"github.com/stxxcsxnny/Groovz/internal/pkg/errs"
	"github.com/stxxcsxnny/Groovz/internal/pkg/logx"
	"github.com/stxxcsxnny/Groovz/internal/pkg/req"
	"github.com/stxxcsxnny/Groovz/internal/pkg/resp"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_]{4,20}$`)
)

// currentUserID resolves the authenticated account id. RequireAuth runs
// first on these routes, so a failure here means a token minted for a
// non-uuid subject.
func currentUserID(r *http.Request) (uuid.UUID, *errs.CustomError) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return uuid.Nil, errs.NewError(errs.ErrUnauthorized)
	}

	id, err := uuid.Parse(payload.UserID)
	if err != nil {
		return uuid.Nil, errs.NewError(errs.ErrUnauthorized)
	}

	return id, nil
}

// setAuthCookie writes the given token as an HTTP-only cookie. Secure and
// SameSite=None outside development so the browser client can run on a
// different origin.
func setAuthCookie(w http.ResponseWriter, deps *AppDeps, name, token string, maxAge int) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	}

	if deps.Config.Environment != "development" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, cookie)
}

type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// HandleRegister creates a new account and logs it in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" {
			name = input.Username
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		user, err := deps.DB.CreateUser(r.Context(), db.CreateUserParams{
			Name:         name,
			Username:     input.Username,
			PasswordHash: string(hashedPassword),
			Email:        strings.TrimSpace(input.Email),
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		token, err := jwt.GenerateToken(&jwt.Payload{
			UserID: user.ID.String(),
			Role:   jwt.RoleUser,
		}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		setAuthCookie(w, deps, jwt.SessionCookieName, token, int(jwt.SessionExpiration.Seconds()))

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user":  user,
		})
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues the session cookie.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.DB.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			logx.Warn("login: user fetch failed", "username", input.Username, "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		token, err := jwt.GenerateToken(&jwt.Payload{
			UserID: user.ID.String(),
			Role:   jwt.RoleUser,
		}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		setAuthCookie(w, deps, jwt.SessionCookieName, token, int(jwt.SessionExpiration.Seconds()))

		user.PasswordHash = ""
		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user":  user,
		})
	}
}

// HandleLogout clears the session cookie. Stateless tokens cannot be
// revoked, so logout is purely a cookie operation.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setAuthCookie(w, deps, jwt.SessionCookieName, "", -1)
		resp.RespondSuccess(w, r, map[string]string{"message": "logged out"})
	}
}

// HandleGetProfile returns the authenticated user's account, with a
// presigned avatar URL when one is stored.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.DB.GetUserByID(r.Context(), userID)
		if err != nil {
			logx.Warn("profile: user not found", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		avatarURL := ""
		if user.AvatarKey != "" {
			avatarURL, err = deps.StorageService.PresignDownload(r.Context(), user.AvatarKey, presignDownloadTTL)
			if err != nil {
				logx.Error(err, "profile: avatar presign failed", "user_id", userID)
				avatarURL = ""
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user":      user,
			"avatarUrl": avatarURL,
		})
	}
}

// HandleSearchUsers finds accounts by partial username or email. The
// caller's own account is excluded from the results.
func HandleSearchUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("name"))
		if query == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		users, err := deps.DB.SearchUsers(r.Context(), query)
		if err != nil {
			logx.Error(err, "user search failed", "query", query)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		results := make([]db.User, 0, len(users))
		for _, u := range users {
			if u.ID != userID {
				results = append(results, u)
			}
		}

		resp.RespondSuccess(w, r, map[string]any{"users": results})
	}
}

// HandleUploadAvatar receives an avatar as multipart form data, streams
// it to the object store, and records the new key on the account.
func HandleUploadAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := currentUserID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("avatar")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnsupportedMediaType))
			return
		}

		key := "avatars/" + userID.String()
		if err := deps.StorageService.Upload(r.Context(), key, mimeType, file); err != nil {
			logx.Error(err, "avatar upload failed", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		if err := deps.DB.UpdateUserAvatar(r.Context(), userID, key); err != nil {
			logx.Error(err, "avatar key update failed", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		avatarURL, err := deps.StorageService.PresignDownload(r.Context(), key, presignDownloadTTL)
		if err != nil {
			logx.Error(err, "avatar presign failed", "user_id", userID)
			avatarURL = ""
		}

		resp.RespondSuccess(w, r, map[string]any{
			"avatarKey": key,
			"avatarUrl": avatarURL,
		})
	}
}
