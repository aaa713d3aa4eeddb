/*
Package handler provides HTTP handler functions for user profiles and presence.
*/
package handler

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"hubchat/internal/app/realtime"
	"hubchat/internal/app/storage"
	"hubchat/internal/app/store"
	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/req"
	"hubchat/internal/pkg/resp"
)

// presignedURLDuration is how long generated upload and download URLs stay valid.
const presignedURLDuration = 15 * time.Minute

// userView shapes one user row for API responses. The password hash never
// leaves the store layer through this path.
func userView(u store.User, lastLoginOverride string) map[string]any {
	var lastLogin any
	if lastLoginOverride != "" {
		lastLogin = lastLoginOverride
	} else if u.LastLoginAt != nil {
		lastLogin = u.LastLoginAt.Format(time.RFC3339)
	}

	return map[string]any{
		"id":            u.ID,
		"username":      u.Username,
		"nickname":      u.Nickname,
		"avatar":        u.AvatarURL,
		"status":        u.Status,
		"statusMessage": u.StatusMessage,
		"lastLoginAt":   lastLogin,
	}
}

// publicStatus masks invisible as offline for everyone but the user themselves.
func publicStatus(status, statusMessage string) (string, string) {
	if status == string(realtime.StatusInvisible) {
		return string(realtime.StatusOffline), ""
	}
	return status, statusMessage
}

// HandleGetProfile returns the authenticated user's own profile, including the
// true presence status (invisible stays invisible to its owner).
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		user, err := deps.Store.GetUserByID(r.Context(), identity.ID)
		if err != nil {
			logx.Warn("get_profile: user not found", "id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": userView(user, "")})
	}
}

// HandleGetUser returns another user's public profile with presence masking
// applied.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		userID := chi.URLParam(r, "userID")
		user, err := deps.Store.GetUserByID(r.Context(), userID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		view := userView(user, "")
		if user.ID != identity.ID {
			view["status"], view["statusMessage"] = publicStatus(user.Status, user.StatusMessage)
			delete(view, "lastLoginAt")
		}

		resp.RespondSuccess(w, r, map[string]any{"user": view})
	}
}

type UpdateProfileInput struct {
	Nickname  string `json:"nickname"`
	AvatarKey string `json:"avatarKey"`
}

// HandleUpdateProfile changes the user's nickname and avatar.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		nickname := strings.TrimSpace(input.Nickname)
		if n := utf8.RuneCountInString(nickname); n < 1 || n > 30 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		user, err := deps.Store.UpdateUserProfile(r.Context(), identity.ID, nickname, input.AvatarKey)
		if err != nil {
			logx.Error(err, "failed to update profile", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": userView(user, "")})
	}
}

type SetStatusInput struct {
	Status        string `json:"status"`
	StatusMessage string `json:"statusMessage"`
}

// HandleSetStatus applies an explicit presence change through the tracker; the
// tracker's announcer persists the change and notifies the user's friends.
func HandleSetStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input SetStatusInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		status, ok := realtime.ParseStatus(input.Status)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := deps.Gateway.Presence().SetStatus(identity.ID, status, input.StatusMessage); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"status":        string(status),
			"statusMessage": input.StatusMessage,
		})
	}
}

type PresignAvatarInput struct {
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignAvatar validates the upload and returns a pre-signed PUT URL
// for the user's new avatar.
func HandlePresignAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignAvatarInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key, customErr := storage.AvatarKey(identity.ID, input.MimeType, input.FileSize)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		url, err := deps.Storage.PresignUpload(r.Context(), key, input.MimeType, input.FileSize, presignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      key,
		})
	}
}

// HandleUploadAvatar accepts a multipart avatar upload and streams it to
// storage through the server. Clients that can do the two-step presigned flow
// should prefer it; this path exists for the ones that cannot.
func HandleUploadAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFormParseFailed))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")

		key, customErr := storage.AvatarKey(identity.ID, mimeType, header.Size)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Storage.Upload(r.Context(), key, mimeType, file); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		user, err := deps.Store.GetUserByID(r.Context(), identity.ID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		updated, err := deps.Store.UpdateUserProfile(r.Context(), identity.ID, user.Nickname, key)
		if err != nil {
			logx.Error(err, "Failed to save avatar key.", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, userView(updated, ""))
	}
}
