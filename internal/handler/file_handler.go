package handler

import (
	"net/http"
	"strings"

	"hubchat/internal/app/storage"
	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/req"
	"hubchat/internal/pkg/resp"
)

// PresignAttachmentInput defines the JSON input structure for generating an upload URL.
type PresignAttachmentInput struct {
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignAttachment validates a message attachment upload and returns a
// time-limited pre-signed PUT URL plus the object key to reference in the
// message.
func HandlePresignAttachment(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignAttachmentInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key, customErr := storage.AttachmentKey(identity.ID, input.MimeType, input.FileSize)
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

// HandlePresignDownload redirects to a time-limited pre-signed GET URL for an
// avatar or attachment key.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		// Keys are namespaced under known prefixes; anything else is not ours.
		if !strings.HasPrefix(fileKey, "avatars/") && !strings.HasPrefix(fileKey, "attachments/") {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), fileKey, presignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
