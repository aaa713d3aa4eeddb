/*
Package handler provides HTTP handler functions for channel and direct messages.

Message writes go to PostgreSQL first; only after the write succeeds is the
corresponding event published to live connections. A recipient with no live
connection simply misses the event and catches up through the history endpoints.
*/
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"hubchat/internal/app/realtime"
	"hubchat/internal/app/store"
	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/req"
	"hubchat/internal/pkg/resp"
)

const (
	maxMessageContentLength = 4000
	defaultHistoryLimit     = 50
	maxHistoryLimit         = 100
)

func messageView(m store.Message) map[string]any {
	view := map[string]any{
		"id":        m.ID,
		"senderId":  m.SenderID,
		"content":   m.Content,
		"createdAt": m.CreatedAt.Format(time.RFC3339),
	}
	if m.ChannelID != nil {
		view["channelId"] = *m.ChannelID
	}
	if m.RecipientID != nil {
		view["recipientId"] = *m.RecipientID
	}
	if m.AttachmentURL != "" {
		view["attachment"] = m.AttachmentURL
	}
	if m.ReplyTo != nil {
		view["replyTo"] = *m.ReplyTo
	}
	if m.EditedAt != nil {
		view["editedAt"] = m.EditedAt.Format(time.RFC3339)
	}
	if m.DeletedAt != nil {
		view["deleted"] = true
	}
	return view
}

// historyWindow parses the before/limit query parameters for history paging.
func historyWindow(r *http.Request) (time.Time, int) {
	before := time.Now().Add(time.Second)
	if raw := r.URL.Query().Get("before"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			before = t
		}
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxHistoryLimit {
			limit = n
		}
	}

	return before, limit
}

func validateContent(content string, attachment string) *errs.CustomError {
	if content == "" && attachment == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if utf8.RuneCountInString(content) > maxMessageContentLength {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}
	return nil
}

type SendMessageInput struct {
	Content       string  `json:"content"`
	AttachmentKey string  `json:"attachmentKey"`
	ReplyTo       *string `json:"replyTo"`
}

// HandleSendChannelMessage stores a message in a channel the caller belongs to
// and fans it out to every connection joined to the channel room.
func HandleSendChannelMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		channel, customErr := requireChannelMember(r, deps, chi.URLParam(r, "channelID"), identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		content := strings.TrimSpace(input.Content)
		if customErr := validateContent(content, input.AttachmentKey); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		message, err := deps.Store.CreateChannelMessage(r.Context(), identity.ID, channel.ID, content, input.AttachmentKey, input.ReplyTo)
		if err != nil {
			logx.Error(err, "failed to store channel message", "channel_id", channel.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Router().Publish(r.Context(), realtime.Event{
			Kind:    realtime.KindMessageNew,
			Payload: messageView(message),
		}, realtime.ToRoom(channel.ID))

		resp.RespondSuccess(w, r, map[string]any{"message": messageView(message)})
	}
}

// HandleListChannelMessages pages backwards through a channel's history.
func HandleListChannelMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		channel, customErr := requireChannelMember(r, deps, chi.URLParam(r, "channelID"), identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		before, limit := historyWindow(r)
		messages, err := deps.Store.ListChannelMessages(r.Context(), channel.ID, before, limit)
		if err != nil {
			logx.Error(err, "failed to list channel messages", "channel_id", channel.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			views = append(views, messageView(m))
		}
		resp.RespondSuccess(w, r, map[string]any{"messages": views})
	}
}

// HandleSendDirectMessage stores a direct message to a friend and delivers it
// to both sides' live connections.
func HandleSendDirectMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		partnerID := chi.URLParam(r, "partnerID")
		areFriends, err := deps.Store.AreFriends(r.Context(), identity.ID, partnerID)
		if err != nil {
			logx.Error(err, "failed to check friendship", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !areFriends {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		content := strings.TrimSpace(input.Content)
		if customErr := validateContent(content, input.AttachmentKey); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		message, err := deps.Store.CreateDirectMessage(r.Context(), identity.ID, partnerID, content, input.AttachmentKey, input.ReplyTo)
		if err != nil {
			logx.Error(err, "failed to store direct message", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Router().Publish(r.Context(), realtime.Event{
			Kind:    realtime.KindMessageNew,
			Payload: messageView(message),
		}, realtime.ToUsers(identity.ID, partnerID))

		resp.RespondSuccess(w, r, map[string]any{"message": messageView(message)})
	}
}

// HandleListDirectMessages pages backwards through the thread with one partner.
func HandleListDirectMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		partnerID := chi.URLParam(r, "partnerID")
		before, limit := historyWindow(r)

		messages, err := deps.Store.ListDirectMessages(r.Context(), identity.ID, partnerID, before, limit)
		if err != nil {
			logx.Error(err, "failed to list direct messages", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			views = append(views, messageView(m))
		}
		resp.RespondSuccess(w, r, map[string]any{"messages": views})
	}
}

// HandleListConversations returns one entry per direct-message partner, most
// recent first.
func HandleListConversations(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conversations, err := deps.Store.ListConversations(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "failed to list conversations", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(conversations))
		for _, c := range conversations {
			views = append(views, map[string]any{
				"partnerId":   c.PartnerID,
				"lastContent": c.LastContent,
				"lastAt":      c.LastAt.Format(time.RFC3339),
			})
		}
		resp.RespondSuccess(w, r, map[string]any{"conversations": views})
	}
}

type EditMessageInput struct {
	Content string `json:"content"`
}

// HandleEditMessage edits a message the caller sent and announces the edit to
// the original audience.
func HandleEditMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		message, customErr := requireOwnMessage(r, deps, chi.URLParam(r, "messageID"), identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input EditMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		content := strings.TrimSpace(input.Content)
		if customErr := validateContent(content, ""); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		updated, err := deps.Store.UpdateMessageContent(r.Context(), message.ID, content)
		if err != nil {
			logx.Error(err, "failed to edit message", "message_id", message.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		publishToMessageAudience(r, deps, updated, realtime.KindMessageUpdate, messageView(updated))

		resp.RespondSuccess(w, r, map[string]any{"message": messageView(updated)})
	}
}

// HandleDeleteMessage soft-deletes a message the caller sent and announces the
// deletion to the original audience.
func HandleDeleteMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		message, customErr := requireOwnMessage(r, deps, chi.URLParam(r, "messageID"), identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Store.SoftDeleteMessage(r.Context(), message.ID); err != nil {
			logx.Error(err, "failed to delete message", "message_id", message.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		publishToMessageAudience(r, deps, message, realtime.KindMessageDelete, map[string]any{
			"id": message.ID,
		})

		resp.RespondSuccess(w, r, nil)
	}
}

// requireOwnMessage loads a live message and verifies the caller authored it.
func requireOwnMessage(r *http.Request, deps *AppDeps, messageID, userID string) (store.Message, *errs.CustomError) {
	message, err := deps.Store.GetMessageByID(r.Context(), messageID)
	if err != nil || message.DeletedAt != nil {
		return store.Message{}, errs.NewError(errs.ErrMessageNotFound)
	}
	if message.SenderID != userID {
		return store.Message{}, errs.NewError(errs.ErrNotMessageOwner)
	}
	return message, nil
}

// publishToMessageAudience routes a message event to the same audience that
// received the original message.
func publishToMessageAudience(r *http.Request, deps *AppDeps, m store.Message, kind realtime.Kind, payload any) {
	ev := realtime.Event{Kind: kind, Payload: payload}

	switch {
	case m.ChannelID != nil:
		deps.Gateway.Router().Publish(r.Context(), ev, realtime.ToRoom(*m.ChannelID))
	case m.RecipientID != nil:
		deps.Gateway.Router().Publish(r.Context(), ev, realtime.ToUsers(m.SenderID, *m.RecipientID))
	}
}
