/*
Package handler provides HTTP handler functions for friendships and friend requests.
*/
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hubchat/internal/app/db"
	"hubchat/internal/app/realtime"
	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/req"
	"hubchat/internal/pkg/resp"
)

// HandleListFriends returns the user's friends with presence masking applied.
func HandleListFriends(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		friends, err := deps.Store.ListFriends(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "failed to list friends", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(friends))
		for _, f := range friends {
			view := userView(f, "")
			view["status"], view["statusMessage"] = publicStatus(f.Status, f.StatusMessage)
			delete(view, "lastLoginAt")
			views = append(views, view)
		}

		resp.RespondSuccess(w, r, map[string]any{"friends": views})
	}
}

type SendFriendRequestInput struct {
	Username string `json:"username"`
}

// HandleSendFriendRequest creates a pending request addressed to the named user.
func HandleSendFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input SendFriendRequestInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		recipient, err := deps.Store.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		if recipient.ID == identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrCannotFriendSelf))
			return
		}

		alreadyFriends, err := deps.Store.AreFriends(r.Context(), identity.ID, recipient.ID)
		if err != nil {
			logx.Error(err, "failed to check friendship", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if alreadyFriends {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyFriends))
			return
		}

		request, err := deps.Store.CreateFriendRequest(r.Context(), identity.ID, recipient.ID)
		if err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyFriends))
				return
			}
			logx.Error(err, "failed to create friend request", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"request": map[string]any{
				"id":          request.ID,
				"recipientId": request.RecipientID,
				"createdAt":   request.CreatedAt.Format(time.RFC3339),
			},
		})
	}
}

// HandleListFriendRequests returns the pending requests addressed to the user.
func HandleListFriendRequests(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		requests, err := deps.Store.ListIncomingFriendRequests(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "failed to list friend requests", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(requests))
		for _, fr := range requests {
			views = append(views, map[string]any{
				"id":        fr.ID,
				"createdAt": fr.CreatedAt.Format(time.RFC3339),
				"sender": map[string]any{
					"id":       fr.SenderID,
					"username": fr.SenderUsername,
					"nickname": fr.SenderNickname,
					"avatar":   fr.SenderAvatarURL,
				},
			})
		}

		resp.RespondSuccess(w, r, map[string]any{"requests": views})
	}
}

// HandleAcceptFriendRequest turns a pending request into a friendship and
// notifies both sides.
func HandleAcceptFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		requestID := chi.URLParam(r, "requestID")
		request, err := deps.Store.GetFriendRequest(r.Context(), requestID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestNotFound))
			return
		}

		// Only the addressee may accept.
		if request.RecipientID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestNotFound))
			return
		}

		accepted, err := deps.Store.AcceptFriendRequest(r.Context(), requestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestNotFound))
				return
			}
			logx.Error(err, "failed to accept friend request", "request_id", requestID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Router().Publish(r.Context(), realtime.Event{
			Kind: realtime.KindMembershipUpdate,
			Payload: realtime.MembershipUpdatePayload{
				Scope:  "friend",
				Action: "added",
				UserID: accepted.RecipientID,
			},
		}, realtime.ToUser(accepted.SenderID))

		deps.Gateway.Router().Publish(r.Context(), realtime.Event{
			Kind: realtime.KindMembershipUpdate,
			Payload: realtime.MembershipUpdatePayload{
				Scope:  "friend",
				Action: "added",
				UserID: accepted.SenderID,
			},
		}, realtime.ToUser(accepted.RecipientID))

		resp.RespondSuccess(w, r, map[string]any{"friendId": accepted.SenderID})
	}
}

// HandleDeclineFriendRequest removes a pending request without creating a
// friendship. The sender is not notified.
func HandleDeclineFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		requestID := chi.URLParam(r, "requestID")
		request, err := deps.Store.GetFriendRequest(r.Context(), requestID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestNotFound))
			return
		}

		if request.RecipientID != identity.ID && request.SenderID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestNotFound))
			return
		}

		if err := deps.Store.DeleteFriendRequest(r.Context(), requestID); err != nil {
			logx.Error(err, "failed to delete friend request", "request_id", requestID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleRemoveFriend deletes the friendship in both directions and notifies
// the removed side.
func HandleRemoveFriend(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		friendID := chi.URLParam(r, "friendID")
		if err := deps.Store.RemoveFriend(r.Context(), identity.ID, friendID); err != nil {
			logx.Error(err, "failed to remove friend", "user_id", identity.ID, "friend_id", friendID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Gateway.Router().Publish(r.Context(), realtime.Event{
			Kind: realtime.KindMembershipUpdate,
			Payload: realtime.MembershipUpdatePayload{
				Scope:  "friend",
				Action: "removed",
				UserID: identity.ID,
			},
		}, realtime.ToUser(friendID))

		resp.RespondSuccess(w, r, nil)
	}
}
