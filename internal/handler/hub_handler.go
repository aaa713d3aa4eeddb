/*
Package handler provides HTTP handler functions for hubs and hub membership.
*/
package handler

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"hubchat/internal/app/db"
	"hubchat/internal/app/realtime"
	"hubchat/internal/app/store"
	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/randx"
	"hubchat/internal/pkg/req"
	"hubchat/internal/pkg/resp"
)

func hubView(h store.Hub) map[string]any {
	return map[string]any{
		"id":          h.ID,
		"name":        h.Name,
		"description": h.Description,
		"avatar":      h.AvatarURL,
		"ownerId":     h.OwnerID,
		"inviteCode":  h.InviteCode,
		"createdAt":   h.CreatedAt.Format(time.RFC3339),
	}
}

// requireHubMember loads the hub and verifies the caller belongs to it.
func requireHubMember(r *http.Request, deps *AppDeps, hubID, userID string) (store.Hub, *errs.CustomError) {
	hub, err := deps.Store.GetHubByID(r.Context(), hubID)
	if err != nil {
		return store.Hub{}, errs.NewError(errs.ErrHubNotFound)
	}

	isMember, err := deps.Store.IsHubMember(r.Context(), hubID, userID)
	if err != nil {
		logx.Error(err, "failed to check hub membership", "hub_id", hubID, "user_id", userID)
		return store.Hub{}, errs.NewError(errs.ErrUnknown)
	}
	if !isMember {
		return store.Hub{}, errs.NewError(errs.ErrNotHubMember)
	}

	return hub, nil
}

type CreateHubInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreateHub creates a hub owned by the caller, with a fresh invite code
// and a default "general" channel.
func HandleCreateHub(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input CreateHubInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		name := strings.TrimSpace(input.Name)
		if n := utf8.RuneCountInString(name); n < 1 || n > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrHubNameInvalid))
			return
		}

		inviteCode, err := randx.InviteCode()
		if err != nil {
			logx.Error(err, "failed to generate invite code")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		hub, err := deps.Store.CreateHub(r.Context(), name, strings.TrimSpace(input.Description), identity.ID, inviteCode)
		if err != nil {
			logx.Error(err, "failed to create hub", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"hub": hubView(hub)})
	}
}

// HandleListHubs returns every hub the caller is a member of.
func HandleListHubs(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		hubs, err := deps.Store.ListHubsForUser(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "failed to list hubs", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(hubs))
		for _, h := range hubs {
			views = append(views, hubView(h))
		}
		resp.RespondSuccess(w, r, map[string]any{"hubs": views})
	}
}

type JoinHubInput struct {
	InviteCode string `json:"inviteCode"`
}

// HandleJoinHub enrolls the caller in the hub behind an invite code and
// announces the new member to the existing ones.
func HandleJoinHub(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input JoinHubInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !randx.IsValidInviteCode(input.InviteCode) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		hub, err := deps.Store.GetHubByInviteCode(r.Context(), input.InviteCode)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrHubNotFound))
			return
		}

		if err := deps.Store.AddHubMember(r.Context(), hub.ID, identity.ID); err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyHubMember))
				return
			}
			logx.Error(err, "failed to add hub member", "hub_id", hub.ID, "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		notifyHubMembers(r, deps, hub.ID, realtime.MembershipUpdatePayload{
			Scope:  "hub",
			Action: "added",
			UserID: identity.ID,
			HubID:  hub.ID,
		})

		resp.RespondSuccess(w, r, map[string]any{"hub": hubView(hub)})
	}
}

// HandleGetHub returns one hub the caller belongs to.
func HandleGetHub(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		hub, customErr := requireHubMember(r, deps, chi.URLParam(r, "hubID"), identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"hub": hubView(hub)})
	}
}

// HandleDeleteHub removes a hub entirely. Owner only.
func HandleDeleteHub(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		hubID := chi.URLParam(r, "hubID")
		hub, err := deps.Store.GetHubByID(r.Context(), hubID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrHubNotFound))
			return
		}

		if hub.OwnerID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotHubMember))
			return
		}

		memberIDs, err := deps.Store.ListHubMemberIDs(r.Context(), hubID)
		if err != nil {
			logx.Error(err, "failed to list hub members before delete", "hub_id", hubID)
			memberIDs = nil
		}

		if err := deps.Store.DeleteHub(r.Context(), hubID); err != nil {
			logx.Error(err, "failed to delete hub", "hub_id", hubID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if len(memberIDs) > 0 {
			deps.Gateway.Router().Publish(r.Context(), realtime.Event{
				Kind: realtime.KindMembershipUpdate,
				Payload: realtime.MembershipUpdatePayload{
					Scope:  "hub",
					Action: "removed",
					UserID: identity.ID,
					HubID:  hubID,
				},
			}, realtime.ToUsers(memberIDs...))
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleListHubMembers returns the hub's members with presence masking applied.
func HandleListHubMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		hub, customErr := requireHubMember(r, deps, chi.URLParam(r, "hubID"), identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		members, err := deps.Store.ListHubMembers(r.Context(), hub.ID)
		if err != nil {
			logx.Error(err, "failed to list hub members", "hub_id", hub.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(members))
		for _, m := range members {
			view := userView(m.User, "")
			view["role"] = m.Role
			if m.ID != identity.ID {
				view["status"], view["statusMessage"] = publicStatus(m.Status, m.StatusMessage)
			}
			delete(view, "lastLoginAt")
			views = append(views, view)
		}

		resp.RespondSuccess(w, r, map[string]any{"members": views})
	}
}

// HandleLeaveHub removes the caller from the hub. The owner cannot leave
// without deleting the hub.
func HandleLeaveHub(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		hub, customErr := requireHubMember(r, deps, chi.URLParam(r, "hubID"), identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if hub.OwnerID == identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Store.RemoveHubMember(r.Context(), hub.ID, identity.ID); err != nil {
			logx.Error(err, "failed to remove hub member", "hub_id", hub.ID, "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		notifyHubMembers(r, deps, hub.ID, realtime.MembershipUpdatePayload{
			Scope:  "hub",
			Action: "removed",
			UserID: identity.ID,
			HubID:  hub.ID,
		})

		resp.RespondSuccess(w, r, nil)
	}
}

// notifyHubMembers publishes a membership change to every current member of
// the hub. A failed member lookup drops the notification; the write already
// succeeded.
func notifyHubMembers(r *http.Request, deps *AppDeps, hubID string, payload realtime.MembershipUpdatePayload) {
	memberIDs, err := deps.Store.ListHubMemberIDs(r.Context(), hubID)
	if err != nil {
		logx.Error(err, "failed to list hub members for notification", "hub_id", hubID)
		return
	}

	deps.Gateway.Router().Publish(r.Context(), realtime.Event{
		Kind:    realtime.KindMembershipUpdate,
		Payload: payload,
	}, realtime.ToUsers(memberIDs...))
}
