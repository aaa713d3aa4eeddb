/*
Package handler provides HTTP handler functions for hub channels.
*/
package handler

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"hubchat/internal/app/db"
	"hubchat/internal/app/store"
	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/req"
	"hubchat/internal/pkg/resp"
)

var channelNameReplacer = strings.NewReplacer(" ", "-")

func channelView(c store.Channel) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"hubId":     c.HubID,
		"name":      c.Name,
		"topic":     c.Topic,
		"createdAt": c.CreatedAt.Format(time.RFC3339),
	}
}

// requireChannelMember loads a channel and verifies the caller belongs to its hub.
func requireChannelMember(r *http.Request, deps *AppDeps, channelID, userID string) (store.Channel, *errs.CustomError) {
	channel, err := deps.Store.GetChannelByID(r.Context(), channelID)
	if err != nil {
		return store.Channel{}, errs.NewError(errs.ErrChannelNotFound)
	}

	isMember, err := deps.Store.IsHubMember(r.Context(), channel.HubID, userID)
	if err != nil {
		logx.Error(err, "failed to check hub membership", "channel_id", channelID, "user_id", userID)
		return store.Channel{}, errs.NewError(errs.ErrUnknown)
	}
	if !isMember {
		return store.Channel{}, errs.NewError(errs.ErrNotHubMember)
	}

	return channel, nil
}

type CreateChannelInput struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

// HandleCreateChannel adds a channel to a hub the caller belongs to.
func HandleCreateChannel(deps *AppDeps) http.HandlerFunc {
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

		var input CreateChannelInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		name := strings.ToLower(channelNameReplacer.Replace(strings.TrimSpace(input.Name)))
		if n := utf8.RuneCountInString(name); n < 1 || n > 40 {
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelNameInvalid))
			return
		}

		channel, err := deps.Store.CreateChannel(r.Context(), hub.ID, name, strings.TrimSpace(input.Topic))
		if err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrChannelNameInvalid))
				return
			}
			logx.Error(err, "failed to create channel", "hub_id", hub.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"channel": channelView(channel)})
	}
}

// HandleListChannels returns the channels of a hub the caller belongs to.
func HandleListChannels(deps *AppDeps) http.HandlerFunc {
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

		channels, err := deps.Store.ListChannels(r.Context(), hub.ID)
		if err != nil {
			logx.Error(err, "failed to list channels", "hub_id", hub.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]map[string]any, 0, len(channels))
		for _, c := range channels {
			views = append(views, channelView(c))
		}
		resp.RespondSuccess(w, r, map[string]any{"channels": views})
	}
}

// HandleDeleteChannel removes a channel. Hub owner only.
func HandleDeleteChannel(deps *AppDeps) http.HandlerFunc {
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

		hub, err := deps.Store.GetHubByID(r.Context(), channel.HubID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrHubNotFound))
			return
		}
		if hub.OwnerID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotHubMember))
			return
		}

		if err := deps.Store.DeleteChannel(r.Context(), channel.ID); err != nil {
			logx.Error(err, "failed to delete channel", "channel_id", channel.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
