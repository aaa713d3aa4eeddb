/*
Package handler provides the HTTP handlers and routing setup for the Hubchat server.

This file defines the main Router, applying middleware like logging, CORS, and
IP-based rate limiting before delegating requests to the API and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/limiter"
	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/resp"
)

const (
	CreateHubRate  = 0.05
	CreateHubBurst = 2
	ConnectRate    = 0.2
	ConnectBurst   = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and
// per-route middleware.
func Router(deps *AppDeps) http.Handler {
	createHubLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateHubRate), CreateHubBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "Hubchat Server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
			auth.Post("/change-password", HandleChangePassword(deps))
		})

		api.Route("/users", func(users chi.Router) {
			users.Get("/me", HandleGetProfile(deps))
			users.Post("/me/profile", HandleUpdateProfile(deps))
			users.Post("/me/status", HandleSetStatus(deps))
			users.Post("/me/avatar/presign", HandlePresignAvatar(deps))
			users.Post("/me/avatar", HandleUploadAvatar(deps))
			users.Get("/{userID}", HandleGetUser(deps))
		})

		api.Route("/friends", func(friends chi.Router) {
			friends.Get("/", HandleListFriends(deps))
			friends.Delete("/{friendID}", HandleRemoveFriend(deps))
			friends.Post("/requests", HandleSendFriendRequest(deps))
			friends.Get("/requests", HandleListFriendRequests(deps))
			friends.Post("/requests/{requestID}/accept", HandleAcceptFriendRequest(deps))
			friends.Delete("/requests/{requestID}", HandleDeclineFriendRequest(deps))
		})

		api.Route("/conversations", func(conv chi.Router) {
			conv.Get("/", HandleListConversations(deps))
			conv.Get("/{partnerID}/messages", HandleListDirectMessages(deps))
			conv.Post("/{partnerID}/messages", HandleSendDirectMessage(deps))
		})

		api.Route("/hubs", func(hubs chi.Router) {
			hubs.Get("/", HandleListHubs(deps))
			hubs.With(createHubLimiter.Middleware).Post("/", HandleCreateHub(deps))
			hubs.Post("/join", HandleJoinHub(deps))
			hubs.Get("/{hubID}", HandleGetHub(deps))
			hubs.Delete("/{hubID}", HandleDeleteHub(deps))
			hubs.Get("/{hubID}/members", HandleListHubMembers(deps))
			hubs.Delete("/{hubID}/members/me", HandleLeaveHub(deps))
			hubs.Get("/{hubID}/channels", HandleListChannels(deps))
			hubs.Post("/{hubID}/channels", HandleCreateChannel(deps))
		})

		api.Route("/channels", func(channels chi.Router) {
			channels.Delete("/{channelID}", HandleDeleteChannel(deps))
			channels.Get("/{channelID}/messages", HandleListChannelMessages(deps))
			channels.Post("/{channelID}/messages", HandleSendChannelMessage(deps))
		})

		api.Route("/messages", func(messages chi.Router) {
			messages.Patch("/{messageID}", HandleEditMessage(deps))
			messages.Delete("/{messageID}", HandleDeleteMessage(deps))
		})

		api.Post("/files/presign-upload", HandlePresignAttachment(deps))
		api.Get("/files/presign-download", HandlePresignDownload(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
