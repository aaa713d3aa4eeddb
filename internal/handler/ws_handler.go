/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.

This file contains the HandleWebSocket function, which rate limits and authenticates
the handshake, upgrades the connection, and hands it to the realtime gateway.
*/
package handler

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hubchat/internal/pkg/auth/jwt"
	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/limiter"
	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// Authentication happens before the upgrade: a missing or invalid token is rejected
// with a plain HTTP 401 so clients can distinguish it from transport failures.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrAuthenticationFailed))
			return
		}

		payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket connection rejected: Invalid token.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrAuthenticationFailed))
			return
		}

		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		conn, customErr := deps.Gateway.Connect(payload.ID, sock)
		if customErr != nil {
			logx.Warn("WebSocket connection rejected after upgrade.",
				"user_id", payload.ID, "code", customErr.Code)
			deadline := time.Now().Add(time.Second)
			sock.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, customErr.Message),
				deadline)
			sock.Close()
			return
		}

		logx.Info("WebSocket connection established",
			"user_id", payload.ID, "conn_id", conn.ID)

		deps.Gateway.Serve(conn)
	}
}
