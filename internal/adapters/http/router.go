// Package http wires the gin router: credential middleware, the
// WebSocket endpoint and the thin REST glue around the chat store.
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/adapters/ws"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/app"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/auth"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/config"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/core"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

const authCookie = "auth"

// AuthRequired verifies the handshake credential (cookie, query param
// or bearer header) and attaches the identity. Absence or invalidity
// ends the attempt right here with a 401; no anonymous sessions.
func AuthRequired(verifier core.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(authCookie)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.CodeUnauthorized})
			return
		}
		c.Set("identity", user)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, tokens *auth.TokenService) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	// POST /api/session — mint a credential for a username. Issuance
	// lives in the auth collaborator, not in the relay core.
	api.POST("/session", func(c *gin.Context) {
		var req struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		user, err := domain.NewUser(domain.UserID(req.ID), req.Username)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		token, err := tokens.Issue(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.SetCookie(authCookie, token, 3600*24*7, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	})

	authed := api.Group("")
	authed.Use(AuthRequired(tokens))

	// WebSocket relay endpoint.
	wsCtl := ws.NewController(orch, cfg)
	authed.GET("/ws", func(c *gin.Context) {
		wsCtl.Handle(ctx, c)
	})

	// POST /api/rooms — find or create the room shared with another user.
	authed.POST("/rooms", func(c *gin.Context) {
		me := c.MustGet("identity").(*domain.User)
		var req struct {
			UserID string `json:"userId"`
		}
		if err := c.BindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId"})
			return
		}
		roomID, err := orch.Store.FindOrCreateRoom(c.Request.Context(), me.ID, domain.UserID(req.UserID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "room lookup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": roomID})
	})

	// GET /api/rooms/:id — room existence and participants.
	authed.GET("/rooms/:id", func(c *gin.Context) {
		room, err := orch.Store.Room(c.Request.Context(), domain.RoomID(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.CodeRoomNotFound})
			return
		}
		c.JSON(http.StatusOK, room)
	})

	// GET /api/unread — total unread messages for the caller.
	authed.GET("/unread", func(c *gin.Context) {
		me := c.MustGet("identity").(*domain.User)
		n, err := orch.Store.UnreadCount(c.Request.Context(), me.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unread lookup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	})

	return r
}
