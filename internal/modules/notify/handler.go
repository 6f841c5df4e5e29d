package notify

import (
	"log"
	"net/http"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	jwtsvc "marketplace/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Origin checks are delegated to the CORS layer in front.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub   *Hub
	jwt   *jwtsvc.Service
	users middleware.UserLoader
}

func NewHandler(hub *Hub, jwt *jwtsvc.Service, users middleware.UserLoader) *Handler {
	return &Handler{hub: hub, jwt: jwt, users: users}
}

// HandleWebSocket upgrades the connection after validating the access
// token passed as ?token=. Browsers cannot set headers on WebSocket
// handshakes, so the query parameter stands in for the bearer header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required. Use ?token=YOUR_ACCESS_TOKEN"})
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	// Same stateful recheck the HTTP middleware applies: a banned user
	// or a dropped role kills the handshake even with a valid signature.
	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || user.IsBanned || !user.Roles.Has(domain.Role(claims.Role)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(claims.UserID, conn)
	defer func() {
		h.hub.Unregister(claims.UserID)
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	go h.pingLoop(conn)
	h.readLoop(conn, claims.UserID)
}

func (h *Handler) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}

// readLoop drains the connection. The stream is push-only; client frames
// are ignored except as liveness.
func (h *Handler) readLoop(conn *websocket.Conn, userID int64) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("websocket error for user %d: %v", userID, err)
			}
			return
		}
	}
}
