package controllers

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nzhukovskiy/fundlink-api/notifications"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

type NotificationController struct {
	Hub      *notifications.Hub
	upgrader websocket.Upgrader
}

// NewNotificationController accepts websocket origins from
// CORS_ALLOWED_ORIGINS; with none configured every origin is accepted.
func NewNotificationController(hub *notifications.Hub) *NotificationController {
	allowed := map[string]bool{}
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return &NotificationController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// GET /v3/ws/notifications?token=<access token>
func (c *NotificationController) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = utils.BearerToken(r)
	}
	claims, err := utils.ValidateAccessToken(r.Context(), token)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	room := notifications.RoomFor(notifications.UserType(claims.Role), claims.UserID)
	c.Hub.Join(room, conn)
	log.Printf("[ws] %s connected (%d open)", room, c.Hub.Connections(room))

	defer func() {
		c.Hub.Leave(room, conn)
		conn.Close()
		log.Printf("[ws] %s disconnected", room)
	}()

	done := make(chan struct{})
	defer close(done)
	go c.ping(conn, done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	// The feed is one-way; reading only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *NotificationController) ping(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(wsPingPeriod)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
