package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit = 16 * 1024
	wsIdleAfter = 10 * time.Minute
)

// ChatSocket streams one conversation over a websocket: every text frame is an
// utterance and every reply is a JSON message.
type ChatSocket struct {
	service  dialogue.DialogueUseCase
	upgrader websocket.Upgrader
}

func NewChatSocket(service dialogue.DialogueUseCase, allowedOrigins []string) *ChatSocket {
	return &ChatSocket{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

func (s *ChatSocket) Register(router *gin.RouterGroup) {
	router.GET("/conversations/:id", s.serve)
}

func (s *ChatSocket) serve(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	log.Printf("ws: conversation %s connected", id)

	ctx := c.Request.Context()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleAfter))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: conversation %s: %v", id, err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		res := s.service.HandleUtterance(ctx, id, string(data))
		if err := conn.WriteJSON(toMessageResponse(id, res)); err != nil {
			log.Printf("ws: conversation %s: write: %v", id, err)
			return
		}
	}
}
