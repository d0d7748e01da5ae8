package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service dialogue.DialogueUseCase
}

type messageRequest struct {
	Text string `json:"text"`
}

func NewConversationHandler(service dialogue.DialogueUseCase) *ConversationHandler {
	return &ConversationHandler{service: service}
}

func (h *ConversationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.start)
	router.POST("/:id/messages", h.message)
}

// start hands out a fresh conversation id; no state is created until the first message.
func (h *ConversationHandler) start(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"conversation_id": uuid.NewString()})
}

func (h *ConversationHandler) message(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.service.HandleUtterance(c.Request.Context(), id, req.Text)
	c.JSON(http.StatusOK, toMessageResponse(id, res))
}
