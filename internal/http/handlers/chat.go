package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/http/middleware"
	"github.com/nisschay/Edu-Rag/internal/http/response"
	"github.com/nisschay/Edu-Rag/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatBody struct {
	SubjectID string `json:"subject_id"`
	UnitID    string `json:"unit_id"`
	TopicID   string `json:"topic_id"`
	Message   string `json:"message"`
}

func (cb chatBody) toRequest(userID uuid.UUID) (services.ChatRequest, error) {
	req := services.ChatRequest{UserID: userID, Message: cb.Message}
	parse := func(raw, name string) (*uuid.UUID, error) {
		if raw == "" {
			return nil, nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s", name)
		}
		return &id, nil
	}
	var err error
	if req.SubjectID, err = parse(cb.SubjectID, "subject_id"); err != nil {
		return req, err
	}
	if req.UnitID, err = parse(cb.UnitID, "unit_id"); err != nil {
		return req, err
	}
	if req.TopicID, err = parse(cb.TopicID, "topic_id"); err != nil {
		return req, err
	}
	return req, nil
}

// Chat answers a question scoped to one subject.
func (ch *ChatHandler) Chat(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if body.Message == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("message is required"))
		return
	}
	req, err := body.toRequest(middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.SubjectID == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("subject_id is required"))
		return
	}
	result, err := ch.chat.Chat(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "chat_failed", err)
		return
	}
	response.RespondOK(c, result)
}

// ChatFlexible accepts any subset of scope fields, including none.
func (ch *ChatHandler) ChatFlexible(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if body.Message == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("message is required"))
		return
	}
	req, err := body.toRequest(middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ch.chat.ChatFlexible(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "chat_failed", err)
		return
	}
	response.RespondOK(c, result)
}
