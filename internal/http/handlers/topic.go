package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/http/middleware"
	"github.com/nisschay/Edu-Rag/internal/http/response"
)

type TopicHandler struct {
	topics repos.TopicRepo
	scope  *ScopeResolver
}

func NewTopicHandler(topics repos.TopicRepo, scope *ScopeResolver) *TopicHandler {
	return &TopicHandler{topics: topics, scope: scope}
}

func (th *TopicHandler) Create(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("title is required"))
		return
	}
	if _, err := th.scope.Unit(c.Request.Context(), middleware.UserID(c), unitID); err != nil {
		respondScopeError(c, err)
		return
	}
	topic, err := th.topics.Create(c.Request.Context(), nil, &domain.Topic{
		UnitID: unitID,
		Title:  strings.TrimSpace(req.Title),
	})
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_failed", err)
		return
	}
	response.RespondCreated(c, topic)
}

func (th *TopicHandler) List(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, err := th.scope.Unit(c.Request.Context(), middleware.UserID(c), unitID); err != nil {
		respondScopeError(c, err)
		return
	}
	topics, err := th.topics.ListByUnit(c.Request.Context(), nil, unitID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, topics)
}

func (th *TopicHandler) Delete(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, _, err := th.scope.Topic(c.Request.Context(), middleware.UserID(c), topicID); err != nil {
		respondScopeError(c, err)
		return
	}
	if err := th.topics.Delete(c.Request.Context(), nil, topicID); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
