package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/http/middleware"
	"github.com/nisschay/Edu-Rag/internal/http/response"
	"github.com/nisschay/Edu-Rag/internal/services"
)

type SummaryHandler struct {
	topicSums repos.TopicSummaryRepo
	unitSums  repos.UnitSummaryRepo
	summaries *services.SummaryService
	scope     *ScopeResolver
}

func NewSummaryHandler(
	topicSums repos.TopicSummaryRepo,
	unitSums repos.UnitSummaryRepo,
	summaries *services.SummaryService,
	scope *ScopeResolver,
) *SummaryHandler {
	return &SummaryHandler{topicSums: topicSums, unitSums: unitSums, summaries: summaries, scope: scope}
}

func (sh *SummaryHandler) GetTopicSummary(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, _, err := sh.scope.Topic(c.Request.Context(), middleware.UserID(c), topicID); err != nil {
		respondScopeError(c, err)
		return
	}
	summary, err := sh.topicSums.GetByTopic(c.Request.Context(), nil, topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", errNotFound)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	response.RespondOK(c, summary)
}

// RegenerateTopicSummary rebuilds and re-embeds a topic summary even
// when one already exists.
func (sh *SummaryHandler) RegenerateTopicSummary(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	topic, _, err := sh.scope.Topic(c.Request.Context(), middleware.UserID(c), topicID)
	if err != nil {
		respondScopeError(c, err)
		return
	}
	summary, _, err := sh.summaries.GenerateTopicSummary(c.Request.Context(), topic, true)
	if err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "generation_failed", err)
		return
	}
	if _, err := sh.summaries.EmbedTopicSummary(c.Request.Context(), summary); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "embedding_failed", err)
		return
	}
	response.RespondOK(c, summary)
}

func (sh *SummaryHandler) GetUnitSummary(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, err := sh.scope.Unit(c.Request.Context(), middleware.UserID(c), unitID); err != nil {
		respondScopeError(c, err)
		return
	}
	summary, err := sh.unitSums.GetByUnit(c.Request.Context(), nil, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", errNotFound)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	response.RespondOK(c, summary)
}

func (sh *SummaryHandler) RegenerateUnitSummary(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	unit, err := sh.scope.Unit(c.Request.Context(), middleware.UserID(c), unitID)
	if err != nil {
		respondScopeError(c, err)
		return
	}
	summary, _, err := sh.summaries.GenerateUnitSummary(c.Request.Context(), unit, true)
	if err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "generation_failed", err)
		return
	}
	if _, err := sh.summaries.EmbedUnitSummary(c.Request.Context(), summary); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "embedding_failed", err)
		return
	}
	response.RespondOK(c, summary)
}
