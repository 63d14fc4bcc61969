package handlers

import (
	"errors"
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

type SubjectHandler struct {
	subjects repos.SubjectRepo
	scope    *ScopeResolver
}

func NewSubjectHandler(subjects repos.SubjectRepo, scope *ScopeResolver) *SubjectHandler {
	return &SubjectHandler{subjects: subjects, scope: scope}
}

func (sh *SubjectHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("name is required"))
		return
	}
	subject, err := sh.subjects.Create(c.Request.Context(), nil, &domain.Subject{
		UserID: middleware.UserID(c),
		Name:   strings.TrimSpace(req.Name),
	})
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_failed", err)
		return
	}
	response.RespondCreated(c, subject)
}

func (sh *SubjectHandler) List(c *gin.Context) {
	subjects, err := sh.subjects.ListByUser(c.Request.Context(), nil, middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, subjects)
}

func (sh *SubjectHandler) Get(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	subject, err := sh.scope.Subject(c.Request.Context(), middleware.UserID(c), subjectID)
	if err != nil {
		respondScopeError(c, err)
		return
	}
	response.RespondOK(c, subject)
}

func (sh *SubjectHandler) Delete(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, err := sh.scope.Subject(c.Request.Context(), middleware.UserID(c), subjectID); err != nil {
		respondScopeError(c, err)
		return
	}
	if err := sh.subjects.Delete(c.Request.Context(), nil, subjectID); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func respondScopeError(c *gin.Context, err error) {
	if errors.Is(err, errNotFound) {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	response.RespondError(c, http.StatusInternalServerError, "internal_error", err)
}
