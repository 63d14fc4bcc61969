package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/http/middleware"
	"github.com/nisschay/Edu-Rag/internal/http/response"
)

type UnitHandler struct {
	units  repos.UnitRepo
	states repos.ProcessingStateRepo
	scope  *ScopeResolver
}

func NewUnitHandler(units repos.UnitRepo, states repos.ProcessingStateRepo, scope *ScopeResolver) *UnitHandler {
	return &UnitHandler{units: units, states: states, scope: scope}
}

func (uh *UnitHandler) Create(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		UnitNumber int    `json:"unit_number"`
		Title      string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("title is required"))
		return
	}
	if _, err := uh.scope.Subject(c.Request.Context(), middleware.UserID(c), subjectID); err != nil {
		respondScopeError(c, err)
		return
	}
	unit, err := uh.units.Create(c.Request.Context(), nil, &domain.Unit{
		SubjectID:  subjectID,
		UnitNumber: req.UnitNumber,
		Title:      strings.TrimSpace(req.Title),
	})
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_failed", err)
		return
	}
	response.RespondCreated(c, unit)
}

func (uh *UnitHandler) List(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, err := uh.scope.Subject(c.Request.Context(), middleware.UserID(c), subjectID); err != nil {
		respondScopeError(c, err)
		return
	}
	units, err := uh.units.ListBySubject(c.Request.Context(), nil, subjectID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, units)
}

// Status reports the unit's processing state machine. A unit nothing
// was ever uploaded to reports the empty state.
func (uh *UnitHandler) Status(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, err := uh.scope.Unit(c.Request.Context(), middleware.UserID(c), unitID); err != nil {
		respondScopeError(c, err)
		return
	}
	state, err := uh.states.GetByUnit(c.Request.Context(), nil, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.RespondOK(c, domain.UnitProcessingState{
				UnitID: unitID,
				Status: domain.UnitStatusEmpty,
			})
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "status_failed", err)
		return
	}
	response.RespondOK(c, state)
}

func (uh *UnitHandler) Delete(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if _, err := uh.scope.Unit(c.Request.Context(), middleware.UserID(c), unitID); err != nil {
		respondScopeError(c, err)
		return
	}
	if err := uh.units.Delete(c.Request.Context(), nil, unitID); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
