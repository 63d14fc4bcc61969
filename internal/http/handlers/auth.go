package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/http/middleware"
	"github.com/nisschay/Edu-Rag/internal/http/response"
	"github.com/nisschay/Edu-Rag/internal/services"
)

type AuthHandler struct {
	auth  *services.AuthService
	users repos.UserRepo
}

func NewAuthHandler(auth *services.AuthService, users repos.UserRepo) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := ah.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrEmailTaken) {
			status = http.StatusConflict
		}
		response.RespondError(c, status, "registration_failed", err)
		return
	}
	response.RespondCreated(c, user)
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	token, user, err := ah.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(ah.auth.AccessTTL().Seconds()),
		"user":         user,
	})
}

func (ah *AuthHandler) Me(c *gin.Context) {
	user, err := ah.users.GetByID(c.Request.Context(), nil, middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", errNotFound)
		return
	}
	response.RespondOK(c, user)
}
