package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/app"
	"eventhub/internal/model"
	"eventhub/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,max=128"`
	Password    string `json:"password" binding:"required,max=128"`
	DisplayName string `json:"display_name" binding:"required,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=128"`
	Password string `json:"password" binding:"required,max=128"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        result.User,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.authService.GetUserByID(c.Request.Context(), p.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}
