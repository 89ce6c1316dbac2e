package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/middleware"
	"github.com/gin-gonic/gin"
)

type SessionService interface {
	Login(ctx context.Context, username, password string) (string, *domain.Principal, error)
	Logout(ctx context.Context)
}

type Handler struct {
	svc SessionService
}

func New(svc SessionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/me", middleware.RequireAuth(), h.Me)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "username and password are required"})
		return
	}

	token, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "incorrect username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to start session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "logged in successfully",
		"token":   token,
		"user":    user,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	h.svc.Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}
