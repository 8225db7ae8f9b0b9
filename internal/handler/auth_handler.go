package handler

import (
	"errors"
	"log"
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc   *service.AuthService
	audit *Auditor
}

func NewAuthHandler(svc *service.AuthService, audit *Auditor) *AuthHandler {
	return &AuthHandler{svc: svc, audit: audit}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, tokens, err := h.svc.Register(req)
	if err != nil {
		if !errors.Is(err, service.ErrEmailExists) {
			log.Printf("[auth] register failed: role=%s email=%s err=%v", req.Role, req.Email, err)
		}
		serviceError(c, err, "registration failed")
		return
	}
	h.audit.Record(c, u.ID, "register", "auth", u.ID, nil)
	success(c, http.StatusCreated, gin.H{
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, tokens, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			h.audit.Record(c, 0, "login_failed", "auth", nil, gin.H{"email": req.Email})
		}
		serviceError(c, err, "login failed")
		return
	}
	h.audit.Record(c, u.ID, "login", "auth", u.ID, nil)
	success(c, http.StatusOK, gin.H{
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

// Logout is stateless: clients drop their tokens. The call is kept for the audit trail.
func (h *AuthHandler) Logout(c *gin.Context) {
	if userID := middleware.GetUserID(c); userID != 0 {
		h.audit.Record(c, userID, "logout", "auth", userID, nil)
	}
	success(c, http.StatusOK, nil)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tokens, err := h.svc.RefreshToken(req.RefreshToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	success(c, http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.svc.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		serviceError(c, err, "could not change password")
		return
	}
	h.audit.Record(c, userID, "change_password", "auth", userID, nil)
	success(c, http.StatusOK, gin.H{"message": "Password updated"})
}
