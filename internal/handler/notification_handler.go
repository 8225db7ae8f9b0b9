package handler

import (
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
}

func NewNotificationHandler(repo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	list, err := h.repo.ListByUserID(userID, limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "list failed")
		return
	}
	unread, _ := h.repo.CountUnread(userID)
	success(c, http.StatusOK, gin.H{"notifications": list, "unread": unread, "page": page, "limit": limit})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.MarkRead(id, middleware.GetUserID(c)); err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	success(c, http.StatusOK, nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.repo.MarkAllRead(middleware.GetUserID(c)); err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	success(c, http.StatusOK, nil)
}
