package handler

import (
	"log"
	"net/http"
	"strings"

	"pgnest/internal/middleware"
	"pgnest/internal/models"
	"pgnest/internal/repository"

	"github.com/gin-gonic/gin"
)

type ContactNotifier interface {
	ContactReceived(c *models.Contact, fallbackSupport string)
}

type ContactHandler struct {
	repo     *repository.ContactRepository
	notifier ContactNotifier
	support  string
	audit    *Auditor
}

func NewContactHandler(repo *repository.ContactRepository, notifier ContactNotifier, supportEmail string, audit *Auditor) *ContactHandler {
	return &ContactHandler{repo: repo, notifier: notifier, support: supportEmail, audit: audit}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,max=20"`
	Subject string `json:"subject" binding:"omitempty,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		failFields(c, map[string]string{"message": "is required"})
		return
	}
	ct := &models.Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: msg,
	}
	if err := h.repo.Create(ct); err != nil {
		log.Printf("[contact] save failed: %v", err)
		fail(c, http.StatusInternalServerError, "could not send your message, please try again")
		return
	}
	if h.notifier != nil {
		h.notifier.ContactReceived(ct, h.support)
	}
	success(c, http.StatusCreated, gin.H{"message": "Thanks for reaching out. We will get back to you soon."})
}

// AdminList handles GET /admin/contacts?open=true.
func (h *ContactHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.List(c.Query("open") == "true", limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	paged(c, "contacts", list, total, page, limit)
}

// Resolve handles PATCH /admin/contacts/:id/resolve.
func (h *ContactHandler) Resolve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.Resolve(id); err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	h.audit.Record(c, middleware.GetUserID(c), "contact_resolved", "contact", id, nil)
	success(c, http.StatusOK, nil)
}
