package handler

import (
	"io"
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

const maxDocumentSize = 5 << 20

type KYCHandler struct {
	svc   *service.KYCService
	repo  *repository.KYCRepository
	audit *Auditor
}

func NewKYCHandler(svc *service.KYCService, repo *repository.KYCRepository, audit *Auditor) *KYCHandler {
	return &KYCHandler{svc: svc, repo: repo, audit: audit}
}

// State handles GET /me/kyc.
func (h *KYCHandler) State(c *gin.Context) {
	st, err := h.svc.State(middleware.GetUserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load KYC status")
		return
	}
	success(c, http.StatusOK, gin.H{"kyc": st})
}

// Submit handles POST /me/kyc (multipart: document_type, document_number, document).
func (h *KYCHandler) Submit(c *gin.Context) {
	var in service.KYCSubmission
	if err := c.ShouldBind(&in); err != nil {
		bindError(c, err)
		return
	}
	var doc io.Reader
	if fh, err := c.FormFile("document"); err == nil {
		if fh.Size > maxDocumentSize {
			failFields(c, map[string]string{"document": "must be at most 5 MB"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, "could not read file")
			return
		}
		defer f.Close()
		doc = f
	}
	userID := middleware.GetUserID(c)
	k, err := h.svc.Submit(c.Request.Context(), userID, in, doc)
	if err != nil {
		serviceError(c, err, "failed to submit KYC")
		return
	}
	h.audit.Record(c, userID, "kyc_submitted", "kyc", k.ID, gin.H{"document_type": k.DocumentType})
	success(c, http.StatusCreated, gin.H{
		"message": "Documents submitted. We will review them shortly.",
		"kyc":     k,
	})
}

// Queue handles GET /admin/kyc?status=pending.
func (h *KYCHandler) Queue(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.List(c.DefaultQuery("status", "pending"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list KYC submissions")
		return
	}
	paged(c, "submissions", list, total, page, limit)
}

// Review handles PATCH /admin/kyc/:id.
func (h *KYCHandler) Review(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=verified rejected"`
		Notes  string `json:"notes" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	adminID := middleware.GetUserID(c)
	k, err := h.svc.Review(c.Request.Context(), id, adminID, req.Status, req.Notes)
	if err != nil {
		serviceError(c, err, "failed to review KYC")
		return
	}
	h.audit.Record(c, adminID, "kyc_"+req.Status, "kyc", id, gin.H{"user_id": k.UserID})
	success(c, http.StatusOK, gin.H{"kyc": k})
}
