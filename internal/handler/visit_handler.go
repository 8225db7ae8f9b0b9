package handler

import (
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

type VisitHandler struct {
	svc   *service.VisitService
	repo  *repository.VisitRepository
	audit *Auditor
}

func NewVisitHandler(svc *service.VisitService, repo *repository.VisitRepository, audit *Auditor) *VisitHandler {
	return &VisitHandler{svc: svc, repo: repo, audit: audit}
}

// Request handles POST /listings/:id/visits.
func (h *VisitHandler) Request(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.svc.Request(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		serviceError(c, err, "failed to book visit")
		return
	}
	success(c, http.StatusCreated, gin.H{
		"message": "Visit requested. The owner will confirm shortly.",
		"visit":   v,
	})
}

// Mine handles GET /me/visits.
func (h *VisitHandler) Mine(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.repo.ListByUser(middleware.GetUserID(c), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list visits")
		return
	}
	success(c, http.StatusOK, gin.H{"visits": list, "page": page, "limit": limit})
}

// OwnerList handles GET /owner/visits.
func (h *VisitHandler) OwnerList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.ListByOwner(middleware.GetUserID(c), c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list visits")
		return
	}
	paged(c, "visits", list, total, page, limit)
}

// AdminList handles GET /admin/visits.
func (h *VisitHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.List(c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list visits")
		return
	}
	paged(c, "visits", list, total, page, limit)
}

// SetStatus handles PATCH /visits/:id/status for visitors, owners and admins alike;
// the service decides who may make which change.
func (h *VisitHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID := middleware.GetUserID(c)
	v, err := h.svc.SetStatus(c.Request.Context(), id, actorID, middleware.GetRole(c), req.Status)
	if err != nil {
		serviceError(c, err, "failed to update visit")
		return
	}
	h.audit.Record(c, actorID, "visit_status", "visit", id, gin.H{"status": req.Status})
	success(c, http.StatusOK, gin.H{"visit": v})
}
