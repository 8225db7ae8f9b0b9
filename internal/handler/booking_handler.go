package handler

import (
	"log"
	"net/http"

	"pgnest/internal/domain"
	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	svc   *service.BookingService
	repo  *repository.BookingRepository
	audit *Auditor
}

func NewBookingHandler(svc *service.BookingService, repo *repository.BookingRepository, audit *Auditor) *BookingHandler {
	return &BookingHandler{svc: svc, repo: repo, audit: audit}
}

// Page handles GET /listings/:id/booking and reports the current booking step.
func (h *BookingHandler) Page(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, err := h.svc.Page(middleware.GetUserID(c), id)
	if err != nil {
		serviceError(c, err, "failed to load booking page")
		return
	}
	success(c, http.StatusOK, gin.H{"data": page})
}

// Create handles POST /listings/:id/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID := middleware.GetUserID(c)
	b, quote, err := h.svc.Create(c.Request.Context(), userID, id, req)
	if err != nil {
		serviceError(c, err, "failed to create booking")
		return
	}
	log.Printf("[booking] user=%d booked room=%d listing=%d booking=%d", userID, b.RoomConfigurationID, id, b.ID)
	success(c, http.StatusCreated, gin.H{
		"booking":   b,
		"quote":     quote,
		"next_step": "payment",
	})
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Get(id, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		serviceError(c, err, "failed to load booking")
		return
	}
	success(c, http.StatusOK, gin.H{"booking": b})
}

// Cancel handles POST /bookings/:id/cancel for the booking's own user.
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	b, err := h.svc.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		serviceError(c, err, "failed to cancel booking")
		return
	}
	h.audit.Record(c, userID, "booking_cancelled", "booking", id, nil)
	success(c, http.StatusOK, gin.H{"booking": b})
}

// Mine handles GET /me/bookings.
func (h *BookingHandler) Mine(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.ListByUser(middleware.GetUserID(c), c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	paged(c, "bookings", list, total, page, limit)
}

// OwnerList handles GET /owner/bookings.
func (h *BookingHandler) OwnerList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.ListByOwner(middleware.GetUserID(c), c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	paged(c, "bookings", list, total, page, limit)
}

// AdminList handles GET /admin/bookings.
func (h *BookingHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.List(c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	paged(c, "bookings", list, total, page, limit)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus handles PATCH /owner/bookings/:id/status and PATCH /admin/bookings/:id/status.
func (h *BookingHandler) SetStatus(c *gin.Context) {
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
	role := middleware.GetRole(c)
	b, err := h.svc.SetStatus(c.Request.Context(), id, actorID, role, req.Status)
	if err != nil {
		serviceError(c, err, "failed to update booking")
		return
	}
	action := "booking_status_owner"
	if role == domain.RoleAdmin {
		action = "booking_status_admin"
	}
	h.audit.Record(c, actorID, action, "booking", id, gin.H{"status": req.Status})
	success(c, http.StatusOK, gin.H{"booking": b})
}
