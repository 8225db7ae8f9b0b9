package handler

import (
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	svc  *service.InvoiceService
	repo *repository.InvoiceRepository
}

func NewInvoiceHandler(svc *service.InvoiceService, repo *repository.InvoiceRepository) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, repo: repo}
}

// Mine handles GET /me/invoices.
func (h *InvoiceHandler) Mine(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.svc.ListMine(middleware.GetUserID(c), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	success(c, http.StatusOK, gin.H{"invoices": list, "page": page, "limit": limit})
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	inv, err := h.svc.Get(id, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		serviceError(c, err, "failed to load invoice")
		return
	}
	success(c, http.StatusOK, gin.H{"invoice": inv})
}

// ByBooking handles GET /bookings/:id/invoice.
func (h *InvoiceHandler) ByBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	inv, err := h.svc.GetByBooking(id, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		serviceError(c, err, "failed to load invoice")
		return
	}
	success(c, http.StatusOK, gin.H{"invoice": inv})
}

// Regenerate handles POST /admin/bookings/:id/invoice. It returns the existing
// invoice when one was already issued.
func (h *InvoiceHandler) Regenerate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	inv, err := h.svc.Generate(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, "failed to generate invoice")
		return
	}
	success(c, http.StatusOK, gin.H{"invoice": inv})
}

// AdminList handles GET /admin/invoices.
func (h *InvoiceHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.List(limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	paged(c, "invoices", list, total, page, limit)
}
