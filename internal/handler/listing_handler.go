package handler

import (
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

type ListingHandler struct {
	svc   *service.ListingService
	audit *Auditor
}

func NewListingHandler(svc *service.ListingService, audit *Auditor) *ListingHandler {
	return &ListingHandler{svc: svc, audit: audit}
}

// Search handles GET /listings.
func (h *ListingHandler) Search(c *gin.Context) {
	var p service.SearchParams
	if err := c.ShouldBindQuery(&p); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.svc.Search(c.Request.Context(), p)
	if err != nil {
		serviceError(c, err, "failed to search listings")
		return
	}
	success(c, http.StatusOK, gin.H{
		"listings":   res.Listings,
		"pagination": res.Pagination,
		"cached":     res.Cached,
	})
}

// Detail handles GET /listings/:id. Owners and admins also see inactive listings.
func (h *ListingHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.svc.Detail(id, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		serviceError(c, err, "failed to load listing")
		return
	}
	success(c, http.StatusOK, gin.H{"data": d})
}

// Reviews handles GET /listings/:id/reviews.
func (h *ListingHandler) Reviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, limit := parsePagination(c)
	list, err := h.svc.Reviews(id, limit, (page-1)*limit)
	if err != nil {
		serviceError(c, err, "failed to load reviews")
		return
	}
	success(c, http.StatusOK, gin.H{"reviews": list, "page": page, "limit": limit})
}

// AddReview handles POST /listings/:id/reviews.
func (h *ListingHandler) AddReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	rv, err := h.svc.AddReview(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		serviceError(c, err, "failed to save review")
		return
	}
	success(c, http.StatusCreated, gin.H{"review": rv})
}

// DeleteReview handles DELETE /reviews/:id for the author and DELETE /admin/reviews/:id.
func (h *ListingHandler) DeleteReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.svc.DeleteReview(c.Request.Context(), id, userID, middleware.GetRole(c)); err != nil {
		serviceError(c, err, "failed to delete review")
		return
	}
	h.audit.Record(c, userID, "review_deleted", "review", id, nil)
	success(c, http.StatusOK, gin.H{"message": "Review deleted"})
}
