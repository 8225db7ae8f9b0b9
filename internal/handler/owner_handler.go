package handler

import (
	"net/http"
	"strconv"

	"pgnest/internal/domain"
	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

// OwnerHandler serves the owner portal: listings, rooms, images and the dashboard.
type OwnerHandler struct {
	listingSvc  *service.ListingService
	listingRepo *repository.ListingRepository
	bookingRepo *repository.BookingRepository
	visitRepo   *repository.VisitRepository
	paymentRepo *repository.PaymentRepository
	audit       *Auditor
}

func NewOwnerHandler(
	listingSvc *service.ListingService,
	listingRepo *repository.ListingRepository,
	bookingRepo *repository.BookingRepository,
	visitRepo *repository.VisitRepository,
	paymentRepo *repository.PaymentRepository,
	audit *Auditor,
) *OwnerHandler {
	return &OwnerHandler{
		listingSvc:  listingSvc,
		listingRepo: listingRepo,
		bookingRepo: bookingRepo,
		visitRepo:   visitRepo,
		paymentRepo: paymentRepo,
		audit:       audit,
	}
}

// Dashboard handles GET /owner/dashboard.
func (h *OwnerHandler) Dashboard(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	active, inactive, err := h.listingRepo.CountByStatus(ownerID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load stats")
		return
	}
	bookings, err := h.bookingRepo.CountByStatus(ownerID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load stats")
		return
	}
	visits, err := h.visitRepo.CountPending(ownerID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load stats")
		return
	}
	revenue, err := h.paymentRepo.SumSuccessful(ownerID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load stats")
		return
	}
	success(c, http.StatusOK, gin.H{"data": gin.H{
		"active_listings":    active,
		"inactive_listings":  inactive,
		"bookings_by_status": bookings,
		"pending_visits":     visits,
		"revenue_paise":      revenue,
		"revenue":            domain.FormatINR(revenue),
	}})
}

// Listings handles GET /owner/listings.
func (h *OwnerHandler) Listings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	list, pg, err := h.listingSvc.OwnerListings(middleware.GetUserID(c), page)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list listings")
		return
	}
	success(c, http.StatusOK, gin.H{"listings": list, "pagination": pg})
}

// CreateListing handles POST /owner/listings.
func (h *OwnerHandler) CreateListing(c *gin.Context) {
	var in service.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	ownerID := middleware.GetUserID(c)
	l, err := h.listingSvc.CreateListing(c.Request.Context(), ownerID, in)
	if err != nil {
		serviceError(c, err, "failed to create listing")
		return
	}
	h.audit.Record(c, ownerID, "listing_created", "listing", l.ID, nil)
	success(c, http.StatusCreated, gin.H{"listing": l})
}

// UpdateListing handles PUT /owner/listings/:id.
func (h *OwnerHandler) UpdateListing(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	l, err := h.listingSvc.UpdateListing(c.Request.Context(), id, middleware.GetUserID(c), middleware.GetRole(c), in)
	if err != nil {
		serviceError(c, err, "failed to update listing")
		return
	}
	success(c, http.StatusOK, gin.H{"listing": l})
}

// SetListingStatus handles PATCH /owner/listings/:id/status and PATCH /admin/listings/:id/status.
// Listings are never deleted, only deactivated.
func (h *OwnerHandler) SetListingStatus(c *gin.Context) {
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
	l, err := h.listingSvc.SetListingStatus(c.Request.Context(), id, actorID, middleware.GetRole(c), req.Status)
	if err != nil {
		serviceError(c, err, "failed to update listing")
		return
	}
	h.audit.Record(c, actorID, "listing_status", "listing", id, gin.H{"status": req.Status})
	success(c, http.StatusOK, gin.H{"listing": l})
}

// UploadImage handles POST /owner/listings/:id/images (multipart field "file").
func (h *OwnerHandler) UploadImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		failFields(c, map[string]string{"file": "is required"})
		return
	}
	if file.Size > maxImageSize {
		failFields(c, map[string]string{"file": "must be at most 8 MB"})
		return
	}
	f, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "could not read file")
		return
	}
	defer f.Close()
	img, err := h.listingSvc.AddImage(c.Request.Context(), id, middleware.GetUserID(c), middleware.GetRole(c), f)
	if err != nil {
		serviceError(c, err, "upload failed")
		return
	}
	success(c, http.StatusCreated, gin.H{"image": img})
}

// DeleteImage handles DELETE /owner/listings/:id/images/:imageId.
func (h *OwnerHandler) DeleteImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	imageID, ok := paramID(c, "imageId")
	if !ok {
		return
	}
	if err := h.listingSvc.DeleteImage(c.Request.Context(), id, imageID, middleware.GetUserID(c), middleware.GetRole(c)); err != nil {
		serviceError(c, err, "failed to delete image")
		return
	}
	success(c, http.StatusOK, gin.H{"message": "Image removed"})
}

// Rooms handles GET /owner/listings/:id/rooms.
func (h *OwnerHandler) Rooms(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rooms, err := h.listingSvc.Rooms(id, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		serviceError(c, err, "failed to list rooms")
		return
	}
	success(c, http.StatusOK, gin.H{"rooms": rooms})
}

// AddRoom handles POST /owner/listings/:id/rooms.
func (h *OwnerHandler) AddRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.RoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	room, err := h.listingSvc.AddRoom(c.Request.Context(), id, middleware.GetUserID(c), middleware.GetRole(c), in)
	if err != nil {
		serviceError(c, err, "failed to add room")
		return
	}
	success(c, http.StatusCreated, gin.H{"room": room})
}

// UpdateRooms handles PUT /owner/listings/:id/rooms, the bulk availability editor.
func (h *OwnerHandler) UpdateRooms(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rooms []service.RoomPatch `json:"rooms" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID := middleware.GetUserID(c)
	rooms, err := h.listingSvc.UpdateRooms(c.Request.Context(), id, actorID, middleware.GetRole(c), req.Rooms)
	if err != nil {
		serviceError(c, err, "failed to update rooms")
		return
	}
	h.audit.Record(c, actorID, "rooms_updated", "listing", id, gin.H{"rows": len(req.Rooms)})
	success(c, http.StatusOK, gin.H{"message": "Availability updated", "rooms": rooms})
}
