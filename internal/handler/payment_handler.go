package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"
	"pgnest/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	svc   *service.PaymentService
	repo  *repository.PaymentRepository
	audit *Auditor
}

func NewPaymentHandler(svc *service.PaymentService, repo *repository.PaymentRepository, audit *Auditor) *PaymentHandler {
	return &PaymentHandler{svc: svc, repo: repo, audit: audit}
}

// Checkout handles POST /bookings/:id/payments and returns the checkout widget params.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	co, err := h.svc.Checkout(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		if !isClientError(err) {
			fail(c, http.StatusBadGateway, "payment gateway unavailable, please try again")
			return
		}
		serviceError(c, err, "failed to start payment")
		return
	}
	success(c, http.StatusOK, gin.H{"checkout": co})
}

// Verify handles POST /payments/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req service.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID := middleware.GetUserID(c)
	b, p, err := h.svc.Verify(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentVerification) {
			h.audit.Record(c, userID, "payment_verification_failed", "payment", req.OrderID, nil)
		}
		serviceError(c, err, "failed to verify payment")
		return
	}
	h.audit.Record(c, userID, "payment_verified", "payment", p.ID, gin.H{"booking_id": b.ID})
	success(c, http.StatusOK, gin.H{
		"message": "Payment successful, your booking is confirmed",
		"booking": b,
		"payment": p,
	})
}

// Failure handles POST /payments/failure reported by the checkout widget.
func (h *PaymentHandler) Failure(c *gin.Context) {
	var req service.FailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.svc.Fail(c.Request.Context(), middleware.GetUserID(c), req); err != nil {
		serviceError(c, err, "failed to record payment failure")
		return
	}
	success(c, http.StatusOK, gin.H{"message": "Payment failed. Your booking is still pending and you can retry."})
}

// Webhook handles POST /webhooks/razorpay. The signature covers the raw body.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid body")
		return
	}
	err = h.svc.HandleWebhook(c.Request.Context(), body, c.GetHeader("X-Razorpay-Signature"))
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		log.Printf("[payment] webhook rejected: invalid signature from %s", c.ClientIP())
		fail(c, http.StatusUnauthorized, "invalid signature")
		return
	case err != nil:
		log.Printf("[payment] webhook failed: %v", err)
		fail(c, http.StatusInternalServerError, "webhook processing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// AdminList handles GET /admin/payments.
func (h *PaymentHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.repo.List(c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list payments")
		return
	}
	paged(c, "payments", list, total, page, limit)
}

// isClientError reports whether err is a known service sentinel rather than a
// gateway or database failure.
func isClientError(err error) bool {
	var verr *service.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, service.ErrForbidden) ||
		errors.Is(err, service.ErrBookingNotFound) ||
		errors.Is(err, service.ErrNotPending)
}
