package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pgnest/internal/repository"
	"pgnest/internal/service"
	"pgnest/pkg/cloudinary"
	"pgnest/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func success(c *gin.Context, code int, data gin.H) {
	body := gin.H{"status": "success"}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(code, body)
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}

func failFields(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"status":  "error",
		"message": "Please correct the highlighted fields",
		"errors":  fields,
	})
}

// bindError turns binding/validation failures into field messages.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonField(fe)] = fieldMessage(fe)
		}
		failFields(c, fields)
		return
	}
	fail(c, http.StatusBadRequest, "invalid request body")
}

func jsonField(fe validator.FieldError) string {
	name := fe.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "yearmonth":
		return "must be YYYY-MM or YYYY-MM-DD"
	}
	return "is invalid"
}

// serviceError maps service sentinels to HTTP responses. Unknown errors are 500s.
func serviceError(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		failFields(c, verr.Fields)
		return
	}
	switch {
	case errors.Is(err, service.ErrKYCRequired):
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": err.Error(), "step": "kyc"})
	case errors.Is(err, service.ErrInvalidCreds):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrPaymentVerification),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, service.ErrPasswordNotSet):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrBelowBookedBeds):
		failFields(c, map[string]string{"total_rooms": err.Error()})
	case errors.Is(err, cloudinary.ErrNotConfigured):
		fail(c, http.StatusServiceUnavailable, "file uploads are not configured")
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrVisitNotFound),
		errors.Is(err, service.ErrKYCNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrImageNotFound),
		errors.Is(err, service.ErrRoomNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoBedsAvailable),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrPaymentRequired),
		errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrKYCAlreadyVerified),
		errors.Is(err, service.ErrKYCPending),
		errors.Is(err, service.ErrKYCReviewed),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrInvoiceBusy),
		errors.Is(err, service.ErrTooManyImages):
		fail(c, http.StatusConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallback)
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paged(c *gin.Context, key string, list interface{}, total int64, page, limit int) {
	success(c, http.StatusOK, gin.H{key: list, "pagination": service.NewPagination(page, limit, total)})
}
