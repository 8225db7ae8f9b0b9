package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pgnest/internal/service"
	"pgnest/pkg/cloudinary"
	"pgnest/pkg/payment"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{service.ErrKYCRequired, http.StatusForbidden},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrListingNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", service.ErrBookingNotFound), http.StatusNotFound},
		{service.ErrNoBedsAvailable, http.StatusConflict},
		{service.ErrPaymentRequired, http.StatusConflict},
		{service.ErrInvoiceBusy, http.StatusConflict},
		{service.ErrPaymentVerification, http.StatusBadRequest},
		{payment.ErrInvalidSignature, http.StatusBadRequest},
		{cloudinary.ErrNotConfigured, http.StatusServiceUnavailable},
		{&service.ValidationError{Fields: map[string]string{"start_date": "bad"}}, http.StatusUnprocessableEntity},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			serviceError(c, tt.err, "fallback message")
			if w.Code != tt.code {
				t.Fatalf("code = %d, want %d", w.Code, tt.code)
			}
			body := decode(t, w)
			if body["status"] != "error" {
				t.Fatalf("status = %v", body["status"])
			}
			if tt.code == http.StatusInternalServerError && body["message"] != "fallback message" {
				t.Fatalf("500 should not leak the cause: %v", body["message"])
			}
		})
	}
}

func TestKYCRequiredCarriesStep(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	serviceError(c, service.ErrKYCRequired, "")
	if body := decode(t, w); body["step"] != "kyc" {
		t.Fatalf("body = %v", body)
	}
}

func TestBindErrorFieldNames(t *testing.T) {
	r := gin.New()
	r.POST("/book", func(c *gin.Context) {
		var req service.BookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		success(c, http.StatusCreated, gin.H{"ok": true})
	})

	body := []byte(`{"start_date":"April","duration_months":13}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/book", bytes.NewReader(body)))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d, body %s", w.Code, w.Body.String())
	}
	fields, _ := decode(t, w)["errors"].(map[string]interface{})
	want := map[string]string{
		"room_configuration_id": "is required",
		"start_date":            "must be YYYY-MM or YYYY-MM-DD",
		"duration_months":       "must be at most 12",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("errors[%s] = %v, want %q", k, fields[k], v)
		}
	}

	ok := []byte(`{"room_configuration_id":3,"start_date":"2030-05","duration_months":2}`)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/book", bytes.NewReader(ok)))
	if w.Code != http.StatusCreated {
		t.Fatalf("valid body code = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/book", bytes.NewReader([]byte("{"))))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body code = %d", w.Code)
	}
}

func TestParamIDAndPagination(t *testing.T) {
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		page, limit := parsePagination(c)
		paged(c, "things", []uint{id}, 45, page, limit)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/9?page=2&limit=500", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	pg, _ := decode(t, w)["pagination"].(map[string]interface{})
	if pg["page"] != float64(2) || pg["per_page"] != float64(20) || pg["total_pages"] != float64(3) {
		t.Fatalf("pagination = %v", pg)
	}
}
