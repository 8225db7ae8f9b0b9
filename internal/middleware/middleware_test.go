package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pgnest/config"
	"pgnest/internal/auth"
	"pgnest/internal/domain"
	"pgnest/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = &config.JWTConfig{
	AccessSecret:  "access",
	RefreshSecret: "refresh",
	AccessExpiry:  time.Hour,
	RefreshExpiry: 24 * time.Hour,
	Issuer:        "pgnest-test",
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	tok, err := auth.IssueAccess(testJWT, userID, "u@example.com", role)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return "Bearer " + tok
}

func serve(r *gin.Engine, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndRoles(t *testing.T) {
	r := gin.New()
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"user": GetUserID(c), "role": GetRole(c)}) }
	r.GET("/me", AuthRequired(testJWT), ok)
	r.GET("/owner", AuthRequired(testJWT), RequireRole(domain.RoleOwner, domain.RoleAdmin), ok)
	r.GET("/admin", AuthRequired(testJWT), AdminRequired(), ok)

	if w := serve(r, http.MethodGet, "/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token code = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/me", "Token abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad scheme code = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/me", "Bearer garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token code = %d", w.Code)
	}
	user := bearer(t, 7, domain.RoleUser)
	owner := bearer(t, 8, domain.RoleOwner)
	if w := serve(r, http.MethodGet, "/me", user); w.Code != http.StatusOK {
		t.Fatalf("user /me code = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/owner", user); w.Code != http.StatusForbidden {
		t.Fatalf("user /owner code = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/owner", owner); w.Code != http.StatusOK {
		t.Fatalf("owner /owner code = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/admin", owner); w.Code != http.StatusForbidden {
		t.Fatalf("owner /admin code = %d", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	var seen uint
	r.GET("/listings/1", OptionalAuth(testJWT), func(c *gin.Context) {
		seen = GetUserID(c)
		c.Status(http.StatusNoContent)
	})
	if w := serve(r, http.MethodGet, "/listings/1", "Bearer garbage"); w.Code != http.StatusNoContent || seen != 0 {
		t.Fatalf("anonymous code=%d user=%d", w.Code, seen)
	}
	if w := serve(r, http.MethodGet, "/listings/1", bearer(t, 9, domain.RoleUser)); w.Code != http.StatusNoContent || seen != 9 {
		t.Fatalf("signed code=%d user=%d", w.Code, seen)
	}
}

type kycByUser map[uint]*models.UserKYC

func (k kycByUser) Latest(userID uint) (*models.UserKYC, error) {
	if v, ok := k[userID]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestKYCVerified(t *testing.T) {
	store := kycByUser{
		7: {UserID: 7, Status: domain.KYCStatusVerified},
		8: {UserID: 8, Status: domain.KYCStatusPending},
	}
	r := gin.New()
	r.POST("/book", AuthRequired(testJWT), KYCVerified(store), func(c *gin.Context) { c.Status(http.StatusCreated) })

	if w := serve(r, http.MethodPost, "/book", bearer(t, 7, domain.RoleUser)); w.Code != http.StatusCreated {
		t.Fatalf("verified code = %d", w.Code)
	}
	for _, id := range []uint{8, 9} {
		if w := serve(r, http.MethodPost, "/book", bearer(t, id, domain.RoleUser)); w.Code != http.StatusForbidden {
			t.Fatalf("user %d code = %d, want 403", id, w.Code)
		}
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewMemoryLimiter(Quota{Limit: 2, Window: time.Minute})
	r := gin.New()
	r.POST("/contact", RateLimit(limiter, "contact"), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodPost, "/contact", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d code = %d", i+1, w.Code)
		}
	}
	w := serve(r, http.MethodPost, "/contact", "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "60" {
		t.Fatalf("third request code=%d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if ok, _, _ := limiter.Allow(context.Background(), "contact:ip:other"); !ok {
		t.Fatalf("other keys should have their own bucket")
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Quota{Limit: 1, Window: time.Minute})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _, _ := l.Allow(ctx, "k"); !ok {
		t.Fatal("first request refused")
	}
	now = now.Add(20 * time.Second)
	ok, retry, _ := l.Allow(ctx, "k")
	if ok || retry != 40*time.Second {
		t.Fatalf("second request ok=%v retry=%v, want refused with 40s", ok, retry)
	}
	now = now.Add(40 * time.Second)
	if ok, _, _ := l.Allow(ctx, "k"); !ok {
		t.Fatal("request after the window refused")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.GET("/listings", RateLimit(failingLimiter{}, "global"), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := serve(r, http.MethodGet, "/listings", ""); w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 when the limiter errors", w.Code)
	}
}
