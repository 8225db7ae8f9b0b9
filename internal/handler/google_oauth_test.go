package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pgnest/config"
	"pgnest/internal/models"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type memUsers map[uint]*models.User

func (m memUsers) Create(u *models.User) error {
	u.ID = uint(len(m) + 1)
	m[u.ID] = u
	return nil
}

func (m memUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memUsers) GetByEmail(email string) (*models.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memUsers) GetByGoogleID(googleID string) (*models.User, error) {
	for _, u := range m {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memUsers) Update(u *models.User) error                 { m[u.ID] = u; return nil }
func (m memUsers) ReferralCodeTaken(code string) (bool, error) { return false, nil }

func tokeninfoServer(verified string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"sub":"g-1","aud":"client-1","email":"asha@example.com","email_verified":%s,"name":"Asha"}`, verified)
	}))
}

func googleTokenRequest(t *testing.T, tokeninfo string, users memUsers) *httptest.ResponseRecorder {
	t.Helper()
	cfg := &config.Config{
		JWT:   config.JWTConfig{AccessSecret: "a", RefreshSecret: "r", AccessExpiry: time.Hour, RefreshExpiry: time.Hour, Issuer: "pgnest-test"},
		OAuth: config.OAuthConfig{GoogleClientID: "client-1"},
	}
	h := NewGoogleOAuthHandler(cfg, service.NewAuthService(cfg, users, nil, nil), nil, nil)
	h.tokenInfoURL = tokeninfo
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/google/token", bytes.NewReader([]byte(`{"id_token":"tok"}`)))
	req.Header.Set("Content-Type", "application/json")
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	h.Token(c)
	return w
}

func TestGoogleTokenUnverifiedEmailRefused(t *testing.T) {
	for _, flag := range []string{`"false"`, `false`} {
		srv := tokeninfoServer(flag)
		users := memUsers{1: {ID: 1, Email: "asha@example.com", PasswordHash: "$2a$10$hash", Role: "USER"}}
		w := googleTokenRequest(t, srv.URL, users)
		srv.Close()
		if w.Code != http.StatusForbidden {
			t.Fatalf("email_verified=%s code = %d, body %s", flag, w.Code, w.Body.String())
		}
		if users[1].GoogleID != nil {
			t.Fatalf("email_verified=%s linked the account", flag)
		}
	}
}

func TestGoogleTokenVerifiedEmailLinks(t *testing.T) {
	srv := tokeninfoServer(`"true"`)
	defer srv.Close()
	users := memUsers{1: {ID: 1, Email: "asha@example.com", PasswordHash: "$2a$10$hash", Role: "USER"}}
	w := googleTokenRequest(t, srv.URL, users)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["new_user"] != false || body["access_token"] == "" {
		t.Fatalf("body = %v", body)
	}
	if g := users[1].GoogleID; g == nil || *g != "g-1" {
		t.Fatalf("google id not linked")
	}
}
