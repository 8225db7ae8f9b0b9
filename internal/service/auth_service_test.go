package service

import (
	"errors"
	"testing"
	"time"

	"pgnest/config"
	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type fakeUsers struct {
	rows map[uint]*models.User
}

func (f *fakeUsers) Create(u *models.User) error {
	u.ID = uint(len(f.rows) + 1)
	f.rows[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(email string) (*models.User, error) {
	for _, u := range f.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByGoogleID(googleID string) (*models.User, error) {
	for _, u := range f.rows {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Update(u *models.User) error {
	f.rows[u.ID] = u
	return nil
}

func (f *fakeUsers) ReferralCodeTaken(code string) (bool, error) { return false, nil }

func newAuthService() (*AuthService, *fakeUsers) {
	cfg := &config.Config{JWT: config.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "pgnest-test",
	}}
	users := &fakeUsers{rows: map[uint]*models.User{
		1: {ID: 1, Name: "Meera", Email: "meera@example.com", PasswordHash: "$2a$10$hash", Role: domain.RoleOwner},
	}}
	return NewAuthService(cfg, users, nil, nil), users
}

func TestGoogleLoginUnverifiedEmailCannotLink(t *testing.T) {
	svc, users := newAuthService()
	_, _, _, err := svc.LoginWithGoogle("g-attacker", "Meera@example.com", false, "Mallory", "", "")
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("err = %v, want ErrEmailNotVerified", err)
	}
	if users.rows[1].GoogleID != nil {
		t.Fatalf("unverified Google identity was linked to the password account")
	}
	if _, _, _, err := svc.LoginWithGoogle("g-new", "new@example.com", false, "New", "", ""); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("create err = %v, want ErrEmailNotVerified", err)
	}
	if len(users.rows) != 1 {
		t.Fatalf("unverified sign-in created an account")
	}
}

func TestGoogleLoginLinksVerifiedEmail(t *testing.T) {
	svc, users := newAuthService()
	u, tokens, isNew, err := svc.LoginWithGoogle("g-meera", "meera@example.com", true, "Meera", "https://img/a.png", "")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if isNew || u.ID != 1 || tokens.AccessToken == "" {
		t.Fatalf("user=%d new=%v", u.ID, isNew)
	}
	if g := users.rows[1].GoogleID; g == nil || *g != "g-meera" {
		t.Fatalf("google id not linked")
	}

	// a linked identity keeps working regardless of the flag
	if again, _, _, err := svc.LoginWithGoogle("g-meera", "meera@example.com", false, "", "", ""); err != nil || again.ID != 1 {
		t.Fatalf("linked login = %v, %v", again, err)
	}

	fresh, _, isNew, err := svc.LoginWithGoogle("g-ravi", "ravi@example.com", true, "Ravi", "", domain.RoleAdmin)
	if err != nil || !isNew {
		t.Fatalf("create = %v new=%v", err, isNew)
	}
	if fresh.Role != domain.RoleUser || fresh.ReferralCode == "" {
		t.Fatalf("new user role=%q code=%q", fresh.Role, fresh.ReferralCode)
	}
}
