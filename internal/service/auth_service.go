package service

import (
	"errors"
	"log"
	"strings"

	"pgnest/config"
	"pgnest/internal/auth"
	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists      = errors.New("email already registered")
	ErrInvalidCreds     = errors.New("invalid email or password")
	ErrPasswordNotSet   = errors.New("account uses Google sign-in and has no password")
	ErrReferralCodeFull = errors.New("could not allocate a referral code")
	ErrEmailNotVerified = errors.New("Google account email is not verified")
)

type UserStore interface {
	Create(u *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
	Update(u *models.User) error
	ReferralCodeTaken(code string) (bool, error)
}

type Welcomer interface {
	Welcome(u *models.User)
}

type AuthService struct {
	cfg       *config.Config
	users     UserStore
	referrals *ReferralService
	welcomer  Welcomer
}

func NewAuthService(cfg *config.Config, users UserStore, referrals *ReferralService, welcomer Welcomer) *AuthService {
	return &AuthService{cfg: cfg, users: users, referrals: referrals, welcomer: welcomer}
}

type RegisterRequest struct {
	Name         string `json:"name" binding:"required,max=120"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"omitempty,max=20"`
	Password     string `json:"password" binding:"required,min=8"`
	Role         string `json:"role" binding:"omitempty,oneof=USER OWNER"`
	ReferralCode string `json:"referral_code" binding:"omitempty,max=20"`
}

// Tokens is the session handed to clients.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *AuthService) issue(u *models.User) (*Tokens, error) {
	access, err := auth.IssueAccess(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.IssueRefresh(&s.cfg.JWT, u.ID)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) newReferralCode() (string, error) {
	for i := 0; i < 5; i++ {
		code, err := repository.GenerateReferralCode()
		if err != nil {
			return "", err
		}
		taken, err := s.users.ReferralCodeTaken(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrReferralCodeFull
}

func (s *AuthService) Register(req RegisterRequest) (*models.User, *Tokens, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleOwner {
		return nil, nil, fieldError("role", "must be USER or OWNER")
	}
	_, err := s.users.GetByEmail(email)
	if err == nil {
		return nil, nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	var referrer *models.User
	if req.ReferralCode != "" && s.referrals != nil {
		referrer, err = s.referrals.Referrer(req.ReferralCode)
		if err != nil {
			if errors.Is(err, ErrInvalidReferralCode) {
				return nil, nil, fieldError("referral_code", err.Error())
			}
			return nil, nil, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	code, err := s.newReferralCode()
	if err != nil {
		return nil, nil, err
	}
	u := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hash),
		Role:         role,
		ReferralCode: code,
	}
	if err := s.users.Create(u); err != nil {
		return nil, nil, err
	}
	if referrer != nil {
		if err := s.referrals.Attach(referrer, u); err != nil {
			log.Printf("[referral] attach user=%d to referrer=%d: %v", u.ID, referrer.ID, err)
		}
	}
	if s.welcomer != nil {
		s.welcomer.Welcome(u)
	}
	tokens, err := s.issue(u)
	return u, tokens, err
}

func (s *AuthService) Login(email, password string) (*models.User, *Tokens, error) {
	u, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, err
	}
	if u.PasswordHash == "" {
		return nil, nil, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCreds
	}
	tokens, err := s.issue(u)
	return u, tokens, err
}

// LoginWithGoogle finds the user by Google id, links an existing email account, or
// creates a new user. Linking and creating require an email Google has verified.
// role applies to new users only and defaults to USER.
func (s *AuthService) LoginWithGoogle(googleID, email string, emailVerified bool, name, avatarURL, role string) (*models.User, *Tokens, bool, error) {
	u, err := s.users.GetByGoogleID(googleID)
	if err == nil {
		tokens, err := s.issue(u)
		return u, tokens, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, false, err
	}
	if !emailVerified {
		return nil, nil, false, ErrEmailNotVerified
	}
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.users.GetByEmail(email)
	if err == nil && existing != nil {
		gid := googleID
		existing.GoogleID = &gid
		if existing.AvatarURL == "" {
			existing.AvatarURL = avatarURL
		}
		if existing.Name == "" {
			existing.Name = name
		}
		if err := s.users.Update(existing); err != nil {
			return nil, nil, false, err
		}
		tokens, err := s.issue(existing)
		return existing, tokens, false, err
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, false, err
	}
	if role != domain.RoleOwner {
		role = domain.RoleUser
	}
	code, err := s.newReferralCode()
	if err != nil {
		return nil, nil, false, err
	}
	gid := googleID
	u = &models.User{
		Name:         name,
		Email:        email,
		GoogleID:     &gid,
		Role:         role,
		AvatarURL:    avatarURL,
		ReferralCode: code,
	}
	if err := s.users.Create(u); err != nil {
		return nil, nil, false, err
	}
	if s.welcomer != nil {
		s.welcomer.Welcome(u)
	}
	tokens, err := s.issue(u)
	return u, tokens, true, err
}

// ChangePassword updates the user's password after checking the current one.
// Google-only accounts may set a first password with an empty current password.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.users.GetByID(userID)
	if err != nil || u == nil {
		return ErrInvalidCreds
	}
	if u.PasswordHash == "" {
		if u.GoogleID == nil || currentPassword != "" {
			return ErrPasswordNotSet
		}
	} else if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.users.Update(u)
}

func (s *AuthService) RefreshToken(refreshToken string) (*Tokens, error) {
	userID, err := auth.ParseRefresh(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return s.issue(u)
}
