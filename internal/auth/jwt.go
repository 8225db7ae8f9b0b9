package auth

import (
	"errors"
	"strconv"
	"time"

	"pgnest/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Tokens of each kind are signed with their own secret and audience, so a refresh
// token never authenticates an API call and an access token never mints a session.
const (
	AudienceAPI     = "pgnest-api"
	AudienceRefresh = "pgnest-refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the marketplace identity carried by an access token. Subject holds the
// user id as a decimal string.
type Claims struct {
	UserID uint   `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func registered(cfg *config.JWTConfig, userID uint, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Audience:  jwt.ClaimStrings{audience},
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func IssueAccess(cfg *config.JWTConfig, userID uint, email, role string) (string, error) {
	claims := Claims{
		UserID:           userID,
		Email:            email,
		Role:             role,
		RegisteredClaims: registered(cfg, userID, AudienceAPI, cfg.AccessExpiry),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessSecret))
}

func IssueRefresh(cfg *config.JWTConfig, userID uint) (string, error) {
	claims := registered(cfg, userID, AudienceRefresh, cfg.RefreshExpiry)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.RefreshSecret))
}

func parserOptions(cfg *config.JWTConfig, audience string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return opts
}

// ParseAccess validates a bearer token for the API.
func ParseAccess(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessSecret), nil
	}, parserOptions(cfg, AudienceAPI)...)
	if err != nil || claims.UserID == 0 || claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh validates a refresh token and returns the user it was issued to.
func ParseRefresh(cfg *config.JWTConfig, tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.RefreshSecret), nil
	}, parserOptions(cfg, AudienceRefresh)...)
	if err != nil {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
