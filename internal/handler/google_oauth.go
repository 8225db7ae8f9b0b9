package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"pgnest/config"
	"pgnest/internal/models"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthStateCookie = "pgnest_oauth_state"

type GoogleOAuthHandler struct {
	cfg         *config.Config
	authSvc     *service.AuthService
	referralSvc *service.ReferralService
	audit       *Auditor
	// overridable in tests
	userInfoURL  string
	tokenInfoURL string
}

func NewGoogleOAuthHandler(cfg *config.Config, authSvc *service.AuthService, referralSvc *service.ReferralService, audit *Auditor) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		cfg:          cfg,
		authSvc:      authSvc,
		referralSvc:  referralSvc,
		audit:        audit,
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		tokenInfoURL: "https://oauth2.googleapis.com/tokeninfo",
	}
}

func (h *GoogleOAuthHandler) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.OAuth.GoogleClientID,
		ClientSecret: h.cfg.OAuth.GoogleClientSecret,
		RedirectURL:  h.cfg.OAuth.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

func (h *GoogleOAuthHandler) configured(c *gin.Context) bool {
	if h.cfg.OAuth.GoogleClientID == "" {
		fail(c, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return false
	}
	return true
}

// Redirect sends the browser to the Google consent screen.
func (h *GoogleOAuthHandler) Redirect(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.cfg.IsProduction(), true)
	c.Redirect(http.StatusFound, h.OAuth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// googleBool decodes flags tokeninfo sends either as JSON booleans or as "true"/"false".
type googleBool bool

func (b *googleBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	*b = googleBool(s == "true")
	return nil
}

// Callback exchanges the code, fetches the profile and signs the user in.
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, "missing code")
		return
	}
	if state, err := c.Cookie(oauthStateCookie); err != nil || state != c.Query("state") {
		fail(c, http.StatusBadRequest, "invalid OAuth state")
		return
	}
	ctx := c.Request.Context()
	conf := h.OAuth2Config()
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		fail(c, http.StatusBadRequest, "code exchange failed")
		return
	}
	resp, err := conf.Client(ctx, tok).Get(h.userInfoURL)
	if err != nil {
		fail(c, http.StatusBadGateway, "failed to get user info")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail(c, http.StatusBadGateway, "failed to get user info")
		return
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.ID == "" || info.Email == "" {
		fail(c, http.StatusBadGateway, "invalid user info")
		return
	}
	h.finish(c, info.ID, info.Email, info.VerifiedEmail, info.Name, info.Picture, "", "", "google_oauth_login")
}

// tokeninfoResponse is the reply of the tokeninfo endpoint for an id_token.
type tokeninfoResponse struct {
	Sub           string     `json:"sub"`
	Aud           string     `json:"aud"`
	Email         string     `json:"email"`
	EmailVerified googleBool `json:"email_verified"`
	Name          string     `json:"name"`
	Picture       string     `json:"picture"`
}

// Token signs in with an id_token obtained by a client-side Google button.
// role and referral_code apply only when a new account is created.
func (h *GoogleOAuthHandler) Token(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	var req struct {
		IDToken      string `json:"id_token" binding:"required"`
		Role         string `json:"role" binding:"omitempty,oneof=USER OWNER"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := http.Get(h.tokenInfoURL + "?id_token=" + url.QueryEscape(req.IDToken))
	if err != nil {
		fail(c, http.StatusBadGateway, "token verification failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[auth] google tokeninfo rejected token: %s", body)
		fail(c, http.StatusUnauthorized, "invalid id_token")
		return
	}
	var info tokeninfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		fail(c, http.StatusBadGateway, "invalid token response")
		return
	}
	if info.Sub == "" || info.Email == "" || info.Aud != h.cfg.OAuth.GoogleClientID {
		fail(c, http.StatusUnauthorized, "invalid id_token")
		return
	}
	h.finish(c, info.Sub, info.Email, bool(info.EmailVerified), info.Name, info.Picture, req.Role, req.ReferralCode, "google_token_login")
}

func (h *GoogleOAuthHandler) finish(c *gin.Context, googleID, email string, emailVerified bool, name, picture, role, referralCode, action string) {
	u, tokens, isNew, err := h.authSvc.LoginWithGoogle(googleID, email, emailVerified, name, picture, role)
	if errors.Is(err, service.ErrEmailNotVerified) {
		fail(c, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		log.Printf("[auth] google login failed for %s: %v", email, err)
		fail(c, http.StatusInternalServerError, "login failed")
		return
	}
	if isNew && referralCode != "" && h.referralSvc != nil {
		h.attachReferral(referralCode, u)
	}
	h.audit.Record(c, u.ID, action, "auth", u.ID, gin.H{"new_user": isNew})
	success(c, http.StatusOK, gin.H{
		"user":          u,
		"new_user":      isNew,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (h *GoogleOAuthHandler) attachReferral(code string, u *models.User) {
	referrer, err := h.referralSvc.Referrer(code)
	if err != nil {
		return
	}
	if err := h.referralSvc.Attach(referrer, u); err != nil {
		log.Printf("[referral] attach user=%d: %v", u.ID, err)
	}
}
