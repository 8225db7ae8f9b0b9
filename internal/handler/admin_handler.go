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

type AdminHandler struct {
	adminRepo   *repository.AdminRepository
	userRepo    *repository.UserRepository
	auditRepo   *repository.AuditLogRepository
	settingsSvc *service.SettingsService
	authSvc     *service.AuthService
	audit       *Auditor
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditLogRepository,
	settingsSvc *service.SettingsService,
	authSvc *service.AuthService,
	audit *Auditor,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:   adminRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		settingsSvc: settingsSvc,
		authSvc:     authSvc,
		audit:       audit,
	}
}

// AdminLogin handles POST /admin/login, which only admits ADMIN accounts.
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, tokens, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		h.audit.Record(c, 0, "admin_login_failed", "auth", nil, gin.H{"email": req.Email})
		serviceError(c, err, "login failed")
		return
	}
	if u.Role != domain.RoleAdmin {
		h.audit.Record(c, u.ID, "admin_login_denied", "auth", u.ID, nil)
		fail(c, http.StatusForbidden, "admin access required")
		return
	}
	h.audit.Record(c, u.ID, "admin_login", "auth", u.ID, nil)
	success(c, http.StatusOK, gin.H{
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load stats")
		return
	}
	success(c, http.StatusOK, gin.H{"data": stats})
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	signups, _ := h.adminRepo.UserSignupsByDay(days)
	bookings, _ := h.adminRepo.BookingsByDay(days)
	revenue, _ := h.adminRepo.RevenueByDay(days)
	success(c, http.StatusOK, gin.H{
		"signups":  signups,
		"bookings": bookings,
		"revenue":  revenue,
		"days":     days,
	})
}

// ListUsers handles GET /admin/users?search=&role=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.userRepo.List(c.Query("search"), c.Query("role"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list users")
		return
	}
	paged(c, "users", users, total, page, limit)
}

// GetUser handles GET /admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.userRepo.GetByID(id)
	if err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	success(c, http.StatusOK, gin.H{"user": u})
}

// UpdateUserRole handles PATCH /admin/users/:id/role.
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required,oneof=USER OWNER ADMIN"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	adminID := middleware.GetUserID(c)
	if id == adminID && req.Role != domain.RoleAdmin {
		fail(c, http.StatusBadRequest, "you cannot remove your own admin role")
		return
	}
	if _, err := h.userRepo.GetByID(id); err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	if err := h.userRepo.UpdateFields(id, map[string]interface{}{"role": req.Role}); err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	h.audit.Record(c, adminID, "user_role_changed", "user", id, gin.H{"role": req.Role})
	success(c, http.StatusOK, nil)
}

// ListListings handles GET /admin/listings?search=&status=.
func (h *AdminHandler) ListListings(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListListings(c.Query("search"), c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list listings")
		return
	}
	paged(c, "listings", list, total, page, limit)
}

// ListReviews handles GET /admin/reviews.
func (h *AdminHandler) ListReviews(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListReviews(limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	paged(c, "reviews", list, total, page, limit)
}

// AuditLog handles GET /admin/audit-logs?action=.
func (h *AdminHandler) AuditLog(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.auditRepo.List(c.Query("action"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	paged(c, "logs", list, total, page, limit)
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsSvc.All()
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load settings")
		return
	}
	success(c, http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings handles PUT /admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		Settings map[string]string `json:"settings" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.settingsSvc.Update(req.Settings, middleware.GetUserID(c)); err != nil {
		serviceError(c, err, "failed to update settings")
		return
	}
	h.audit.Record(c, middleware.GetUserID(c), "settings_updated", "settings", nil, gin.H{"settings": req.Settings})
	settings, _ := h.settingsSvc.All()
	success(c, http.StatusOK, gin.H{"settings": settings})
}
