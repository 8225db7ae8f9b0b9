package handler

import (
	"net/http"
	"strings"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo  *repository.UserRepository
	notifRepo *repository.NotificationRepository
	kycSvc    *service.KYCService
	audit     *Auditor
}

func NewMeHandler(
	userRepo *repository.UserRepository,
	notifRepo *repository.NotificationRepository,
	kycSvc *service.KYCService,
	audit *Auditor,
) *MeHandler {
	return &MeHandler{
		userRepo:  userRepo,
		notifRepo: notifRepo,
		kycSvc:    kycSvc,
		audit:     audit,
	}
}

// RegisterFCMToken saves the FCM token for push notifications.
func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required,max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.userRepo.UpdateFields(middleware.GetUserID(c), map[string]interface{}{"fcm_token": req.Token}); err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	success(c, http.StatusOK, nil)
}

// GetProfile returns the current user with KYC state and unread notification count.
func (h *MeHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil || u == nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	resp := gin.H{"user": u}
	if h.kycSvc != nil {
		if st, err := h.kycSvc.State(userID); err == nil {
			resp["kyc"] = st
		}
	}
	if unread, err := h.notifRepo.CountUnread(userID); err == nil {
		resp["unread_notifications"] = unread
	}
	success(c, http.StatusOK, resp)
}

// ProfileRequest is the editable part of the profile. Omitted fields are unchanged.
type ProfileRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=120"`
	Phone      *string `json:"phone" binding:"omitempty,max=20"`
	Gender     *string `json:"gender" binding:"omitempty,oneof=male female other"`
	City       *string `json:"city" binding:"omitempty,max=100"`
	Occupation *string `json:"occupation" binding:"omitempty,max=100"`
}

func (r ProfileRequest) fields() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			out[col] = strings.TrimSpace(*v)
		}
	}
	set("name", r.Name)
	set("phone", r.Phone)
	set("gender", r.Gender)
	set("city", r.City)
	set("occupation", r.Occupation)
	return out
}

// UpdateProfile handles PATCH /me.
func (h *MeHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	fields := req.fields()
	if len(fields) == 0 {
		fail(c, http.StatusBadRequest, "no valid fields to update")
		return
	}
	if name, ok := fields["name"]; ok && name == "" {
		failFields(c, map[string]string{"name": "is required"})
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.userRepo.UpdateFields(userID, fields); err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	h.audit.Record(c, userID, "profile_updated", "user", userID, nil)
	success(c, http.StatusOK, gin.H{"user": u})
}
