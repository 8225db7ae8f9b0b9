package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxImageSize = 8 << 20

type UploadHandler struct {
	cloud    cloudinary.Client
	userRepo *repository.UserRepository
	folder   string
}

// NewUploadHandler accepts a nil client; uploads then answer 503.
func NewUploadHandler(cloud cloudinary.Client, userRepo *repository.UserRepository, folder string) *UploadHandler {
	return &UploadHandler{cloud: cloud, userRepo: userRepo, folder: folder}
}

// UploadAvatar handles POST /me/avatar (multipart field "file") and stores the URL on the profile.
func (h *UploadHandler) UploadAvatar(c *gin.Context) {
	if h.cloud == nil {
		serviceError(c, cloudinary.ErrNotConfigured, "")
		return
	}
	userID := middleware.GetUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		failFields(c, map[string]string{"file": "is required"})
		return
	}
	if file.Size > maxImageSize {
		failFields(c, map[string]string{"file": "must be at most 8 MB"})
		return
	}
	folder := h.folder + "/avatars/" + strconv.FormatUint(uint64(userID), 10)
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]

	f, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "could not read file")
		return
	}
	defer f.Close()

	url, _, err := h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	if err != nil {
		log.Printf("[upload] avatar for user=%d: %v", userID, err)
		fail(c, http.StatusInternalServerError, "upload failed")
		return
	}
	old := ""
	if u, err := h.userRepo.GetByID(userID); err == nil {
		old = u.AvatarURL
	}
	if err := h.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": url}); err != nil {
		fail(c, http.StatusInternalServerError, "update failed")
		return
	}
	if old != "" && strings.Contains(old, "res.cloudinary.com") {
		if err := h.cloud.DeleteByURL(c.Request.Context(), old); err != nil {
			log.Printf("[upload] delete old avatar %s: %v", old, err)
		}
	}
	success(c, http.StatusOK, gin.H{"avatar_url": url})
}
