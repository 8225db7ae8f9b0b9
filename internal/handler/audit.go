package handler

import (
	"encoding/json"
	"fmt"
	"log"

	"pgnest/internal/models"
	"pgnest/internal/repository"

	"github.com/gin-gonic/gin"
)

// Auditor records sensitive actions with the caller's IP and user agent.
type Auditor struct {
	repo *repository.AuditLogRepository
}

func NewAuditor(repo *repository.AuditLogRepository) *Auditor {
	return &Auditor{repo: repo}
}

func (a *Auditor) Record(c *gin.Context, userID uint, action, resource string, resourceID interface{}, meta gin.H) {
	if a == nil || a.repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if userID != 0 {
		entry.UserID = &userID
	}
	if resourceID != nil {
		entry.ResourceID = fmt.Sprint(resourceID)
	}
	if meta != nil {
		b, _ := json.Marshal(meta)
		entry.Metadata = string(b)
	}
	if err := a.repo.Create(entry); err != nil {
		log.Printf("[audit] %s failed: %v", action, err)
	}
}
