package middleware

import (
	"net/http"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"github.com/gin-gonic/gin"
)

// KYCSource returns the latest KYC submission of a user.
type KYCSource interface {
	Latest(userID uint) (*models.UserKYC, error)
}

// KYCVerified lets the request through only when the user's latest KYC is verified.
// Use after AuthRequired.
func KYCVerified(kyc KYCSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		k, err := kyc.Latest(userID)
		if err != nil || k == nil || k.Status != domain.KYCStatusVerified {
			status := "not_submitted"
			if k != nil {
				status = k.Status
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":     "error",
				"message":    "Complete KYC verification before booking",
				"kyc_status": status,
				"step":       "kyc",
			})
			return
		}
		c.Next()
	}
}

// AdminRequired checks that the authenticated user has the ADMIN role.
func AdminRequired() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
