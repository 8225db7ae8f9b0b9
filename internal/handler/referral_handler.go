package handler

import (
	"net/http"

	"pgnest/internal/middleware"
	"pgnest/internal/repository"
	"pgnest/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	svc          *service.ReferralService
	userRepo     *repository.UserRepository
	referralRepo *repository.ReferralRepository
}

func NewReferralHandler(svc *service.ReferralService, userRepo *repository.UserRepository, referralRepo *repository.ReferralRepository) *ReferralHandler {
	return &ReferralHandler{svc: svc, userRepo: userRepo, referralRepo: referralRepo}
}

// GetMyReferrals returns the user's code, what it has earned and who signed up with it.
// GET /me/referrals
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	page, limit := parsePagination(c)
	sum, err := h.svc.Summary(u, limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not list referrals")
		return
	}
	out := make([]gin.H, 0, len(sum.Referrals))
	for _, ref := range sum.Referrals {
		out = append(out, gin.H{
			"referred_user": ref.ReferredUser.DisplayName(),
			"status":        ref.Status,
			"reward_paise":  ref.RewardPaise,
			"credited_at":   ref.CreditedAt,
			"created_at":    ref.CreatedAt,
		})
	}
	success(c, http.StatusOK, gin.H{
		"referral_code":             sum.Code,
		"earned_paise":              sum.EarnedPaise,
		"earned":                    sum.Earned,
		"reward_per_referral_paise": sum.RewardPaise,
		"referrals":                 out,
	})
}

// AdminList handles GET /admin/referrals.
func (h *ReferralHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.referralRepo.List(c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list referrals")
		return
	}
	paged(c, "referrals", list, total, page, limit)
}
