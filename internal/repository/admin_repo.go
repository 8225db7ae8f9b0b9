package repository

import (
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers        int64            `json:"total_users"`
	TotalOwners       int64            `json:"total_owners"`
	ActiveListings    int64            `json:"active_listings"`
	InactiveListings  int64            `json:"inactive_listings"`
	BookingsByStatus  map[string]int64 `json:"bookings_by_status"`
	RevenuePaise      int64            `json:"revenue_paise"`
	Revenue           string           `json:"revenue"`
	PendingKYC        int64            `json:"pending_kyc"`
	PendingVisits     int64            `json:"pending_visits"`
	CreditedReferrals int64            `json:"credited_referrals"`
	OpenContacts      int64            `json:"open_contacts"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type RevenuePoint struct {
	Date        string `json:"date"`
	AmountPaise int64  `json:"amount_paise"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	r.db.Model(&models.User{}).Count(&s.TotalUsers)
	r.db.Model(&models.User{}).Where("role = ?", domain.RoleOwner).Count(&s.TotalOwners)
	r.db.Model(&models.Listing{}).Where("status = ?", domain.ListingStatusActive).Count(&s.ActiveListings)
	r.db.Model(&models.Listing{}).Where("status = ?", domain.ListingStatusInactive).Count(&s.InactiveListings)

	bookings, err := NewBookingRepository(r.db).CountByStatus(0)
	if err != nil {
		return nil, err
	}
	s.BookingsByStatus = bookings

	rev, err := NewPaymentRepository(r.db).SumSuccessful(0)
	if err != nil {
		return nil, err
	}
	s.RevenuePaise = rev
	s.Revenue = domain.FormatINR(rev)

	r.db.Model(&models.UserKYC{}).Where("status = ?", domain.KYCStatusPending).Count(&s.PendingKYC)
	r.db.Model(&models.VisitBooking{}).Where("status = ?", domain.VisitStatusPending).Count(&s.PendingVisits)
	r.db.Model(&models.Referral{}).Where("status = ?", domain.ReferralStatusCredited).Count(&s.CreditedReferrals)
	r.db.Model(&models.Contact{}).Where("resolved_at IS NULL").Count(&s.OpenContacts)
	return &s, nil
}

// UserSignupsByDay returns daily signup counts for the last N days.
func (r *AdminRepository) UserSignupsByDay(days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.Model(&models.User{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// BookingsByDay returns daily booking counts for the last N days.
func (r *AdminRepository) BookingsByDay(days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.Model(&models.Booking{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// RevenueByDay returns daily successful payment revenue for the last N days.
func (r *AdminRepository) RevenueByDay(days int) ([]RevenuePoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []RevenuePoint
	err := r.db.Model(&models.Payment{}).
		Select("DATE(completed_at) as date, COALESCE(SUM(amount_paise), 0) as amount_paise").
		Where("status = ? AND completed_at >= ?", domain.PaymentStatusSuccess, since).
		Group("DATE(completed_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// ListListings returns listings in any status with owner preloaded.
func (r *AdminRepository) ListListings(search, status string, limit, offset int) ([]models.Listing, int64, error) {
	q := r.db.Model(&models.Listing{})
	if search != "" {
		like := containsPattern(search)
		q = q.Where("title LIKE ? ESCAPE '!' OR city LIKE ? ESCAPE '!'", like, like)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Listing
	err := q.Preload("Owner").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// ListReviews returns reviews across listings, newest first.
func (r *AdminRepository) ListReviews(limit, offset int) ([]models.Review, int64, error) {
	var total int64
	r.db.Model(&models.Review{}).Count(&total)
	var list []models.Review
	err := r.db.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
