package repository

import (
	"strings"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

// ListingFilter is a browse/search query. Zero values mean "no filter".
type ListingFilter struct {
	Query           string
	City            string
	Gender          string
	Food            string
	MinPrice        int64
	MaxPrice        int64
	Sort            string
	OwnerID         uint
	IncludeInactive bool

	// Bounding box applied when HasBounds is set; callers refine by exact distance.
	HasBounds      bool
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

var listingSorts = map[string]string{
	"newest":     "listings.created_at DESC",
	"oldest":     "listings.created_at ASC",
	"price_low":  "listings.starting_rent_paise ASC",
	"price_high": "listings.starting_rent_paise DESC",
	"rating":     "listings.avg_rating DESC, listings.review_count DESC",
}

// ValidListingSort reports whether s is a supported sort key.
func ValidListingSort(s string) bool {
	_, ok := listingSorts[s]
	return ok
}

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(l *models.Listing) error {
	return r.db.Create(l).Error
}

func (r *ListingRepository) Update(l *models.Listing) error {
	return r.db.Omit("Owner", "Images", "Rooms").Save(l).Error
}

func (r *ListingRepository) GetByID(id uint) (*models.Listing, error) {
	var l models.Listing
	if err := r.db.First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetActive returns an active listing with images and rooms.
func (r *ListingRepository) GetActive(id uint) (*models.Listing, error) {
	var l models.Listing
	err := r.db.Where("id = ? AND status = ?", id, domain.ListingStatusActive).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("rent_paise ASC") }).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetDetail returns a listing in any status with owner, images and rooms.
func (r *ListingRepository) GetDetail(id uint) (*models.Listing, error) {
	var l models.Listing
	err := r.db.Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("rent_paise ASC") }).
		First(&l, id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) SetStatus(id uint, status string) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Update("status", status).Error
}

// Search applies f and returns one page plus the total match count.
// limit <= 0 returns every match.
func (r *ListingRepository) Search(f ListingFilter, limit, offset int) ([]models.Listing, int64, error) {
	q := r.filtered(f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order, ok := listingSorts[f.Sort]
	if !ok {
		order = listingSorts["newest"]
	}
	q = r.filtered(f).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Order(order).Order("listings.id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	var list []models.Listing
	err := q.Find(&list).Error
	return list, total, err
}

// likeEscaper escapes LIKE wildcards for use with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern matches s literally anywhere in a column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *ListingRepository) filtered(f ListingFilter) *gorm.DB {
	q := r.db.Model(&models.Listing{})
	if !f.IncludeInactive {
		q = q.Where("listings.status = ?", domain.ListingStatusActive)
	}
	if f.OwnerID != 0 {
		q = q.Where("listings.owner_id = ?", f.OwnerID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := containsPattern(s)
		q = q.Where("(listings.title LIKE ? ESCAPE '!' OR listings.description LIKE ? ESCAPE '!' OR listings.address LIKE ? ESCAPE '!')", like, like, like)
	}
	if s := strings.TrimSpace(f.City); s != "" {
		like := containsPattern(s)
		q = q.Where("(listings.city LIKE ? ESCAPE '!' OR listings.address LIKE ? ESCAPE '!' OR listings.title LIKE ? ESCAPE '!' OR listings.description LIKE ? ESCAPE '!')", like, like, like, like)
	}
	if f.Gender != "" {
		if f.Gender == domain.GenderUnisex {
			q = q.Where("listings.gender = ?", domain.GenderUnisex)
		} else {
			q = q.Where("listings.gender IN ?", []string{f.Gender, domain.GenderUnisex})
		}
	}
	if f.Food != "" {
		q = q.Where("listings.food = ?", f.Food)
	}
	if f.MinPrice > 0 {
		q = q.Where("listings.starting_rent_paise >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("listings.starting_rent_paise <= ?", f.MaxPrice)
	}
	if f.HasBounds {
		q = q.Where("listings.latitude BETWEEN ? AND ?", f.MinLat, f.MaxLat).
			Where("listings.longitude BETWEEN ? AND ?", f.MinLng, f.MaxLng)
	}
	return q
}

func (r *ListingRepository) AddImage(img *models.ListingImage) error {
	return r.db.Create(img).Error
}

func (r *ListingRepository) DeleteImage(listingID, imageID uint) error {
	return r.db.Where("id = ? AND listing_id = ?", imageID, listingID).Delete(&models.ListingImage{}).Error
}

func (r *ListingRepository) CountImages(listingID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.ListingImage{}).Where("listing_id = ?", listingID).Count(&n).Error
	return n, err
}

// RecomputeRating stores the review average and count on the listing.
func (r *ListingRepository) RecomputeRating(listingID uint) error {
	var row struct {
		Avg   float64
		Count int
	}
	err := r.db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("listing_id = ?", listingID).
		Scan(&row).Error
	if err != nil {
		return err
	}
	return r.db.Model(&models.Listing{}).Where("id = ?", listingID).
		UpdateColumns(map[string]interface{}{"avg_rating": row.Avg, "review_count": row.Count}).Error
}

func (r *ListingRepository) CountByStatus(ownerID uint) (active, inactive int64, err error) {
	base := func() *gorm.DB {
		q := r.db.Model(&models.Listing{})
		if ownerID != 0 {
			q = q.Where("owner_id = ?", ownerID)
		}
		return q
	}
	if err = base().Where("status = ?", domain.ListingStatusActive).Count(&active).Error; err != nil {
		return
	}
	err = base().Where("status = ?", domain.ListingStatusInactive).Count(&inactive).Error
	return
}
