package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"
	"pgnest/pkg/cloudinary"
	"pgnest/pkg/location"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAlreadyReviewed = errors.New("you have already reviewed this listing")
	ErrReviewNotFound  = errors.New("review not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrTooManyImages   = errors.New("a listing can have at most 20 images")
)

const (
	maxListingImages  = 20
	defaultRadiusKm   = 5.0
	maxRadiusKm       = 50.0
	reviewsOnDetail   = 20
	sortDistance      = "distance"
	listingFolderName = "listings"
)

type ListingStore interface {
	Create(l *models.Listing) error
	Update(l *models.Listing) error
	GetByID(id uint) (*models.Listing, error)
	GetDetail(id uint) (*models.Listing, error)
	SetStatus(id uint, status string) error
	Search(f repository.ListingFilter, limit, offset int) ([]models.Listing, int64, error)
	AddImage(img *models.ListingImage) error
	DeleteImage(listingID, imageID uint) error
	CountImages(listingID uint) (int64, error)
	RecomputeRating(listingID uint) error
}

type RoomStore interface {
	Create(room *models.RoomConfiguration) error
	ListByListing(listingID uint) ([]models.RoomConfiguration, error)
	BulkUpdate(listingID uint, updates []repository.RoomUpdate) ([]models.RoomConfiguration, error)
	BookedBeds(roomID uint, from, to time.Time) (int, error)
}

type ReviewStore interface {
	Create(rv *models.Review) error
	Exists(userID, listingID uint) (bool, error)
	GetByID(id uint) (*models.Review, error)
	Delete(id uint) error
	ListByListing(listingID uint, limit, offset int) ([]models.Review, error)
	RatingBreakdown(listingID uint) (map[int]int64, error)
}

// SearchCache stores serialized search pages.
type SearchCache interface {
	Get(ctx context.Context, query string, dst interface{}) (bool, error)
	Set(ctx context.Context, query string, v interface{}) error
	Invalidate(ctx context.Context)
}

type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

type ListingService struct {
	listings ListingStore
	rooms    RoomStore
	reviews  ReviewStore
	cache    SearchCache
	uploader ImageUploader
	folder   string
	now      func() time.Time
}

func NewListingService(listings ListingStore, rooms RoomStore, reviews ReviewStore, cache SearchCache, uploader ImageUploader, folder string) *ListingService {
	return &ListingService{
		listings: listings,
		rooms:    rooms,
		reviews:  reviews,
		cache:    cache,
		uploader: uploader,
		folder:   folder,
		now:      time.Now,
	}
}

// SearchParams is the browse query. Prices are whole rupees.
type SearchParams struct {
	Query    string   `form:"q"`
	City     string   `form:"city"`
	Gender   string   `form:"gender"`
	Food     string   `form:"food"`
	MinPrice int64    `form:"min_price"`
	MaxPrice int64    `form:"max_price"`
	Sort     string   `form:"sort"`
	Page     int      `form:"page"`
	Lat      *float64 `form:"lat"`
	Lng      *float64 `form:"lng"`
	RadiusKm float64  `form:"radius_km"`
}

type ListingCard struct {
	models.Listing
	StartingRent  string   `json:"starting_rent"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func NewPagination(page, perPage int, total int64) Pagination {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

type SearchResult struct {
	Listings   []ListingCard `json:"listings"`
	Pagination Pagination    `json:"pagination"`
	Cached     bool          `json:"cached"`
}

func (p *SearchParams) normalize() error {
	verr := &ValidationError{}
	p.Query = strings.TrimSpace(p.Query)
	p.City = strings.TrimSpace(p.City)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.Food = strings.ToLower(strings.TrimSpace(p.Food))
	p.Sort = strings.ToLower(strings.TrimSpace(p.Sort))
	if p.Page < 1 {
		p.Page = 1
	}
	switch p.Gender {
	case "", domain.GenderMale, domain.GenderFemale, domain.GenderUnisex:
	default:
		verr.add("gender", "must be male, female or unisex")
	}
	switch p.Food {
	case "", domain.FoodVeg, domain.FoodNonVeg, domain.FoodBoth, domain.FoodNone:
	default:
		verr.add("food", "must be veg, non_veg, both or none")
	}
	if p.MinPrice < 0 {
		verr.add("min_price", "must not be negative")
	}
	if p.MaxPrice < 0 {
		verr.add("max_price", "must not be negative")
	}
	if p.MaxPrice > 0 && p.MinPrice > p.MaxPrice {
		verr.add("max_price", "must be at least min_price")
	}
	geo := p.Lat != nil || p.Lng != nil
	if geo {
		if p.Lat == nil || p.Lng == nil || !location.ValidCoordinates(*p.Lat, *p.Lng) {
			verr.add("lat", "lat and lng must both be valid coordinates")
		}
		if p.RadiusKm <= 0 {
			p.RadiusKm = defaultRadiusKm
		}
		if p.RadiusKm > maxRadiusKm {
			p.RadiusKm = maxRadiusKm
		}
	}
	if p.Sort != "" && !repository.ValidListingSort(p.Sort) && !(geo && p.Sort == sortDistance) {
		verr.add("sort", "unsupported sort")
	}
	return verr.orNil()
}

func (p SearchParams) cacheKey() string {
	lat, lng := "", ""
	if p.Lat != nil && p.Lng != nil {
		lat, lng = fmt.Sprintf("%.5f", *p.Lat), fmt.Sprintf("%.5f", *p.Lng)
	}
	return strings.Join([]string{
		strings.ToLower(p.Query), strings.ToLower(p.City), p.Gender, p.Food,
		fmt.Sprint(p.MinPrice), fmt.Sprint(p.MaxPrice), p.Sort, fmt.Sprint(p.Page),
		lat, lng, fmt.Sprintf("%.2f", p.RadiusKm),
	}, "|")
}

// Search returns one page of active listings matching p.
func (s *ListingService) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	key := p.cacheKey()
	if s.cache != nil {
		var cached SearchResult
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			log.Printf("[search] cache read: %v", err)
		} else if hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	f := repository.ListingFilter{
		Query:    p.Query,
		City:     p.City,
		Gender:   p.Gender,
		Food:     p.Food,
		MinPrice: p.MinPrice * 100,
		MaxPrice: p.MaxPrice * 100,
		Sort:     p.Sort,
	}
	perPage := domain.ListingsPerPage
	var res *SearchResult
	if p.Lat != nil && p.Lng != nil {
		var err error
		res, err = s.searchNear(f, p, perPage)
		if err != nil {
			return nil, err
		}
	} else {
		list, total, err := s.listings.Search(f, perPage, (p.Page-1)*perPage)
		if err != nil {
			return nil, err
		}
		res = &SearchResult{Listings: cards(list), Pagination: NewPagination(p.Page, perPage, total)}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res); err != nil {
			log.Printf("[search] cache write: %v", err)
		}
	}
	return res, nil
}

// searchNear prefilters by bounding box in SQL, then keeps listings within the exact
// radius and paginates in memory.
func (s *ListingService) searchNear(f repository.ListingFilter, p SearchParams, perPage int) (*SearchResult, error) {
	box := location.BoundingBox(*p.Lat, *p.Lng, p.RadiusKm)
	f.HasBounds = true
	f.MinLat, f.MaxLat, f.MinLng, f.MaxLng = box.MinLat, box.MaxLat, box.MinLng, box.MaxLng
	if f.Sort == sortDistance {
		f.Sort = ""
	}
	list, _, err := s.listings.Search(f, 0, 0)
	if err != nil {
		return nil, err
	}
	var within []ListingCard
	for _, l := range list {
		if l.Latitude == nil || l.Longitude == nil {
			continue
		}
		d := location.HaversineKm(*p.Lat, *p.Lng, *l.Latitude, *l.Longitude)
		if d > p.RadiusKm {
			continue
		}
		c := card(l)
		rounded := math.Round(d*100) / 100
		c.DistanceKm = &rounded
		c.DistanceLabel = location.DistanceLabel(d, p.RadiusKm)
		within = append(within, c)
	}
	if p.Sort == sortDistance || p.Sort == "" {
		sort.SliceStable(within, func(i, j int) bool { return *within[i].DistanceKm < *within[j].DistanceKm })
	}
	total := int64(len(within))
	start := (p.Page - 1) * perPage
	if start > len(within) {
		start = len(within)
	}
	end := start + perPage
	if end > len(within) {
		end = len(within)
	}
	return &SearchResult{Listings: within[start:end], Pagination: NewPagination(p.Page, perPage, total)}, nil
}

func card(l models.Listing) ListingCard {
	return ListingCard{Listing: l, StartingRent: domain.FormatINR(l.StartingRentPaise)}
}

func cards(list []models.Listing) []ListingCard {
	out := make([]ListingCard, 0, len(list))
	for _, l := range list {
		out = append(out, card(l))
	}
	return out
}

type RoomView struct {
	models.RoomConfiguration
	TotalBeds int    `json:"total_beds"`
	Rent      string `json:"rent"`
}

type RatingSummary struct {
	Average   float64         `json:"average"`
	Count     int             `json:"count"`
	Breakdown map[int]int64   `json:"breakdown"`
	Reviews   []models.Review `json:"reviews"`
}

type ListingDetail struct {
	Listing      *models.Listing `json:"listing"`
	Rooms        []RoomView      `json:"rooms"`
	StartingRent string          `json:"starting_rent"`
	Rating       RatingSummary   `json:"rating"`
}

// Detail returns a listing with live bed counts and reviews. Inactive listings are
// visible only to their owner and admins.
func (s *ListingService) Detail(id, viewerID uint, role string) (*ListingDetail, error) {
	l, err := s.listings.GetDetail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if l.Status != domain.ListingStatusActive && role != domain.RoleAdmin && l.OwnerID != viewerID {
		return nil, ErrListingNotFound
	}
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rooms := make([]RoomView, 0, len(l.Rooms))
	for _, r := range l.Rooms {
		booked, err := s.rooms.BookedBeds(r.ID, from, time.Time{})
		if err != nil {
			return nil, err
		}
		r.AvailableBeds = domain.AvailableBeds(r.TotalBeds(), booked)
		rooms = append(rooms, RoomView{RoomConfiguration: r, TotalBeds: r.TotalBeds(), Rent: domain.FormatINR(r.RentPaise)})
	}
	l.Rooms = nil
	reviews, err := s.reviews.ListByListing(id, reviewsOnDetail, 0)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.reviews.RatingBreakdown(id)
	if err != nil {
		return nil, err
	}
	return &ListingDetail{
		Listing:      l,
		Rooms:        rooms,
		StartingRent: domain.FormatINR(l.StartingRentPaise),
		Rating: RatingSummary{
			Average:   math.Round(l.AvgRating*10) / 10,
			Count:     l.ReviewCount,
			Breakdown: breakdown,
			Reviews:   reviews,
		},
	}, nil
}

func (s *ListingService) Reviews(listingID uint, limit, offset int) ([]models.Review, error) {
	return s.reviews.ListByListing(listingID, limit, offset)
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// AddReview stores one review per user per listing and refreshes the listing rating.
func (s *ListingService) AddReview(ctx context.Context, userID, listingID uint, req ReviewRequest) (*models.Review, error) {
	l, err := s.listings.GetByID(listingID)
	if err != nil || l.Status != domain.ListingStatusActive {
		return nil, ErrListingNotFound
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fieldError("rating", "must be between 1 and 5")
	}
	exists, err := s.reviews.Exists(userID, listingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}
	rv := &models.Review{UserID: userID, ListingID: listingID, Rating: req.Rating, Comment: strings.TrimSpace(req.Comment)}
	if err := s.reviews.Create(rv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}
	s.refreshRating(ctx, listingID)
	return rv, nil
}

// DeleteReview removes a review by its author or an admin.
func (s *ListingService) DeleteReview(ctx context.Context, id, actorID uint, role string) error {
	rv, err := s.reviews.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if role != domain.RoleAdmin && rv.UserID != actorID {
		return ErrForbidden
	}
	if err := s.reviews.Delete(id); err != nil {
		return err
	}
	s.refreshRating(ctx, rv.ListingID)
	return nil
}

func (s *ListingService) refreshRating(ctx context.Context, listingID uint) {
	if err := s.listings.RecomputeRating(listingID); err != nil {
		log.Printf("[listing] recompute rating listing=%d: %v", listingID, err)
	}
	s.invalidate(ctx)
}

func (s *ListingService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// ListingInput is the owner's listing form.
type ListingInput struct {
	Title        string   `json:"title" binding:"required,max=200"`
	Description  string   `json:"description" binding:"max=5000"`
	Address      string   `json:"address" binding:"required,max=500"`
	City         string   `json:"city" binding:"required,max=100"`
	State        string   `json:"state" binding:"max=100"`
	Pincode      string   `json:"pincode" binding:"max=10"`
	Latitude     *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Gender       string   `json:"gender" binding:"omitempty,oneof=male female unisex"`
	Food         string   `json:"food" binding:"omitempty,oneof=veg non_veg both none"`
	Amenities    []string `json:"amenities"`
	Rules        []string `json:"rules"`
	DepositType  string   `json:"deposit_type" binding:"omitempty,oneof=fixed months"`
	DepositValue int64    `json:"deposit_value" binding:"min=0"`
}

func (in ListingInput) apply(l *models.Listing) error {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = strings.TrimSpace(in.Description)
	l.Address = strings.TrimSpace(in.Address)
	l.City = strings.TrimSpace(in.City)
	l.State = strings.TrimSpace(in.State)
	l.Pincode = strings.TrimSpace(in.Pincode)
	l.Latitude = in.Latitude
	l.Longitude = in.Longitude
	l.Gender = in.Gender
	if l.Gender == "" {
		l.Gender = domain.GenderUnisex
	}
	l.Food = in.Food
	if l.Food == "" {
		l.Food = domain.FoodNone
	}
	l.DepositType = in.DepositType
	l.DepositValue = in.DepositValue
	if in.DepositType == "" {
		l.DepositValue = 0
	}
	amenities, err := jsonList(in.Amenities)
	if err != nil {
		return err
	}
	rules, err := jsonList(in.Rules)
	if err != nil {
		return err
	}
	l.Amenities = amenities
	l.Rules = rules
	return nil
}

func jsonList(items []string) (datatypes.JSON, error) {
	clean := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			clean = append(clean, it)
		}
	}
	b, err := json.Marshal(clean)
	return datatypes.JSON(b), err
}

// owned loads a listing the actor may manage.
func (s *ListingService) owned(id, actorID uint, role string) (*models.Listing, error) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if role != domain.RoleAdmin && l.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *ListingService) CreateListing(ctx context.Context, ownerID uint, in ListingInput) (*models.Listing, error) {
	l := &models.Listing{OwnerID: ownerID, Status: domain.ListingStatusActive}
	if err := in.apply(l); err != nil {
		return nil, err
	}
	if err := s.listings.Create(l); err != nil {
		return nil, err
	}
	log.Printf("[listing] owner=%d created listing=%d", ownerID, l.ID)
	s.invalidate(ctx)
	return l, nil
}

func (s *ListingService) UpdateListing(ctx context.Context, id, actorID uint, role string, in ListingInput) (*models.Listing, error) {
	l, err := s.owned(id, actorID, role)
	if err != nil {
		return nil, err
	}
	if err := in.apply(l); err != nil {
		return nil, err
	}
	if err := s.listings.Update(l); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return l, nil
}

// SetListingStatus toggles a listing between active and inactive.
func (s *ListingService) SetListingStatus(ctx context.Context, id, actorID uint, role, status string) (*models.Listing, error) {
	if status != domain.ListingStatusActive && status != domain.ListingStatusInactive {
		return nil, fieldError("status", "must be active or inactive")
	}
	l, err := s.owned(id, actorID, role)
	if err != nil {
		return nil, err
	}
	if err := s.listings.SetStatus(id, status); err != nil {
		return nil, err
	}
	l.Status = status
	s.invalidate(ctx)
	return l, nil
}

// OwnerListings lists every listing of an owner, inactive included.
func (s *ListingService) OwnerListings(ownerID uint, page int) ([]ListingCard, Pagination, error) {
	if page < 1 {
		page = 1
	}
	perPage := domain.ListingsPerPage
	list, total, err := s.listings.Search(repository.ListingFilter{OwnerID: ownerID, IncludeInactive: true}, perPage, (page-1)*perPage)
	if err != nil {
		return nil, Pagination{}, err
	}
	return cards(list), NewPagination(page, perPage, total), nil
}

type RoomInput struct {
	RoomType    string `json:"room_type" binding:"required,max=50"`
	BedsPerRoom int    `json:"beds_per_room" binding:"required,min=1,max=20"`
	TotalRooms  int    `json:"total_rooms" binding:"min=0,max=1000"`
	RentPaise   int64  `json:"rent_paise" binding:"required,min=100"`
	// Empty DepositType keeps the listing's deposit terms.
	DepositType  string `json:"deposit_type" binding:"omitempty,oneof=fixed months"`
	DepositValue int64  `json:"deposit_value" binding:"min=0"`
}

func (s *ListingService) AddRoom(ctx context.Context, listingID, actorID uint, role string, in RoomInput) (*models.RoomConfiguration, error) {
	if _, err := s.owned(listingID, actorID, role); err != nil {
		return nil, err
	}
	room := &models.RoomConfiguration{
		ListingID:   listingID,
		RoomType:    strings.TrimSpace(in.RoomType),
		BedsPerRoom: in.BedsPerRoom,
		TotalRooms:  in.TotalRooms,
		RentPaise:   in.RentPaise,
	}
	if in.DepositType != "" {
		room.DepositType = in.DepositType
		room.DepositValue = in.DepositValue
	}
	if err := s.rooms.Create(room); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return room, nil
}

// RoomPatch is one row of the bulk availability form. Omitted fields keep their value.
type RoomPatch struct {
	ID          uint    `json:"id" binding:"required"`
	RoomType    *string `json:"room_type" binding:"omitempty,min=1,max=50"`
	BedsPerRoom *int    `json:"beds_per_room" binding:"omitempty,min=1,max=20"`
	TotalRooms  *int    `json:"total_rooms" binding:"omitempty,min=0,max=1000"`
	RentPaise   *int64  `json:"rent_paise" binding:"omitempty,min=100"`
	// DepositType "" clears the room's override.
	DepositType  *string `json:"deposit_type"`
	DepositValue *int64  `json:"deposit_value" binding:"omitempty,min=0"`
}

// UpdateRooms applies the bulk edit atomically. A total below booked beds rejects
// the whole edit.
func (s *ListingService) UpdateRooms(ctx context.Context, listingID, actorID uint, role string, patches []RoomPatch) ([]models.RoomConfiguration, error) {
	if _, err := s.owned(listingID, actorID, role); err != nil {
		return nil, err
	}
	if len(patches) == 0 {
		return nil, fieldError("rooms", "at least one room is required")
	}
	verr := &ValidationError{}
	updates := make([]repository.RoomUpdate, 0, len(patches))
	for i, p := range patches {
		if p.DepositType != nil {
			switch *p.DepositType {
			case "", domain.DepositTypeFixed, domain.DepositTypeMonths:
			default:
				verr.add(fmt.Sprintf("rooms[%d].deposit_type", i), "must be fixed, months or empty")
			}
		}
		updates = append(updates, repository.RoomUpdate{
			ID:           p.ID,
			RoomType:     p.RoomType,
			BedsPerRoom:  p.BedsPerRoom,
			TotalRooms:   p.TotalRooms,
			RentPaise:    p.RentPaise,
			DepositType:  p.DepositType,
			DepositValue: p.DepositValue,
		})
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	rooms, err := s.rooms.BulkUpdate(listingID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	return rooms, nil
}

// AddImage uploads a photo and appends it to the gallery.
func (s *ListingService) AddImage(ctx context.Context, listingID, actorID uint, role string, file io.Reader) (*models.ListingImage, error) {
	if _, err := s.owned(listingID, actorID, role); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, cloudinary.ErrNotConfigured
	}
	n, err := s.listings.CountImages(listingID)
	if err != nil {
		return nil, err
	}
	if n >= maxListingImages {
		return nil, ErrTooManyImages
	}
	folder := s.folder + "/" + listingFolderName
	url, thumb, err := s.uploader.UploadImage(ctx, file, folder, fmt.Sprintf("listing_%d_%s", listingID, uuid.NewString()))
	if err != nil {
		return nil, err
	}
	img := &models.ListingImage{ListingID: listingID, URL: url, ThumbnailURL: thumb, SortOrder: int(n)}
	if err := s.listings.AddImage(img); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return img, nil
}

func (s *ListingService) DeleteImage(ctx context.Context, listingID, imageID, actorID uint, role string) error {
	if _, err := s.owned(listingID, actorID, role); err != nil {
		return err
	}
	l, err := s.listings.GetDetail(listingID)
	if err != nil {
		return err
	}
	var url string
	for _, img := range l.Images {
		if img.ID == imageID {
			url = img.URL
		}
	}
	if url == "" {
		return ErrImageNotFound
	}
	if err := s.listings.DeleteImage(listingID, imageID); err != nil {
		return err
	}
	if s.uploader != nil {
		if err := s.uploader.DeleteByURL(ctx, url); err != nil {
			log.Printf("[listing] delete image asset %s: %v", url, err)
		}
	}
	s.invalidate(ctx)
	return nil
}

func (s *ListingService) Rooms(listingID, actorID uint, role string) ([]models.RoomConfiguration, error) {
	if _, err := s.owned(listingID, actorID, role); err != nil {
		return nil, err
	}
	return s.rooms.ListByListing(listingID)
}
