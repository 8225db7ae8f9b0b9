package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"

	"gorm.io/gorm"
)

// fakeListingStore answers Search from a fixed slice and records the last filter.
type fakeListingStore struct {
	all        []models.Listing
	lastFilter repository.ListingFilter
	searches   int
	reviews    *fakeReviews
}

func (f *fakeListingStore) Create(l *models.Listing) error { return nil }
func (f *fakeListingStore) Update(l *models.Listing) error { return nil }
func (f *fakeListingStore) GetByID(id uint) (*models.Listing, error) {
	for i := range f.all {
		if f.all[i].ID == id {
			return &f.all[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeListingStore) GetDetail(id uint) (*models.Listing, error) { return f.GetByID(id) }
func (f *fakeListingStore) SetStatus(id uint, status string) error     { return nil }
func (f *fakeListingStore) AddImage(img *models.ListingImage) error   { return nil }
func (f *fakeListingStore) DeleteImage(listingID, imageID uint) error { return nil }
func (f *fakeListingStore) CountImages(listingID uint) (int64, error) { return 0, nil }

func (f *fakeListingStore) RecomputeRating(listingID uint) error {
	if f.reviews == nil {
		return nil
	}
	sum, count := 0, 0
	for _, rv := range f.reviews.rows {
		if rv.ListingID == listingID {
			sum += rv.Rating
			count++
		}
	}
	for i := range f.all {
		if f.all[i].ID == listingID {
			f.all[i].ReviewCount = count
			f.all[i].AvgRating = 0
			if count > 0 {
				f.all[i].AvgRating = float64(sum) / float64(count)
			}
		}
	}
	return nil
}

func (f *fakeListingStore) Search(filter repository.ListingFilter, limit, offset int) ([]models.Listing, int64, error) {
	f.lastFilter = filter
	f.searches++
	var out []models.Listing
	for _, l := range f.all {
		if l.Status != domain.ListingStatusActive {
			continue
		}
		if filter.HasBounds {
			if l.Latitude == nil || *l.Latitude < filter.MinLat || *l.Latitude > filter.MaxLat ||
				*l.Longitude < filter.MinLng || *l.Longitude > filter.MaxLng {
				continue
			}
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// memoryCache stores JSON like the Redis cache does.
type memoryCache struct {
	data        map[string][]byte
	invalidated int
}

func (c *memoryCache) Get(ctx context.Context, query string, dst interface{}) (bool, error) {
	b, ok := c.data[query]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memoryCache) Set(ctx context.Context, query string, v interface{}) error {
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[query] = b
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context) {
	c.data = nil
	c.invalidated++
}

func coords(lat, lng float64) (*float64, *float64) { return &lat, &lng }

func geoListing(id uint, lat, lng float64) models.Listing {
	la, ln := coords(lat, lng)
	return models.Listing{ID: id, Title: "PG", Status: domain.ListingStatusActive, Latitude: la, Longitude: ln, StartingRentPaise: 650000}
}

func TestSearchValidation(t *testing.T) {
	svc := NewListingService(&fakeListingStore{}, nil, nil, nil, nil, "pgnest")
	lat := 12.97
	tests := []struct {
		name  string
		p     SearchParams
		field string
	}{
		{"bad gender", SearchParams{Gender: "any"}, "gender"},
		{"bad food", SearchParams{Food: "vegan"}, "food"},
		{"negative price", SearchParams{MinPrice: -1}, "min_price"},
		{"inverted range", SearchParams{MinPrice: 9000, MaxPrice: 5000}, "max_price"},
		{"lat without lng", SearchParams{Lat: &lat}, "lat"},
		{"distance sort without point", SearchParams{Sort: "distance"}, "sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.p)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("fields = %v, want %s", verr.Fields, tt.field)
			}
		})
	}
}

func TestSearchConvertsRupeesAndCaches(t *testing.T) {
	store := &fakeListingStore{all: []models.Listing{{ID: 1, Status: domain.ListingStatusActive, StartingRentPaise: 650000}}}
	cache := &memoryCache{}
	svc := NewListingService(store, nil, nil, cache, nil, "pgnest")
	p := SearchParams{City: " Pune ", Gender: "Female", MinPrice: 5000, MaxPrice: 9000}

	first, err := svc.Search(context.Background(), p)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.lastFilter.MinPrice != 500000 || store.lastFilter.MaxPrice != 900000 {
		t.Fatalf("filter prices = %d..%d, want paise", store.lastFilter.MinPrice, store.lastFilter.MaxPrice)
	}
	if store.lastFilter.City != "Pune" || store.lastFilter.Gender != domain.GenderFemale {
		t.Fatalf("filter = %+v", store.lastFilter)
	}
	if first.Cached || len(first.Listings) != 1 || first.Listings[0].StartingRent != domain.FormatINR(650000) {
		t.Fatalf("first = %+v", first)
	}

	second, err := svc.Search(context.Background(), p)
	if err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if !second.Cached || store.searches != 1 {
		t.Fatalf("expected cache hit, cached=%v searches=%d", second.Cached, store.searches)
	}
}

func TestSearchNearSortsByDistance(t *testing.T) {
	// Around MG Road, Bengaluru.
	store := &fakeListingStore{all: []models.Listing{
		geoListing(1, 12.9900, 77.6100), // ~2 km
		geoListing(2, 12.9760, 77.6070), // ~0.2 km
		geoListing(3, 13.3000, 77.6000), // far away
		{ID: 4, Status: domain.ListingStatusActive},
	}}
	svc := NewListingService(store, nil, nil, nil, nil, "pgnest")
	lat, lng := coords(12.9750, 77.6060)
	res, err := svc.Search(context.Background(), SearchParams{Lat: lat, Lng: lng, RadiusKm: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(res.Listings))
	}
	if res.Listings[0].ID != 2 || res.Listings[1].ID != 1 {
		t.Fatalf("order = %d,%d want 2,1", res.Listings[0].ID, res.Listings[1].ID)
	}
	if res.Listings[0].DistanceKm == nil || *res.Listings[0].DistanceKm > 0.5 {
		t.Fatalf("distance = %v", res.Listings[0].DistanceKm)
	}
	if !store.lastFilter.HasBounds || res.Pagination.Total != 2 {
		t.Fatalf("bounds=%v total=%d", store.lastFilter.HasBounds, res.Pagination.Total)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 12, 25)
	if p.TotalPages != 3 || !p.HasNext || !p.HasPrev {
		t.Fatalf("pagination = %+v", p)
	}
	if last := NewPagination(3, 12, 25); last.HasNext {
		t.Fatalf("last page should not have next")
	}
}

// fakeRooms applies bulk edits to staged copies and commits only when every row passes.
type fakeRooms struct {
	rooms  map[uint]*models.RoomConfiguration
	booked map[uint]int
	saves  int
}

func (f *fakeRooms) Create(room *models.RoomConfiguration) error {
	room.ID = uint(len(f.rooms) + 100)
	f.rooms[room.ID] = room
	return nil
}

func (f *fakeRooms) ListByListing(listingID uint) ([]models.RoomConfiguration, error) {
	var out []models.RoomConfiguration
	for _, r := range f.rooms {
		if r.ListingID == listingID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRooms) BookedBeds(roomID uint, from, to time.Time) (int, error) {
	return f.booked[roomID], nil
}

func (f *fakeRooms) BulkUpdate(listingID uint, updates []repository.RoomUpdate) ([]models.RoomConfiguration, error) {
	staged := map[uint]*models.RoomConfiguration{}
	for _, u := range updates {
		cur, ok := f.rooms[u.ID]
		if !ok || cur.ListingID != listingID {
			return nil, gorm.ErrRecordNotFound
		}
		cp := *cur
		if !u.Apply(&cp) {
			continue
		}
		if err := repository.SetAvailability(&cp, f.booked[cp.ID]); err != nil {
			return nil, err
		}
		staged[cp.ID] = &cp
	}
	for id, r := range staged {
		f.rooms[id] = r
		f.saves++
	}
	return f.ListByListing(listingID)
}

func newRoomEditService() (*ListingService, *fakeRooms, *memoryCache) {
	listings := &fakeListingStore{all: []models.Listing{{ID: 1, OwnerID: 50, Status: domain.ListingStatusActive}}}
	rooms := &fakeRooms{
		rooms: map[uint]*models.RoomConfiguration{
			21: {ID: 21, ListingID: 1, RoomType: "double", BedsPerRoom: 2, TotalRooms: 3, AvailableBeds: 2, RentPaise: 450000},
			22: {ID: 22, ListingID: 1, RoomType: "single", BedsPerRoom: 1, TotalRooms: 2, AvailableBeds: 2, RentPaise: 700000},
		},
		booked: map[uint]int{21: 4},
	}
	cache := &memoryCache{}
	return NewListingService(listings, rooms, nil, cache, nil, "pgnest"), rooms, cache
}

func intp(n int) *int       { return &n }
func int64p(n int64) *int64 { return &n }
func strp(s string) *string { return &s }

func TestUpdateRoomsRejectsTotalBelowBooked(t *testing.T) {
	svc, rooms, _ := newRoomEditService()
	_, err := svc.UpdateRooms(context.Background(), 1, 50, domain.RoleOwner, []RoomPatch{
		{ID: 22, RentPaise: int64p(650000)},
		{ID: 21, TotalRooms: intp(1)},
	})
	if !errors.Is(err, repository.ErrBelowBookedBeds) {
		t.Fatalf("err = %v, want ErrBelowBookedBeds", err)
	}
	if rooms.saves != 0 || rooms.rooms[22].RentPaise != 700000 || rooms.rooms[21].TotalRooms != 3 {
		t.Fatalf("rejected edit must change nothing: saves=%d rooms=%+v %+v", rooms.saves, *rooms.rooms[21], *rooms.rooms[22])
	}
}

func TestUpdateRoomsSkipsUnchangedRows(t *testing.T) {
	svc, rooms, _ := newRoomEditService()
	_, err := svc.UpdateRooms(context.Background(), 1, 50, domain.RoleOwner, []RoomPatch{
		{ID: 21, TotalRooms: intp(3), RentPaise: int64p(450000)},
		{ID: 22},
	})
	if err != nil {
		t.Fatalf("UpdateRooms: %v", err)
	}
	if rooms.saves != 0 {
		t.Fatalf("saves = %d, want 0", rooms.saves)
	}
}

func TestUpdateRoomsRecomputesAvailability(t *testing.T) {
	svc, rooms, cache := newRoomEditService()
	got, err := svc.UpdateRooms(context.Background(), 1, 50, domain.RoleOwner, []RoomPatch{
		{ID: 21, TotalRooms: intp(4)},
		{ID: 22, DepositType: strp(domain.DepositTypeMonths), DepositValue: int64p(2)},
	})
	if err != nil {
		t.Fatalf("UpdateRooms: %v", err)
	}
	if len(got) != 2 || rooms.saves != 2 || cache.invalidated != 1 {
		t.Fatalf("rooms=%d saves=%d invalidated=%d", len(got), rooms.saves, cache.invalidated)
	}
	for _, r := range rooms.rooms {
		if r.AvailableBeds+rooms.booked[r.ID] != r.TotalBeds() {
			t.Errorf("room %d: available %d + booked %d != total %d", r.ID, r.AvailableBeds, rooms.booked[r.ID], r.TotalBeds())
		}
	}
	if rooms.rooms[21].AvailableBeds != 4 {
		t.Fatalf("room 21 available = %d, want 4", rooms.rooms[21].AvailableBeds)
	}
	if r := rooms.rooms[22]; r.DepositType != domain.DepositTypeMonths || r.DepositValue != 2 {
		t.Fatalf("room 22 deposit = %s/%d", r.DepositType, r.DepositValue)
	}

	if _, err := svc.UpdateRooms(context.Background(), 1, 50, domain.RoleOwner, []RoomPatch{{ID: 22, DepositType: strp("")}}); err != nil {
		t.Fatalf("clear override: %v", err)
	}
	if r := rooms.rooms[22]; r.DepositType != "" || r.DepositValue != 0 {
		t.Fatalf("override not cleared: %s/%d", r.DepositType, r.DepositValue)
	}
}

func TestUpdateRoomsRejectsBadInput(t *testing.T) {
	svc, _, _ := newRoomEditService()
	ctx := context.Background()
	if _, err := svc.UpdateRooms(ctx, 1, 51, domain.RoleOwner, []RoomPatch{{ID: 21, TotalRooms: intp(4)}}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other owner err = %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateRooms(ctx, 1, 50, domain.RoleOwner, []RoomPatch{{ID: 99, TotalRooms: intp(4)}}); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room err = %v, want ErrRoomNotFound", err)
	}
	_, err := svc.UpdateRooms(ctx, 1, 50, domain.RoleOwner, []RoomPatch{{ID: 21, DepositType: strp("weekly")}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["rooms[0].deposit_type"]; !ok {
		t.Fatalf("fields = %v", verr.Fields)
	}
}

type fakeReviews struct {
	rows map[uint]*models.Review
}

func (f *fakeReviews) Create(rv *models.Review) error {
	rv.ID = uint(len(f.rows) + 1)
	f.rows[rv.ID] = rv
	return nil
}

func (f *fakeReviews) Exists(userID, listingID uint) (bool, error) {
	for _, rv := range f.rows {
		if rv.UserID == userID && rv.ListingID == listingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviews) GetByID(id uint) (*models.Review, error) {
	rv, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rv, nil
}

func (f *fakeReviews) Delete(id uint) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeReviews) ListByListing(listingID uint, limit, offset int) ([]models.Review, error) {
	return nil, nil
}

func (f *fakeReviews) RatingBreakdown(listingID uint) (map[int]int64, error) {
	return map[int]int64{}, nil
}

func TestReviewsRecomputeRating(t *testing.T) {
	reviews := &fakeReviews{rows: map[uint]*models.Review{}}
	listings := &fakeListingStore{all: []models.Listing{{ID: 1, OwnerID: 50, Status: domain.ListingStatusActive}}, reviews: reviews}
	svc := NewListingService(listings, nil, reviews, nil, nil, "pgnest")
	ctx := context.Background()

	if _, err := svc.AddReview(ctx, 7, 1, ReviewRequest{Rating: 5, Comment: " clean rooms "}); err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	low, err := svc.AddReview(ctx, 9, 1, ReviewRequest{Rating: 2})
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if l := listings.all[0]; l.AvgRating != 3.5 || l.ReviewCount != 2 {
		t.Fatalf("rating = %v over %d, want 3.5 over 2", l.AvgRating, l.ReviewCount)
	}
	if _, err := svc.AddReview(ctx, 7, 1, ReviewRequest{Rating: 4}); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second review err = %v, want ErrAlreadyReviewed", err)
	}
	var verr *ValidationError
	if _, err := svc.AddReview(ctx, 11, 1, ReviewRequest{Rating: 6}); !errors.As(err, &verr) {
		t.Fatalf("rating 6 err = %v, want ValidationError", err)
	}

	if err := svc.DeleteReview(ctx, low.ID, 7, domain.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delete by other user err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteReview(ctx, low.ID, 9, domain.RoleUser); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	if l := listings.all[0]; l.AvgRating != 5 || l.ReviewCount != 1 {
		t.Fatalf("rating after delete = %v over %d", l.AvgRating, l.ReviewCount)
	}
}
