package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"

	"gorm.io/gorm"
)

// BookingStore is the transactional booking persistence used by the workflow.
type BookingStore interface {
	ReserveBed(ctx context.Context, b *models.Booking, check func(room *models.RoomConfiguration, bookedBeds int) error) error
	Transition(ctx context.Context, id uint, from, to string) error
	GetByID(id uint) (*models.Booking, error)
}

type ListingReader interface {
	GetActive(id uint) (*models.Listing, error)
}

type KYCReader interface {
	Latest(userID uint) (*models.UserKYC, error)
}

type BedCounter interface {
	BookedBeds(roomID uint, from, to time.Time) (int, error)
}

type SuccessPaymentReader interface {
	GetSuccessByBooking(bookingID uint) (*models.Payment, error)
}

type BookingNotifier interface {
	BookingCreated(ctx context.Context, b *models.Booking)
	BookingStatusChanged(ctx context.Context, b *models.Booking)
}

// SearchInvalidator drops cached search pages after availability changes.
type SearchInvalidator interface {
	Invalidate(ctx context.Context)
}

type BookingService struct {
	bookings BookingStore
	listings ListingReader
	kyc      KYCReader
	beds     BedCounter
	payments SuccessPaymentReader
	settings SettingsReader
	notifier BookingNotifier
	cache    SearchInvalidator
	now      func() time.Time
}

func NewBookingService(
	bookings BookingStore,
	listings ListingReader,
	kyc KYCReader,
	beds BedCounter,
	payments SuccessPaymentReader,
	settings SettingsReader,
	notifier BookingNotifier,
	cache SearchInvalidator,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		listings: listings,
		kyc:      kyc,
		beds:     beds,
		payments: payments,
		settings: settings,
		notifier: notifier,
		cache:    cache,
		now:      time.Now,
	}
}

// RoomOption is one bookable room type on the booking page.
type RoomOption struct {
	ID            uint         `json:"id"`
	RoomType      string       `json:"room_type"`
	BedsPerRoom   int          `json:"beds_per_room"`
	TotalBeds     int          `json:"total_beds"`
	AvailableBeds int          `json:"available_beds"`
	RentPaise     int64        `json:"rent_paise"`
	Rent          string       `json:"rent"`
	MonthlyQuote  domain.Quote `json:"monthly_quote"`
	DepositTerms  string       `json:"deposit_terms"`
}

// BookingPage is the current step of the booking flow for one listing.
type BookingPage struct {
	Step         string          `json:"step"` // kyc | details
	KYCStatus    string          `json:"kyc_status"`
	Listing      *models.Listing `json:"listing"`
	Rooms        []RoomOption    `json:"rooms,omitempty"`
	MinStart     string          `json:"min_start_month,omitempty"`
	MinDuration  int             `json:"min_duration_months,omitempty"`
	MaxDuration  int             `json:"max_duration_months,omitempty"`
	GSTPercent   float64         `json:"gst_percent,omitempty"`
	DepositTerms string          `json:"deposit_terms,omitempty"`
}

// BookingRequest is the booking form.
type BookingRequest struct {
	RoomConfigurationID uint   `json:"room_configuration_id" binding:"required"`
	StartDate           string `json:"start_date" binding:"required,yearmonth"`
	DurationMonths      int    `json:"duration_months" binding:"required,min=1,max=12"`
}

func (s *BookingService) activeListing(id uint) (*models.Listing, error) {
	l, err := s.listings.GetActive(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *BookingService) kycStatus(userID uint) (string, error) {
	k, err := s.kyc.Latest(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "not_submitted", nil
		}
		return "", err
	}
	if k == nil {
		return "not_submitted", nil
	}
	return k.Status, nil
}

// Page returns the kyc step until the user is verified, then the room options.
func (s *BookingService) Page(userID, listingID uint) (*BookingPage, error) {
	l, err := s.activeListing(listingID)
	if err != nil {
		return nil, err
	}
	status, err := s.kycStatus(userID)
	if err != nil {
		return nil, err
	}
	page := &BookingPage{KYCStatus: status, Listing: l}
	if status != domain.KYCStatusVerified {
		page.Step = "kyc"
		return page, nil
	}
	page.Step = "details"
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	policy := depositPolicy(s.settings, l, nil)
	gst := gstPercent(s.settings)
	for i := range l.Rooms {
		room := &l.Rooms[i]
		booked, err := s.beds.BookedBeds(room.ID, from, time.Time{})
		if err != nil {
			return nil, err
		}
		roomPolicy := depositPolicy(s.settings, l, room)
		page.Rooms = append(page.Rooms, RoomOption{
			ID:            room.ID,
			RoomType:      room.RoomType,
			BedsPerRoom:   room.BedsPerRoom,
			TotalBeds:     room.TotalBeds(),
			AvailableBeds: domain.AvailableBeds(room.TotalBeds(), booked),
			RentPaise:     room.RentPaise,
			Rent:          domain.FormatINR(room.RentPaise),
			MonthlyQuote:  domain.CalculateQuote(room.RentPaise, 1, roomPolicy, gst),
			DepositTerms:  depositTerms(roomPolicy),
		})
	}
	page.MinStart = domain.NormalizeStartMonth(now).Format("2006-01")
	page.MinDuration = domain.MinDurationMonths
	page.MaxDuration = domain.MaxDurationMonths
	page.GSTPercent = gst
	page.DepositTerms = depositTerms(policy)
	return page, nil
}

func depositTerms(p domain.DepositPolicy) string {
	if p.Value <= 0 {
		return "No security deposit"
	}
	if p.Type == domain.DepositTypeFixed {
		return domain.FormatINR(p.Value) + " security deposit"
	}
	if p.Value == 1 {
		return "1 month rent as security deposit"
	}
	return strconv.FormatInt(p.Value, 10) + " months rent as security deposit"
}

// Create validates the form and reserves a bed under a row lock on the room.
// The returned booking is pending until its payment succeeds.
func (s *BookingService) Create(ctx context.Context, userID, listingID uint, req BookingRequest) (*models.Booking, *domain.Quote, error) {
	l, err := s.activeListing(listingID)
	if err != nil {
		return nil, nil, err
	}
	status, err := s.kycStatus(userID)
	if err != nil {
		return nil, nil, err
	}
	if status != domain.KYCStatusVerified {
		return nil, nil, ErrKYCRequired
	}

	verr := &ValidationError{}
	start, err := domain.ParseStartDate(req.StartDate, s.now())
	if err != nil {
		verr.add("start_date", err.Error())
	}
	if err := domain.ValidateDuration(req.DurationMonths); err != nil {
		verr.add("duration_months", err.Error())
	}
	var room *models.RoomConfiguration
	for i := range l.Rooms {
		if l.Rooms[i].ID == req.RoomConfigurationID {
			room = &l.Rooms[i]
			break
		}
	}
	if room == nil {
		verr.add("room_configuration_id", ErrRoomNotFound.Error())
	}
	if err := verr.orNil(); err != nil {
		return nil, nil, err
	}

	b := &models.Booking{
		UserID:              userID,
		ListingID:           l.ID,
		RoomConfigurationID: room.ID,
		StartDate:           start,
		EndDate:             domain.EndDate(start, req.DurationMonths),
		DurationMonths:      req.DurationMonths,
		Status:              domain.BookingStatusPending,
	}
	gst := gstPercent(s.settings)
	var quote domain.Quote
	err = s.bookings.ReserveBed(ctx, b, func(locked *models.RoomConfiguration, booked int) error {
		if domain.AvailableBeds(locked.TotalBeds(), booked) <= 0 {
			return ErrNoBedsAvailable
		}
		// quote from the locked row
		quote = domain.CalculateQuote(locked.RentPaise, req.DurationMonths, depositPolicy(s.settings, l, locked), gst)
		b.MonthlyRentPaise = quote.MonthlyRent
		b.RentTotalPaise = quote.RentTotal
		b.DepositPaise = quote.Deposit
		b.GSTPaise = quote.GST
		b.TotalAmountPaise = quote.Total
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fieldError("room_configuration_id", ErrRoomNotFound.Error())
		}
		return nil, nil, err
	}
	log.Printf("[booking] created booking=%d user=%d room=%d %s +%dm", b.ID, userID, room.ID, start.Format("2006-01"), req.DurationMonths)

	b.Listing = *l
	b.Room = *room
	s.invalidate(ctx)
	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, b)
	}
	return b, &quote, nil
}

// Get returns a booking visible to the booker, the listing owner or an admin.
func (s *BookingService) Get(id, userID uint, role string) (*models.Booking, error) {
	b, err := s.bookings.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if role == domain.RoleAdmin || b.UserID == userID || b.Listing.OwnerID == userID {
		return b, nil
	}
	return nil, ErrForbidden
}

// Cancel lets a user cancel their own pending booking, releasing the bed.
func (s *BookingService) Cancel(ctx context.Context, id, userID uint) (*models.Booking, error) {
	b, err := s.Get(id, userID, "")
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingStatusPending {
		return nil, ErrNotPending
	}
	return s.transition(ctx, b, domain.BookingStatusCancelled)
}

// SetStatus is the owner/admin status change. Owners may only act on their own
// listings; confirming requires a successful payment.
func (s *BookingService) SetStatus(ctx context.Context, id, actorID uint, role, to string) (*models.Booking, error) {
	b, err := s.Get(id, actorID, role)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && b.Listing.OwnerID != actorID {
		return nil, ErrForbidden
	}
	if to == domain.BookingStatusConfirmed {
		if role != domain.RoleAdmin {
			return nil, ErrForbidden
		}
		p, err := s.payments.GetSuccessByBooking(b.ID)
		if err != nil || p == nil {
			return nil, ErrPaymentRequired
		}
	}
	if !domain.CanTransitionBooking(b.Status, to) {
		return nil, ErrInvalidStatus
	}
	return s.transition(ctx, b, to)
}

func (s *BookingService) transition(ctx context.Context, b *models.Booking, to string) (*models.Booking, error) {
	if err := s.bookings.Transition(ctx, b.ID, b.Status, to); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrInvalidStatus
		}
		return nil, err
	}
	log.Printf("[booking] booking=%d %s -> %s", b.ID, b.Status, to)
	b.Status = to
	now := s.now()
	switch to {
	case domain.BookingStatusCancelled:
		b.CancelledAt = &now
	case domain.BookingStatusConfirmed:
		b.ConfirmedAt = &now
	}
	s.invalidate(ctx)
	if s.notifier != nil {
		s.notifier.BookingStatusChanged(ctx, b)
	}
	return b, nil
}

func (s *BookingService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
