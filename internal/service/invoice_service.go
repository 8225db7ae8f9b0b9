package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"
	"pgnest/pkg/redisx"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceBusy     = errors.New("invoice is being generated, try again shortly")
)

type InvoiceStore interface {
	Create(inv *models.Invoice, prefix string) error
	GetByID(id uint) (*models.Invoice, error)
	GetByBooking(bookingID uint) (*models.Invoice, error)
	ListByUser(userID uint, limit, offset int) ([]models.Invoice, error)
}

// Locker is a short-lived mutual exclusion across server instances.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type InvoiceNotifier interface {
	InvoiceIssued(ctx context.Context, inv *models.Invoice, listingTitle string)
}

type InvoiceService struct {
	invoices InvoiceStore
	bookings BookingReader
	payments SuccessPaymentReader
	settings SettingsReader
	locker   Locker
	notifier InvoiceNotifier
	now      func() time.Time
	// lockWait is how long a caller that lost the lock polls for the winner's invoice.
	lockWait time.Duration
}

func NewInvoiceService(
	invoices InvoiceStore,
	bookings BookingReader,
	payments SuccessPaymentReader,
	settings SettingsReader,
	locker Locker,
	notifier InvoiceNotifier,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		bookings: bookings,
		payments: payments,
		settings: settings,
		locker:   locker,
		notifier: notifier,
		now:      time.Now,
		lockWait: 2 * time.Second,
	}
}

// InvoiceSnapshot is frozen into the invoice row at issue time.
type InvoiceSnapshot struct {
	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer"`
	Listing struct {
		ID      uint   `json:"id"`
		Title   string `json:"title"`
		Address string `json:"address"`
		City    string `json:"city"`
	} `json:"listing"`
	Room struct {
		ID       uint   `json:"id"`
		RoomType string `json:"room_type"`
	} `json:"room"`
	Booking struct {
		ID             uint   `json:"id"`
		StartDate      string `json:"start_date"`
		EndDate        string `json:"end_date"`
		DurationMonths int    `json:"duration_months"`
	} `json:"booking"`
	Payment struct {
		ID                uint   `json:"id"`
		Provider          string `json:"provider"`
		ProviderOrderID   string `json:"provider_order_id"`
		ProviderPaymentID string `json:"provider_payment_id"`
		PaidAt            string `json:"paid_at"`
	} `json:"payment"`
	Amounts struct {
		MonthlyRentPaise int64 `json:"monthly_rent_paise"`
		RentTotalPaise   int64 `json:"rent_total_paise"`
		DepositPaise     int64 `json:"deposit_paise"`
		GSTPaise         int64 `json:"gst_paise"`
		TotalPaise       int64 `json:"total_paise"`
	} `json:"amounts"`
	Display struct {
		MonthlyRent string `json:"monthly_rent"`
		RentTotal   string `json:"rent_total"`
		Deposit     string `json:"deposit"`
		GST         string `json:"gst"`
		Total       string `json:"total"`
		Period      string `json:"period"`
		IssuedOn    string `json:"issued_on"`
	} `json:"display"`
}

func (s *InvoiceService) existing(bookingID uint) (*models.Invoice, error) {
	inv, err := s.invoices.GetByBooking(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

// Generate issues the invoice of a paid booking. Calling it again for the same
// booking returns the invoice already issued.
func (s *InvoiceService) Generate(ctx context.Context, bookingID uint) (*models.Invoice, error) {
	if inv, err := s.existing(bookingID); inv != nil || err != nil {
		return inv, err
	}
	if s.locker != nil {
		release, err := s.locker.Lock(ctx, fmt.Sprintf(redisx.KeyInvoiceLock, bookingID), redisx.TTLInvoiceLock)
		switch {
		case errors.Is(err, redisx.ErrLockHeld):
			return s.awaitWinner(ctx, bookingID)
		case err != nil:
			log.Printf("[invoice] lock unavailable for booking=%d, relying on unique index: %v", bookingID, err)
		default:
			defer release()
		}
		if inv, err := s.existing(bookingID); inv != nil || err != nil {
			return inv, err
		}
	}

	b, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	p, err := s.payments.GetSuccessByBooking(bookingID)
	if err != nil || p == nil {
		return nil, ErrPaymentRequired
	}

	issued := s.now()
	snap, err := json.Marshal(buildSnapshot(b, p, issued))
	if err != nil {
		return nil, err
	}
	inv := &models.Invoice{
		BookingID:     b.ID,
		PaymentID:     p.ID,
		UserID:        b.UserID,
		ListingID:     b.ListingID,
		SubtotalPaise: b.RentTotalPaise + b.DepositPaise,
		TaxPaise:      b.GSTPaise,
		TotalPaise:    b.TotalAmountPaise,
		Snapshot:      datatypes.JSON(snap),
		IssuedAt:      issued,
	}
	prefix := s.settings.GetString(domain.SettingInvoicePrefix, domain.DefaultSettings[domain.SettingInvoicePrefix])
	if err := s.invoices.Create(inv, prefix); err != nil {
		if errors.Is(err, repository.ErrDuplicateInvoice) {
			return s.existing(bookingID)
		}
		return nil, err
	}
	log.Printf("[invoice] issued %s for booking=%d", inv.InvoiceNumber, b.ID)
	if s.notifier != nil {
		s.notifier.InvoiceIssued(ctx, inv, b.Listing.Title)
	}
	return inv, nil
}

func (s *InvoiceService) awaitWinner(ctx context.Context, bookingID uint) (*models.Invoice, error) {
	deadline := time.Now().Add(s.lockWait)
	for {
		inv, err := s.existing(bookingID)
		if inv != nil || err != nil {
			return inv, err
		}
		if time.Now().After(deadline) {
			return nil, ErrInvoiceBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func buildSnapshot(b *models.Booking, p *models.Payment, issued time.Time) InvoiceSnapshot {
	var s InvoiceSnapshot
	s.Customer.Name = b.User.DisplayName()
	s.Customer.Email = b.User.Email
	s.Customer.Phone = b.User.Phone
	s.Listing.ID = b.ListingID
	s.Listing.Title = b.Listing.Title
	s.Listing.Address = b.Listing.Address
	s.Listing.City = b.Listing.City
	s.Room.ID = b.RoomConfigurationID
	s.Room.RoomType = b.Room.RoomType
	s.Booking.ID = b.ID
	s.Booking.StartDate = b.StartDate.Format("2006-01-02")
	s.Booking.EndDate = b.EndDate.Format("2006-01-02")
	s.Booking.DurationMonths = b.DurationMonths
	s.Payment.ID = p.ID
	s.Payment.Provider = p.Provider
	s.Payment.ProviderOrderID = p.ProviderOrderID
	s.Payment.ProviderPaymentID = deref(p.ProviderPaymentID)
	if p.CompletedAt != nil {
		s.Payment.PaidAt = p.CompletedAt.Format(time.RFC3339)
	}
	s.Amounts.MonthlyRentPaise = b.MonthlyRentPaise
	s.Amounts.RentTotalPaise = b.RentTotalPaise
	s.Amounts.DepositPaise = b.DepositPaise
	s.Amounts.GSTPaise = b.GSTPaise
	s.Amounts.TotalPaise = b.TotalAmountPaise
	s.Display.MonthlyRent = domain.FormatINR(b.MonthlyRentPaise)
	s.Display.RentTotal = domain.FormatINR(b.RentTotalPaise)
	s.Display.Deposit = domain.FormatINR(b.DepositPaise)
	s.Display.GST = domain.FormatINR(b.GSTPaise)
	s.Display.Total = domain.FormatINR(b.TotalAmountPaise)
	s.Display.Period = domain.FormatMonth(b.StartDate) + " to " + domain.FormatDate(b.EndDate.AddDate(0, 0, -1))
	s.Display.IssuedOn = domain.FormatDate(issued)
	return s
}

// Get returns an invoice to its customer or an admin.
func (s *InvoiceService) Get(id, userID uint, role string) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if role != domain.RoleAdmin && inv.UserID != userID {
		return nil, ErrForbidden
	}
	return inv, nil
}

func (s *InvoiceService) GetByBooking(bookingID, userID uint, role string) (*models.Invoice, error) {
	inv, err := s.existing(bookingID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	if role != domain.RoleAdmin && inv.UserID != userID {
		return nil, ErrForbidden
	}
	return inv, nil
}

func (s *InvoiceService) ListMine(userID uint, limit, offset int) ([]models.Invoice, error) {
	return s.invoices.ListByUser(userID, limit, offset)
}
