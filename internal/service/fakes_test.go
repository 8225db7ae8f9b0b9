package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"
	"pgnest/pkg/redisx"

	"gorm.io/gorm"
)

type fakeSettings map[string]string

func (f fakeSettings) GetString(key, fallback string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return fallback
}

func (f fakeSettings) GetInt64(key string, fallback int64) int64 {
	return fallback
}

func (f fakeSettings) GetFloat(key string, fallback float64) float64 {
	return fallback
}

type fakeListings map[uint]*models.Listing

func (f fakeListings) GetActive(id uint) (*models.Listing, error) {
	l, ok := f[id]
	if !ok || l.Status != domain.ListingStatusActive {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

type fakeKYC map[uint]*models.UserKYC

func (f fakeKYC) Latest(userID uint) (*models.UserKYC, error) {
	k, ok := f[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return k, nil
}

// fakeBookings keeps bookings in memory and counts booked beds per room and date range.
type fakeBookings struct {
	mu       sync.Mutex
	nextID   uint
	rooms    map[uint]*models.RoomConfiguration
	bookings map[uint]*models.Booking
	listings fakeListings
}

func newFakeBookings(rooms ...*models.RoomConfiguration) *fakeBookings {
	f := &fakeBookings{
		rooms:    map[uint]*models.RoomConfiguration{},
		bookings: map[uint]*models.Booking{},
	}
	for _, r := range rooms {
		f.rooms[r.ID] = r
	}
	return f
}

func (f *fakeBookings) ReserveBed(ctx context.Context, b *models.Booking, check func(room *models.RoomConfiguration, bookedBeds int) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[b.RoomConfigurationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := check(room, f.countLocked(room.ID, b.StartDate, b.EndDate)); err != nil {
		return err
	}
	f.nextID++
	b.ID = f.nextID
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookings) Transition(ctx context.Context, id uint, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if b.Status != from || !domain.CanTransitionBooking(from, to) {
		return repository.ErrInvalidTransition
	}
	b.Status = to
	if to == domain.BookingStatusCancelled {
		now := time.Now()
		b.CancelledAt = &now
	}
	if to == domain.BookingStatusConfirmed {
		now := time.Now()
		b.ConfirmedAt = &now
	}
	return nil
}

func (f *fakeBookings) GetByID(id uint) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	if l, ok := f.listings[cp.ListingID]; ok {
		cp.Listing = *l
	}
	return &cp, nil
}

func (f *fakeBookings) BookedBeds(roomID uint, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(roomID, from, to), nil
}

func (f *fakeBookings) countLocked(roomID uint, from, to time.Time) int {
	n := 0
	for _, b := range f.bookings {
		if b.RoomConfigurationID == roomID && domain.HoldsBed(b.Status, b.StartDate, b.EndDate, from, to) {
			n++
		}
	}
	return n
}

func (f *fakeBookings) put(b *models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID > f.nextID {
		f.nextID = b.ID
	}
	cp := *b
	f.bookings[b.ID] = &cp
}

// fakePayments mirrors the payment repository's state machine.
type fakePayments struct {
	mu       sync.Mutex
	nextID   uint
	payments map[uint]*models.Payment
	bookings *fakeBookings
}

func newFakePayments(bookings *fakeBookings) *fakePayments {
	return &fakePayments{payments: map[uint]*models.Payment{}, bookings: bookings}
}

func (f *fakePayments) Create(p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePayments) GetByOrderID(orderID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ProviderOrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayments) GetOpenByBooking(bookingID uint) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.BookingID == bookingID && p.Status != domain.PaymentStatusSuccess {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayments) GetSuccessByBooking(bookingID uint) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.BookingID == bookingID && p.Status == domain.PaymentStatusSuccess {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayments) MarkFailed(id uint, providerPaymentID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status == domain.PaymentStatusSuccess {
		return repository.ErrPaymentNotOpen
	}
	p.Status = domain.PaymentStatusFailed
	p.FailureReason = reason
	return nil
}

func (f *fakePayments) ConfirmSuccess(ctx context.Context, paymentID uint, providerPaymentID, signature string) (*models.Payment, *models.Booking, error) {
	f.mu.Lock()
	p, ok := f.payments[paymentID]
	if !ok || p.Status == domain.PaymentStatusSuccess {
		f.mu.Unlock()
		return nil, nil, repository.ErrPaymentNotOpen
	}
	f.mu.Unlock()
	if err := f.bookings.Transition(ctx, p.BookingID, domain.BookingStatusPending, domain.BookingStatusConfirmed); err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	p.Status = domain.PaymentStatusSuccess
	p.ProviderPaymentID = &providerPaymentID
	p.Signature = signature
	p.CompletedAt = &now
	b, _ := f.bookings.GetByID(p.BookingID)
	cp := *p
	return &cp, b, nil
}

func (f *fakePayments) status(id uint) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments[id].Status
}

type fakeInvoices struct {
	mu       sync.Mutex
	creates  int
	invoices map[uint]*models.Invoice
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{invoices: map[uint]*models.Invoice{}}
}

func (f *fakeInvoices) Create(inv *models.Invoice, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[inv.BookingID]; ok {
		return repository.ErrDuplicateInvoice
	}
	f.creates++
	inv.ID = uint(len(f.invoices) + 1)
	inv.InvoiceNumber = fmt.Sprintf("%s-%d-%06d", prefix, inv.IssuedAt.Year(), inv.ID)
	cp := *inv
	f.invoices[inv.BookingID] = &cp
	return nil
}

func (f *fakeInvoices) GetByID(id uint) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInvoices) GetByBooking(bookingID uint) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[bookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoices) ListByUser(userID uint, limit, offset int) ([]models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Invoice
	for _, inv := range f.invoices {
		if inv.UserID == userID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvoices) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// fakeLocker grants each key to one holder at a time.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, redisx.ErrLockHeld
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

// recorder implements every notifier interface and counts calls by name.
type recorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *recorder) hit(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[name]++
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *recorder) BookingCreated(ctx context.Context, b *models.Booking)       { r.hit("booking_created") }
func (r *recorder) BookingStatusChanged(ctx context.Context, b *models.Booking) { r.hit("booking_status") }
func (r *recorder) BookingConfirmed(ctx context.Context, b *models.Booking, p *models.Payment) {
	r.hit("booking_confirmed")
}
func (r *recorder) PaymentFailed(ctx context.Context, p *models.Payment, reason string) {
	r.hit("payment_failed")
}
func (r *recorder) InvoiceIssued(ctx context.Context, inv *models.Invoice, listingTitle string) {
	r.hit("invoice_issued")
}
func (r *recorder) CreditFirstBooking(ctx context.Context, b *models.Booking) { r.hit("referral_credit") }
func (r *recorder) Invalidate(ctx context.Context)                             { r.hit("invalidate") }

func testListing(id, ownerID uint, rooms ...models.RoomConfiguration) *models.Listing {
	return &models.Listing{
		ID:      id,
		OwnerID: ownerID,
		Title:   "Sunrise PG",
		City:    "Bengaluru",
		Status:  domain.ListingStatusActive,
		Rooms:   rooms,
	}
}

func verifiedKYC(userIDs ...uint) fakeKYC {
	f := fakeKYC{}
	for _, id := range userIDs {
		f[id] = &models.UserKYC{UserID: id, Status: domain.KYCStatusVerified}
	}
	return f
}
