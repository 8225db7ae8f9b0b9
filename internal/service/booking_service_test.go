package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"
)

var fixedNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

type bookingFixture struct {
	svc      *BookingService
	bookings *fakeBookings
	payments *fakePayments
	events   *recorder
}

// newBookingFixture has listing 1 owned by user 50 with one single-sharing room of one bed.
// User 7 is KYC verified, user 8 is not.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	room := models.RoomConfiguration{ID: 11, ListingID: 1, RoomType: "single", BedsPerRoom: 1, TotalRooms: 1, RentPaise: 500000}
	listings := fakeListings{1: testListing(1, 50, room)}
	bookings := newFakeBookings(&room)
	bookings.listings = listings
	payments := newFakePayments(bookings)
	events := &recorder{}
	svc := NewBookingService(bookings, listings, verifiedKYC(7, 9), bookings, payments, fakeSettings{}, events, events)
	svc.now = func() time.Time { return fixedNow }
	return &bookingFixture{svc: svc, bookings: bookings, payments: payments, events: events}
}

func validRequest() BookingRequest {
	return BookingRequest{RoomConfigurationID: 11, StartDate: "2026-04", DurationMonths: 3}
}

func TestBookingPageRequiresKYC(t *testing.T) {
	f := newBookingFixture(t)
	page, err := f.svc.Page(8, 1)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Step != "kyc" || page.KYCStatus != "not_submitted" {
		t.Fatalf("step=%q kyc=%q, want kyc/not_submitted", page.Step, page.KYCStatus)
	}
	if len(page.Rooms) != 0 {
		t.Fatalf("unverified user should not see room options")
	}
}

func TestBookingPageListsRooms(t *testing.T) {
	f := newBookingFixture(t)
	page, err := f.svc.Page(7, 1)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Step != "details" {
		t.Fatalf("step = %q, want details", page.Step)
	}
	if len(page.Rooms) != 1 || page.Rooms[0].AvailableBeds != 1 {
		t.Fatalf("rooms = %+v", page.Rooms)
	}
	if page.MinStart != "2026-03" {
		t.Fatalf("min start = %q, want 2026-03", page.MinStart)
	}
	if page.DepositTerms != "1 month rent as security deposit" {
		t.Fatalf("deposit terms = %q", page.DepositTerms)
	}
}

func TestCreateBookingWithoutKYC(t *testing.T) {
	f := newBookingFixture(t)
	_, _, err := f.svc.Create(context.Background(), 8, 1, validRequest())
	if !errors.Is(err, ErrKYCRequired) {
		t.Fatalf("err = %v, want ErrKYCRequired", err)
	}
}

func TestCreateBookingUnknownListing(t *testing.T) {
	f := newBookingFixture(t)
	_, _, err := f.svc.Create(context.Background(), 7, 99, validRequest())
	if !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("err = %v, want ErrListingNotFound", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	f := newBookingFixture(t)
	req := BookingRequest{RoomConfigurationID: 404, StartDate: "2026-01", DurationMonths: 13}
	_, _, err := f.svc.Create(context.Background(), 7, 1, req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, field := range []string{"start_date", "duration_months", "room_configuration_id"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing field error for %s in %v", field, verr.Fields)
		}
	}
	if f.events.count("booking_created") != 0 {
		t.Fatalf("no booking should be created")
	}
}

func TestCreateBookingQuoteAndPending(t *testing.T) {
	f := newBookingFixture(t)
	b, q, err := f.svc.Create(context.Background(), 7, 1, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Status != domain.BookingStatusPending {
		t.Fatalf("status = %q, want pending", b.Status)
	}
	want := domain.CalculateQuote(500000, 3, domain.DepositPolicy{Type: domain.DepositTypeMonths, Value: 1}, 18)
	if *q != want {
		t.Fatalf("quote = %+v, want %+v", *q, want)
	}
	if b.TotalAmountPaise != 2090000 {
		t.Fatalf("total = %d, want 2090000", b.TotalAmountPaise)
	}
	if got := b.StartDate.Format("2006-01-02"); got != "2026-04-01" {
		t.Fatalf("start = %s", got)
	}
	if got := b.EndDate.Format("2006-01-02"); got != "2026-07-01" {
		t.Fatalf("end = %s", got)
	}
	if f.events.count("booking_created") != 1 || f.events.count("invalidate") != 1 {
		t.Fatalf("calls = %v", f.events.calls)
	}
}

func TestCreateBookingNoBedsLeft(t *testing.T) {
	f := newBookingFixture(t)
	if _, _, err := f.svc.Create(context.Background(), 7, 1, validRequest()); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, _, err := f.svc.Create(context.Background(), 9, 1, validRequest())
	if !errors.Is(err, ErrNoBedsAvailable) {
		t.Fatalf("err = %v, want ErrNoBedsAvailable", err)
	}
}

func TestCancelReleasesBed(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b, _, err := f.svc.Create(ctx, 7, 1, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, b.ID, 9); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cancel by stranger err = %v, want ErrForbidden", err)
	}
	cancelled, err := f.svc.Cancel(ctx, b.ID, 7)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.BookingStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("cancelled = %+v", cancelled)
	}
	if _, err := f.svc.Cancel(ctx, b.ID, 7); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second cancel err = %v, want ErrNotPending", err)
	}
	if _, _, err := f.svc.Create(ctx, 9, 1, validRequest()); err != nil {
		t.Fatalf("bed should be free again: %v", err)
	}
}

func TestSetStatusConfirmNeedsPayment(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	b, _, err := f.svc.Create(ctx, 7, 1, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, b.ID, 50, domain.RoleOwner, domain.BookingStatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner confirm err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.SetStatus(ctx, b.ID, 1, domain.RoleAdmin, domain.BookingStatusConfirmed); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("admin confirm err = %v, want ErrPaymentRequired", err)
	}
	if _, err := f.svc.SetStatus(ctx, b.ID, 51, domain.RoleOwner, domain.BookingStatusCancelled); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other owner err = %v, want ErrForbidden", err)
	}
	got, err := f.svc.SetStatus(ctx, b.ID, 50, domain.RoleOwner, domain.BookingStatusCancelled)
	if err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if got.Status != domain.BookingStatusCancelled {
		t.Fatalf("status = %q", got.Status)
	}
	if _, err := f.svc.SetStatus(ctx, b.ID, 1, domain.RoleAdmin, domain.BookingStatusCompleted); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("cancelled -> completed err = %v, want ErrInvalidStatus", err)
	}
}

func TestNonOverlappingStayKeepsLastBed(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.Create(ctx, 7, 1, validRequest()); err != nil {
		t.Fatalf("April booking: %v", err)
	}
	later := BookingRequest{RoomConfigurationID: 11, StartDate: "2026-07", DurationMonths: 2}
	b, _, err := f.svc.Create(ctx, 9, 1, later)
	if err != nil {
		t.Fatalf("July booking should fit after the April stay ends: %v", err)
	}
	if got := b.StartDate.Format("2006-01-02"); got != "2026-07-01" {
		t.Fatalf("start = %s", got)
	}
	overlapping := BookingRequest{RoomConfigurationID: 11, StartDate: "2026-06", DurationMonths: 1}
	if _, _, err := f.svc.Create(ctx, 9, 1, overlapping); !errors.Is(err, ErrNoBedsAvailable) {
		t.Fatalf("June booking err = %v, want ErrNoBedsAvailable", err)
	}
}

func TestRoomDepositOverride(t *testing.T) {
	f := newBookingFixture(t)
	l, _ := f.bookings.listings.GetActive(1)
	l.Rooms[0].DepositType = domain.DepositTypeFixed
	l.Rooms[0].DepositValue = 300000
	f.bookings.rooms[11].DepositType = domain.DepositTypeFixed
	f.bookings.rooms[11].DepositValue = 300000

	page, err := f.svc.Page(7, 1)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page.Rooms[0].DepositTerms != "₹3,000.00 security deposit" {
		t.Fatalf("room deposit terms = %q", page.Rooms[0].DepositTerms)
	}
	if page.DepositTerms != "1 month rent as security deposit" {
		t.Fatalf("listing deposit terms = %q", page.DepositTerms)
	}

	_, q, err := f.svc.Create(context.Background(), 7, 1, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := domain.CalculateQuote(500000, 3, domain.DepositPolicy{Type: domain.DepositTypeFixed, Value: 300000}, 18)
	if *q != want || q.Deposit != 300000 {
		t.Fatalf("quote = %+v, want %+v", *q, want)
	}
}
