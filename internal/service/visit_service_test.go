package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type fakeVisits struct {
	rows     map[uint]*models.VisitBooking
	listings fakeListings
}

func (f *fakeVisits) Create(v *models.VisitBooking) error {
	if f.rows == nil {
		f.rows = map[uint]*models.VisitBooking{}
	}
	v.ID = uint(len(f.rows) + 1)
	cp := *v
	f.rows[v.ID] = &cp
	return nil
}

func (f *fakeVisits) GetByID(id uint) (*models.VisitBooking, error) {
	v, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	if l, ok := f.listings[cp.ListingID]; ok {
		cp.Listing = *l
	}
	return &cp, nil
}

func (f *fakeVisits) SetStatus(id uint, from, to string) (bool, error) {
	v, ok := f.rows[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	return true, nil
}

type visitNotes struct{ requested, changed int }

func (n *visitNotes) VisitRequested(ctx context.Context, v *models.VisitBooking)     { n.requested++ }
func (n *visitNotes) VisitStatusChanged(ctx context.Context, v *models.VisitBooking) { n.changed++ }

func newVisitService() (*VisitService, *visitNotes) {
	listings := fakeListings{1: testListing(1, 50)}
	notes := &visitNotes{}
	svc := NewVisitService(&fakeVisits{listings: listings}, listings, notes)
	svc.now = func() time.Time { return fixedNow }
	return svc, notes
}

func TestVisitRequestValidation(t *testing.T) {
	svc, _ := newVisitService()
	ctx := context.Background()
	_, err := svc.Request(ctx, 7, 1, VisitRequest{VisitDate: "2026-03-09", VisitTime: "25:00"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["visit_date"]; !ok {
		t.Fatalf("past date not rejected: %v", verr.Fields)
	}
	if _, ok := verr.Fields["visit_time"]; !ok {
		t.Fatalf("bad time not rejected: %v", verr.Fields)
	}
	if _, err := svc.Request(ctx, 7, 2, VisitRequest{VisitDate: "2026-03-12", VisitTime: "10:00"}); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("err = %v, want ErrListingNotFound", err)
	}
}

func TestVisitStatusPermissions(t *testing.T) {
	svc, notes := newVisitService()
	ctx := context.Background()
	v, err := svc.Request(ctx, 7, 1, VisitRequest{VisitDate: "2026-03-10", VisitTime: "17:30", Message: " hi "})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if v.Status != domain.VisitStatusPending || v.Message != "hi" || notes.requested != 1 {
		t.Fatalf("visit = %+v requested=%d", v, notes.requested)
	}
	if _, err := svc.SetStatus(ctx, v.ID, 7, domain.RoleUser, domain.VisitStatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("visitor confirm err = %v, want ErrForbidden", err)
	}
	if _, err := svc.SetStatus(ctx, v.ID, 51, domain.RoleOwner, domain.VisitStatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other owner err = %v, want ErrForbidden", err)
	}
	got, err := svc.SetStatus(ctx, v.ID, 50, domain.RoleOwner, domain.VisitStatusConfirmed)
	if err != nil || got.Status != domain.VisitStatusConfirmed {
		t.Fatalf("owner confirm = %+v, %v", got, err)
	}
	if _, err := svc.SetStatus(ctx, v.ID, 50, domain.RoleOwner, domain.VisitStatusPending); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("back to pending err = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.SetStatus(ctx, v.ID, 7, domain.RoleUser, domain.VisitStatusCancelled); err != nil {
		t.Fatalf("visitor cancel: %v", err)
	}
	if notes.changed != 1 {
		t.Fatalf("changed = %d, want 1 (visitor cancel is not notified)", notes.changed)
	}
	if _, err := svc.SetStatus(ctx, 99, 1, domain.RoleAdmin, domain.VisitStatusCancelled); !errors.Is(err, ErrVisitNotFound) {
		t.Fatalf("err = %v, want ErrVisitNotFound", err)
	}
}
