package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrVisitNotFound = errors.New("visit not found")

type VisitStore interface {
	Create(v *models.VisitBooking) error
	GetByID(id uint) (*models.VisitBooking, error)
	SetStatus(id uint, from, to string) (bool, error)
}

type VisitNotifier interface {
	VisitRequested(ctx context.Context, v *models.VisitBooking)
	VisitStatusChanged(ctx context.Context, v *models.VisitBooking)
}

type VisitService struct {
	visits   VisitStore
	listings ListingReader
	notifier VisitNotifier
	now      func() time.Time
}

func NewVisitService(visits VisitStore, listings ListingReader, notifier VisitNotifier) *VisitService {
	return &VisitService{visits: visits, listings: listings, notifier: notifier, now: time.Now}
}

type VisitRequest struct {
	VisitDate string `json:"visit_date" binding:"required"`
	VisitTime string `json:"visit_time" binding:"required"`
	Message   string `json:"message" binding:"max=1000"`
}

// Request books a property visit on an active listing.
func (s *VisitService) Request(ctx context.Context, userID, listingID uint, req VisitRequest) (*models.VisitBooking, error) {
	l, err := s.listings.GetActive(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	verr := &ValidationError{}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.VisitDate))
	if err != nil {
		verr.add("visit_date", "must be YYYY-MM-DD")
	} else {
		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if date.Before(today) {
			verr.add("visit_date", "cannot be in the past")
		}
	}
	t, err := time.Parse("15:04", strings.TrimSpace(req.VisitTime))
	if err != nil {
		verr.add("visit_time", "must be HH:MM")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	v := &models.VisitBooking{
		UserID:    userID,
		ListingID: l.ID,
		VisitDate: datatypes.Date(date),
		VisitTime: t.Format("15:04"),
		Message:   strings.TrimSpace(req.Message),
		Status:    domain.VisitStatusPending,
	}
	if err := s.visits.Create(v); err != nil {
		return nil, err
	}
	log.Printf("[visit] user=%d requested visit=%d on listing=%d", userID, v.ID, l.ID)
	full, err := s.visits.GetByID(v.ID)
	if err != nil {
		return v, nil
	}
	if s.notifier != nil {
		s.notifier.VisitRequested(ctx, full)
	}
	return full, nil
}

// SetStatus lets the listing owner or an admin move a visit along; the visitor may
// only cancel their own visit.
func (s *VisitService) SetStatus(ctx context.Context, id, actorID uint, role, to string) (*models.VisitBooking, error) {
	v, err := s.visits.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	isManager := role == domain.RoleAdmin || v.Listing.OwnerID == actorID
	isVisitor := v.UserID == actorID
	if !isManager && !(isVisitor && to == domain.VisitStatusCancelled) {
		return nil, ErrForbidden
	}
	if !domain.CanTransitionVisit(v.Status, to) {
		return nil, ErrInvalidStatus
	}
	ok, err := s.visits.SetStatus(id, v.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStatus
	}
	log.Printf("[visit] visit=%d %s -> %s by user=%d", id, v.Status, to, actorID)
	v.Status = to
	if s.notifier != nil && !isVisitor {
		s.notifier.VisitStatusChanged(ctx, v)
	}
	return v, nil
}
