package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/pkg/cloudinary"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrKYCAlreadyVerified = errors.New("KYC is already verified")
	ErrKYCPending         = errors.New("KYC submission is awaiting review")
	ErrKYCNotFound        = errors.New("KYC submission not found")
	ErrKYCReviewed        = errors.New("KYC submission was already reviewed")
)

type KYCStore interface {
	Create(k *models.UserKYC) error
	Latest(userID uint) (*models.UserKYC, error)
	GetByID(id uint) (*models.UserKYC, error)
	Review(id, reviewerID uint, status, notes string) (bool, error)
}

type DocumentUploader interface {
	UploadDocument(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
}

type KYCNotifier interface {
	KYCReviewed(ctx context.Context, k *models.UserKYC)
}

type KYCService struct {
	store    KYCStore
	uploader DocumentUploader
	folder   string
	notifier KYCNotifier
}

func NewKYCService(store KYCStore, uploader DocumentUploader, folder string, notifier KYCNotifier) *KYCService {
	return &KYCService{store: store, uploader: uploader, folder: folder, notifier: notifier}
}

// KYCState is what the profile and booking pages show.
type KYCState struct {
	Status     string          `json:"status"` // not_submitted | pending | verified | rejected
	Submission *models.UserKYC `json:"submission,omitempty"`
	CanSubmit  bool            `json:"can_submit"`
}

func (s *KYCService) State(userID uint) (*KYCState, error) {
	k, err := s.store.Latest(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &KYCState{Status: "not_submitted", CanSubmit: true}, nil
		}
		return nil, err
	}
	return &KYCState{
		Status:     k.Status,
		Submission: k,
		CanSubmit:  k.Status == domain.KYCStatusRejected,
	}, nil
}

type KYCSubmission struct {
	DocumentType   string `form:"document_type" binding:"required"`
	DocumentNumber string `form:"document_number" binding:"required,max=50"`
}

// Submit uploads the document and files a pending submission. A rejected user may
// resubmit; pending and verified users may not.
func (s *KYCService) Submit(ctx context.Context, userID uint, in KYCSubmission, file io.Reader) (*models.UserKYC, error) {
	verr := &ValidationError{}
	docType := strings.ToLower(strings.TrimSpace(in.DocumentType))
	valid := false
	for _, t := range domain.KYCDocumentTypes {
		if t == docType {
			valid = true
		}
	}
	if !valid {
		verr.add("document_type", "must be one of "+strings.Join(domain.KYCDocumentTypes, ", "))
	}
	number := strings.ToUpper(strings.TrimSpace(in.DocumentNumber))
	if number == "" {
		verr.add("document_number", "is required")
	}
	if file == nil {
		verr.add("document", "file is required")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	state, err := s.State(userID)
	if err != nil {
		return nil, err
	}
	switch state.Status {
	case domain.KYCStatusVerified:
		return nil, ErrKYCAlreadyVerified
	case domain.KYCStatusPending:
		return nil, ErrKYCPending
	}
	if s.uploader == nil {
		return nil, cloudinary.ErrNotConfigured
	}
	url, err := s.uploader.UploadDocument(ctx, file, s.folder+"/kyc", fmt.Sprintf("kyc_%d_%s", userID, uuid.NewString()))
	if err != nil {
		return nil, err
	}
	k := &models.UserKYC{
		UserID:         userID,
		DocumentType:   docType,
		DocumentNumber: number,
		DocumentURL:    url,
		Status:         domain.KYCStatusPending,
	}
	if err := s.store.Create(k); err != nil {
		return nil, err
	}
	log.Printf("[kyc] user=%d submitted %s", userID, docType)
	return k, nil
}

// Review records an admin decision on a pending submission and notifies the user.
func (s *KYCService) Review(ctx context.Context, id, reviewerID uint, status, notes string) (*models.UserKYC, error) {
	if status != domain.KYCStatusVerified && status != domain.KYCStatusRejected {
		return nil, fieldError("status", "must be verified or rejected")
	}
	notes = strings.TrimSpace(notes)
	if status == domain.KYCStatusRejected && notes == "" {
		return nil, fieldError("notes", "give the user a reason for the rejection")
	}
	ok, err := s.store.Review(id, reviewerID, status, notes)
	if err != nil {
		return nil, err
	}
	k, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKYCNotFound
		}
		return nil, err
	}
	if !ok {
		return nil, ErrKYCReviewed
	}
	log.Printf("[kyc] submission=%d %s by admin=%d", id, status, reviewerID)
	if s.notifier != nil {
		s.notifier.KYCReviewed(ctx, k)
	}
	return k, nil
}
