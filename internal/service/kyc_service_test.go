package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/pkg/cloudinary"

	"gorm.io/gorm"
)

type fakeKYCStore struct {
	rows []*models.UserKYC
}

func (f *fakeKYCStore) Create(k *models.UserKYC) error {
	k.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, k)
	return nil
}

func (f *fakeKYCStore) Latest(userID uint) (*models.UserKYC, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			return f.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeKYCStore) GetByID(id uint) (*models.UserKYC, error) {
	if id == 0 || int(id) > len(f.rows) {
		return nil, gorm.ErrRecordNotFound
	}
	return f.rows[id-1], nil
}

func (f *fakeKYCStore) Review(id, reviewerID uint, status, notes string) (bool, error) {
	if id == 0 || int(id) > len(f.rows) {
		return false, nil
	}
	k := f.rows[id-1]
	if k.Status != domain.KYCStatusPending {
		return false, nil
	}
	k.Status = status
	k.Notes = notes
	return true, nil
}

type fakeUploader struct{ uploads int }

func (u *fakeUploader) UploadDocument(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	u.uploads++
	return "https://res.cloudinary.com/demo/image/authenticated/upload/v1/" + folder + "/" + publicID + ".pdf", nil
}

type kycNotes struct{ reviewed int }

func (n *kycNotes) KYCReviewed(ctx context.Context, k *models.UserKYC) { n.reviewed++ }

func doc() io.Reader { return strings.NewReader("%PDF-1.4") }

func TestKYCSubmitValidation(t *testing.T) {
	svc := NewKYCService(&fakeKYCStore{}, &fakeUploader{}, "pgnest", nil)
	_, err := svc.Submit(context.Background(), 7, KYCSubmission{DocumentType: "library_card", DocumentNumber: " "}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, f := range []string{"document_type", "document_number", "document"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Errorf("missing %s in %v", f, verr.Fields)
		}
	}
}

func TestKYCLifecycle(t *testing.T) {
	store := &fakeKYCStore{}
	up := &fakeUploader{}
	notes := &kycNotes{}
	svc := NewKYCService(store, up, "pgnest", notes)
	ctx := context.Background()

	state, _ := svc.State(7)
	if state.Status != "not_submitted" || !state.CanSubmit {
		t.Fatalf("initial state = %+v", state)
	}
	k, err := svc.Submit(ctx, 7, KYCSubmission{DocumentType: "PAN", DocumentNumber: "abcde1234f"}, doc())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if k.Status != domain.KYCStatusPending || k.DocumentType != "pan" || k.DocumentNumber != "ABCDE1234F" {
		t.Fatalf("submission = %+v", k)
	}
	if !strings.Contains(k.DocumentURL, "pgnest/kyc/kyc_7_") {
		t.Fatalf("document url = %q", k.DocumentURL)
	}
	if _, err := svc.Submit(ctx, 7, KYCSubmission{DocumentType: "pan", DocumentNumber: "X"}, doc()); !errors.Is(err, ErrKYCPending) {
		t.Fatalf("resubmit while pending err = %v", err)
	}

	if _, err := svc.Review(ctx, k.ID, 1, domain.KYCStatusRejected, ""); err == nil {
		t.Fatalf("rejection without notes should fail")
	}
	if _, err := svc.Review(ctx, k.ID, 1, domain.KYCStatusRejected, "blurry photo"); err != nil {
		t.Fatalf("Review reject: %v", err)
	}
	if _, err := svc.Review(ctx, k.ID, 1, domain.KYCStatusVerified, ""); !errors.Is(err, ErrKYCReviewed) {
		t.Fatalf("second review err = %v, want ErrKYCReviewed", err)
	}

	again, err := svc.Submit(ctx, 7, KYCSubmission{DocumentType: "passport", DocumentNumber: "z1234567"}, doc())
	if err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
	if _, err := svc.Review(ctx, again.ID, 1, domain.KYCStatusVerified, ""); err != nil {
		t.Fatalf("Review verify: %v", err)
	}
	if _, err := svc.Submit(ctx, 7, KYCSubmission{DocumentType: "pan", DocumentNumber: "X"}, doc()); !errors.Is(err, ErrKYCAlreadyVerified) {
		t.Fatalf("submit after verify err = %v", err)
	}
	if up.uploads != 2 || notes.reviewed != 2 {
		t.Fatalf("uploads=%d reviewed=%d, want 2/2", up.uploads, notes.reviewed)
	}
	if _, err := svc.Review(ctx, 99, 1, domain.KYCStatusVerified, ""); !errors.Is(err, ErrKYCNotFound) {
		t.Fatalf("unknown submission err = %v", err)
	}
}

func TestKYCSubmitWithoutUploader(t *testing.T) {
	svc := NewKYCService(&fakeKYCStore{}, nil, "pgnest", nil)
	_, err := svc.Submit(context.Background(), 7, KYCSubmission{DocumentType: "pan", DocumentNumber: "X"}, doc())
	if !errors.Is(err, cloudinary.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
