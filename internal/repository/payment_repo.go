package repository

import (
	"context"
	"errors"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPaymentNotOpen = errors.New("payment is not awaiting confirmation")

var openPaymentStatuses = []string{domain.PaymentStatusInitiated, domain.PaymentStatusFailed}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("provider_order_id = ?", orderID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOpenByBooking returns the newest payment of a booking that has not
// succeeded. A failed attempt leaves its gateway order payable.
func (r *PaymentRepository) GetOpenByBooking(bookingID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("booking_id = ? AND status IN ?", bookingID, openPaymentStatuses).
		Order("created_at DESC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSuccessByBooking returns the successful payment of a booking, if any.
func (r *PaymentRepository) GetSuccessByBooking(bookingID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("booking_id = ? AND status = ?", bookingID, domain.PaymentStatusSuccess).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) MarkFailed(id uint, providerPaymentID, reason string) error {
	updates := map[string]interface{}{
		"status":         domain.PaymentStatusFailed,
		"failure_reason": truncate(reason, 255),
	}
	if providerPaymentID != "" {
		updates["provider_payment_id"] = providerPaymentID
	}
	return r.db.Model(&models.Payment{}).
		Where("id = ? AND status IN ?", id, openPaymentStatuses).
		Updates(updates).Error
}

// ConfirmSuccess marks the payment successful and confirms its booking in one
// transaction, then recounts the room's beds. A payment whose earlier attempt
// failed can still succeed on its order; an already successful payment or a
// booking no longer pending rolls everything back.
func (r *PaymentRepository) ConfirmSuccess(ctx context.Context, paymentID uint, providerPaymentID, signature string) (*models.Payment, *models.Booking, error) {
	var p models.Payment
	var b models.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, paymentID).Error; err != nil {
			return err
		}
		if p.Status == domain.PaymentStatusSuccess {
			return ErrPaymentNotOpen
		}
		if err := tx.First(&b, p.BookingID).Error; err != nil {
			return err
		}
		var room models.RoomConfiguration
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, b.RoomConfigurationID).Error; err != nil {
			return err
		}
		now := time.Now()
		pid := providerPaymentID
		p.Status = domain.PaymentStatusSuccess
		p.ProviderPaymentID = &pid
		p.Signature = signature
		p.CompletedAt = &now
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", b.ID, domain.BookingStatusPending).
			Updates(map[string]interface{}{"status": domain.BookingStatusConfirmed, "confirmed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		b.Status = domain.BookingStatusConfirmed
		b.ConfirmedAt = &now
		return refreshAvailableBeds(tx, &room, today())
	})
	if err != nil {
		return nil, nil, err
	}
	return &p, &b, nil
}

func (r *PaymentRepository) List(status string, limit, offset int) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Payment
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// SumSuccessful totals successful payments, optionally limited to one owner's listings.
func (r *PaymentRepository) SumSuccessful(ownerID uint) (int64, error) {
	q := r.db.Model(&models.Payment{}).Where("payments.status = ?", domain.PaymentStatusSuccess)
	if ownerID != 0 {
		q = q.Joins("JOIN bookings ON bookings.id = payments.booking_id").
			Joins("JOIN listings ON listings.id = bookings.listing_id").
			Where("listings.owner_id = ?", ownerID)
	}
	var row struct{ Total int64 }
	err := q.Select("COALESCE(SUM(payments.amount_paise), 0) AS total").Scan(&row).Error
	return row.Total, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
