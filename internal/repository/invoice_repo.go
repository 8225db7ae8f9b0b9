package repository

import (
	"errors"
	"fmt"
	"strings"

	"pgnest/internal/models"

	"gorm.io/gorm"
)

var ErrDuplicateInvoice = errors.New("invoice already exists for booking")

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice and assigns its number from the row id in the same
// transaction. A second invoice for the same booking fails with ErrDuplicateInvoice.
func (r *InvoiceRepository) Create(inv *models.Invoice, prefix string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		inv.InvoiceNumber = fmt.Sprintf("TMP-%d", inv.BookingID)
		if err := tx.Create(inv).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateInvoice
			}
			return err
		}
		inv.InvoiceNumber = fmt.Sprintf("%s-%d-%06d", prefix, inv.IssuedAt.Year(), inv.ID)
		return tx.Model(inv).UpdateColumn("invoice_number", inv.InvoiceNumber).Error
	})
}

func (r *InvoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) GetByBooking(bookingID uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.Where("booking_id = ?", bookingID).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListByUser(userID uint, limit, offset int) ([]models.Invoice, error) {
	var list []models.Invoice
	err := r.db.Where("user_id = ?", userID).Order("issued_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *InvoiceRepository) List(limit, offset int) ([]models.Invoice, int64, error) {
	var total int64
	r.db.Model(&models.Invoice{}).Count(&total)
	var list []models.Invoice
	err := r.db.Order("issued_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// isDuplicateKey matches MySQL error 1062 and gorm's translated error.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "1062")
}
