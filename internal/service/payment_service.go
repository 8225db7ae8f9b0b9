package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"
	"pgnest/pkg/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentVerification = errors.New("payment verification failed")
)

type PaymentStore interface {
	Create(p *models.Payment) error
	GetByOrderID(orderID string) (*models.Payment, error)
	GetOpenByBooking(bookingID uint) (*models.Payment, error)
	MarkFailed(id uint, providerPaymentID, reason string) error
	ConfirmSuccess(ctx context.Context, paymentID uint, providerPaymentID, signature string) (*models.Payment, *models.Booking, error)
}

type BookingReader interface {
	GetByID(id uint) (*models.Booking, error)
}

type InvoiceGenerator interface {
	Generate(ctx context.Context, bookingID uint) (*models.Invoice, error)
}

type ReferralCrediter interface {
	CreditFirstBooking(ctx context.Context, b *models.Booking)
}

type PaymentNotifier interface {
	BookingConfirmed(ctx context.Context, b *models.Booking, p *models.Payment)
	PaymentFailed(ctx context.Context, p *models.Payment, reason string)
}

type PaymentService struct {
	payments  PaymentStore
	bookings  BookingReader
	provider  payment.Provider
	invoices  InvoiceGenerator
	referrals ReferralCrediter
	notifier  PaymentNotifier
	cache     SearchInvalidator
	currency  string
	merchant  string
}

func NewPaymentService(
	payments PaymentStore,
	bookings BookingReader,
	provider payment.Provider,
	invoices InvoiceGenerator,
	referrals ReferralCrediter,
	notifier PaymentNotifier,
	cache SearchInvalidator,
	currency, merchant string,
) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		payments:  payments,
		bookings:  bookings,
		provider:  provider,
		invoices:  invoices,
		referrals: referrals,
		notifier:  notifier,
		cache:     cache,
		currency:  currency,
		merchant:  merchant,
	}
}

// Checkout holds the parameters the client passes to the gateway's checkout widget.
type Checkout struct {
	KeyID       string          `json:"key"`
	OrderID     string          `json:"order_id"`
	AmountPaise int64           `json:"amount"`
	Amount      string          `json:"amount_display"`
	Currency    string          `json:"currency"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BookingID   uint            `json:"booking_id"`
	PaymentID   uint            `json:"payment_id"`
	Provider    string          `json:"provider"`
	Prefill     CheckoutPrefill `json:"prefill"`
}

type CheckoutPrefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// VerifyRequest is what the checkout widget hands back on success.
type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// FailureRequest is reported by the checkout widget when the user's payment fails.
type FailureRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id"`
	Reason    string `json:"reason"`
}

func (s *PaymentService) ownedPendingBooking(bookingID, userID uint) (*models.Booking, error) {
	b, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingStatusPending {
		return nil, ErrNotPending
	}
	return b, nil
}

// Checkout creates a gateway order for a pending booking, reusing an open one when
// its amount still matches.
func (s *PaymentService) Checkout(ctx context.Context, bookingID, userID uint) (*Checkout, error) {
	b, err := s.ownedPendingBooking(bookingID, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.payments.GetOpenByBooking(b.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if p == nil || p.AmountPaise != b.TotalAmountPaise {
		receipt := fmt.Sprintf("bk_%d_%s", b.ID, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
		order, err := s.provider.CreateOrder(ctx, payment.OrderRequest{
			AmountPaise: b.TotalAmountPaise,
			Currency:    s.currency,
			Receipt:     receipt,
			Notes: map[string]string{
				"booking_id": fmt.Sprintf("%d", b.ID),
				"listing_id": fmt.Sprintf("%d", b.ListingID),
			},
		})
		if err != nil {
			log.Printf("[payment] create order for booking=%d failed: %v", b.ID, err)
			return nil, err
		}
		p = &models.Payment{
			BookingID:       b.ID,
			UserID:          userID,
			AmountPaise:     b.TotalAmountPaise,
			Currency:        s.currency,
			Provider:        s.provider.Name(),
			Receipt:         receipt,
			ProviderOrderID: order.ID,
			Status:          domain.PaymentStatusInitiated,
		}
		if err := s.payments.Create(p); err != nil {
			return nil, err
		}
		log.Printf("[payment] order %s created for booking=%d amount=%d", order.ID, b.ID, b.TotalAmountPaise)
	}
	return &Checkout{
		KeyID:       s.provider.KeyID(),
		OrderID:     p.ProviderOrderID,
		AmountPaise: p.AmountPaise,
		Amount:      domain.FormatINR(p.AmountPaise),
		Currency:    p.Currency,
		Name:        s.merchant,
		Description: fmt.Sprintf("Booking #%d · %s", b.ID, b.Listing.Title),
		BookingID:   b.ID,
		PaymentID:   p.ID,
		Provider:    p.Provider,
		Prefill: CheckoutPrefill{
			Name:    b.User.DisplayName(),
			Email:   b.User.Email,
			Contact: b.User.Phone,
		},
	}, nil
}

func (s *PaymentService) paymentByOrder(orderID string) (*models.Payment, error) {
	p, err := s.payments.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// Verify checks the checkout signature. A valid signature confirms the booking; an
// invalid one marks the payment failed and leaves the booking pending.
func (s *PaymentService) Verify(ctx context.Context, userID uint, req VerifyRequest) (*models.Booking, *models.Payment, error) {
	p, err := s.paymentByOrder(req.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if p.UserID != userID {
		return nil, nil, ErrForbidden
	}
	if p.Status == domain.PaymentStatusSuccess {
		b, err := s.bookings.GetByID(p.BookingID)
		return b, p, err
	}
	if err := s.provider.VerifyPayment(req.OrderID, req.PaymentID, req.Signature); err != nil {
		log.Printf("[payment] signature mismatch order=%s payment=%s", req.OrderID, req.PaymentID)
		s.fail(ctx, p, req.PaymentID, "signature verification failed")
		return nil, nil, ErrPaymentVerification
	}
	return s.confirm(ctx, p, req.PaymentID, req.Signature)
}

// Fail records a failure reported by the checkout widget.
func (s *PaymentService) Fail(ctx context.Context, userID uint, req FailureRequest) error {
	p, err := s.paymentByOrder(req.OrderID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrForbidden
	}
	reason := req.Reason
	if reason == "" {
		reason = "payment failed at checkout"
	}
	s.fail(ctx, p, req.PaymentID, reason)
	return nil
}

// fail records a failed attempt. The order stays payable, so a later capture on
// it still confirms the booking.
func (s *PaymentService) fail(ctx context.Context, p *models.Payment, providerPaymentID, reason string) {
	if p.Status == domain.PaymentStatusSuccess {
		return
	}
	if err := s.payments.MarkFailed(p.ID, providerPaymentID, reason); err != nil {
		log.Printf("[payment] mark failed payment=%d: %v", p.ID, err)
		return
	}
	p.Status = domain.PaymentStatusFailed
	p.FailureReason = reason
	if s.notifier != nil {
		s.notifier.PaymentFailed(ctx, p, reason)
	}
}

func (s *PaymentService) confirm(ctx context.Context, p *models.Payment, providerPaymentID, signature string) (*models.Booking, *models.Payment, error) {
	paid, _, err := s.payments.ConfirmSuccess(ctx, p.ID, providerPaymentID, signature)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotOpen):
			latest, lerr := s.payments.GetByOrderID(p.ProviderOrderID)
			if lerr == nil && latest.Status == domain.PaymentStatusSuccess {
				b, berr := s.bookings.GetByID(latest.BookingID)
				return b, latest, berr
			}
			return nil, nil, ErrPaymentVerification
		case errors.Is(err, repository.ErrInvalidTransition):
			log.Printf("[payment] captured payment %s for booking=%d which is no longer pending; refund manually", providerPaymentID, p.BookingID)
			return nil, nil, ErrNotPending
		}
		return nil, nil, err
	}
	log.Printf("[payment] payment=%d success, booking=%d confirmed", paid.ID, paid.BookingID)

	b, err := s.bookings.GetByID(paid.BookingID)
	if err != nil {
		return nil, paid, err
	}
	s.afterConfirm(ctx, b, paid)
	return b, paid, nil
}

// afterConfirm runs the follow-ups of a confirmed booking. Failures are logged only.
func (s *PaymentService) afterConfirm(ctx context.Context, b *models.Booking, p *models.Payment) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.invoices != nil {
		if _, err := s.invoices.Generate(ctx, b.ID); err != nil {
			log.Printf("[invoice] generation for booking=%d failed: %v", b.ID, err)
		}
	}
	if s.referrals != nil {
		s.referrals.CreditFirstBooking(ctx, b)
	}
	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, b, p)
	}
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook applies gateway events. Unknown orders and events are acknowledged.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := s.provider.VerifyWebhook(body, signature); err != nil {
		return payment.ErrInvalidSignature
	}
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode webhook: %w", err)
	}
	entity := ev.Payload.Payment.Entity
	if entity.OrderID == "" {
		return nil
	}
	p, err := s.paymentByOrder(entity.OrderID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			log.Printf("[payment] webhook %s for unknown order %s", ev.Event, entity.OrderID)
			return nil
		}
		return err
	}
	switch ev.Event {
	case "payment.captured", "order.paid":
		if p.Status == domain.PaymentStatusSuccess {
			return nil
		}
		_, _, err := s.confirm(ctx, p, entity.ID, "")
		if errors.Is(err, ErrNotPending) || errors.Is(err, ErrPaymentVerification) {
			log.Printf("[payment] webhook capture for payment=%d not applied: %v", p.ID, err)
			return nil
		}
		return err
	case "payment.failed":
		reason := entity.ErrorDescription
		if reason == "" {
			reason = "payment failed"
		}
		s.fail(ctx, p, entity.ID, reason)
	default:
		log.Printf("[payment] ignoring webhook event %s", ev.Event)
	}
	return nil
}
