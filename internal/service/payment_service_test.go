package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/pkg/payment"
)

const testGatewaySecret = "test_secret"

type paymentFixture struct {
	*bookingFixture
	pay      *PaymentService
	invoices *fakeInvoices
	booking  *models.Booking
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	bf := newBookingFixture(t)
	b, _, err := bf.svc.Create(context.Background(), 7, 1, validRequest())
	if err != nil {
		t.Fatalf("Create booking: %v", err)
	}
	invoices := newFakeInvoices()
	invoiceSvc := NewInvoiceService(invoices, bf.bookings, bf.payments, fakeSettings{}, &fakeLocker{}, bf.events)
	provider := &payment.StubProvider{Secret: testGatewaySecret}
	pay := NewPaymentService(bf.payments, bf.bookings, provider, invoiceSvc, bf.events, bf.events, bf.events, "INR", "PG Nest")
	return &paymentFixture{bookingFixture: bf, pay: pay, invoices: invoices, booking: b}
}

func checkoutSignature(orderID, paymentID string) string {
	return payment.Sign(payment.CheckoutMessage(orderID, paymentID), testGatewaySecret)
}

func TestCheckoutReusesOpenOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	first, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if first.AmountPaise != f.booking.TotalAmountPaise || first.Currency != "INR" || first.Provider != "stub" {
		t.Fatalf("checkout = %+v", first)
	}
	second, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("second Checkout: %v", err)
	}
	if second.OrderID != first.OrderID || second.PaymentID != first.PaymentID {
		t.Fatalf("expected the open order to be reused, got %s then %s", first.OrderID, second.OrderID)
	}
}

func TestCheckoutOnlyForOwnPendingBooking(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	if _, err := f.pay.Checkout(ctx, f.booking.ID, 9); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Cancel(ctx, f.booking.ID, 7); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.pay.Checkout(ctx, f.booking.ID, 7); !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
}

func TestVerifyBadSignatureKeepsBookingPending(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	co, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	_, _, err = f.pay.Verify(ctx, 7, VerifyRequest{OrderID: co.OrderID, PaymentID: "pay_1", Signature: "forged"})
	if !errors.Is(err, ErrPaymentVerification) {
		t.Fatalf("err = %v, want ErrPaymentVerification", err)
	}
	if got := f.payments.status(co.PaymentID); got != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %q, want failed", got)
	}
	b, _ := f.bookings.GetByID(f.booking.ID)
	if b.Status != domain.BookingStatusPending {
		t.Fatalf("booking status = %q, want pending", b.Status)
	}
	if f.events.count("payment_failed") != 1 || f.events.count("booking_confirmed") != 0 {
		t.Fatalf("calls = %v", f.events.calls)
	}

	retry, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("retry Checkout: %v", err)
	}
	if retry.PaymentID != co.PaymentID || retry.OrderID != co.OrderID {
		t.Fatalf("retry should reuse the payable order %s, got %s", co.OrderID, retry.OrderID)
	}
}

func TestCaptureAfterFailedAttemptConfirms(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	co, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if err := f.pay.Fail(ctx, 7, FailureRequest{OrderID: co.OrderID, PaymentID: "pay_attempt1", Reason: "card declined"}); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if got := f.payments.status(co.PaymentID); got != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %q, want failed", got)
	}

	req := VerifyRequest{OrderID: co.OrderID, PaymentID: "pay_attempt2", Signature: checkoutSignature(co.OrderID, "pay_attempt2")}
	b, p, err := f.pay.Verify(ctx, 7, req)
	if err != nil {
		t.Fatalf("Verify after failed attempt: %v", err)
	}
	if b.Status != domain.BookingStatusConfirmed || p.Status != domain.PaymentStatusSuccess {
		t.Fatalf("booking=%q payment=%q", b.Status, p.Status)
	}
	if *p.ProviderPaymentID != "pay_attempt2" {
		t.Fatalf("provider payment id = %q", *p.ProviderPaymentID)
	}
	if f.invoices.createCount() != 1 || f.events.count("booking_confirmed") != 1 {
		t.Fatalf("invoices=%d calls=%v", f.invoices.createCount(), f.events.calls)
	}

	late := webhookBody("payment.failed", co.OrderID, "pay_attempt1")
	if err := f.pay.HandleWebhook(ctx, late, payment.Sign(late, testGatewaySecret)); err != nil {
		t.Fatalf("late failure webhook: %v", err)
	}
	if got := f.payments.status(co.PaymentID); got != domain.PaymentStatusSuccess {
		t.Fatalf("late failure overwrote success: %q", got)
	}
}

func TestVerifyConfirmsOnce(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	co, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	req := VerifyRequest{OrderID: co.OrderID, PaymentID: "pay_ok", Signature: checkoutSignature(co.OrderID, "pay_ok")}
	if _, _, err := f.pay.Verify(ctx, 9, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("verify by other user err = %v, want ErrForbidden", err)
	}
	b, p, err := f.pay.Verify(ctx, 7, req)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if b.Status != domain.BookingStatusConfirmed || p.Status != domain.PaymentStatusSuccess {
		t.Fatalf("booking=%q payment=%q", b.Status, p.Status)
	}
	if _, _, err := f.pay.Verify(ctx, 7, req); err != nil {
		t.Fatalf("repeat Verify: %v", err)
	}
	if n := f.invoices.createCount(); n != 1 {
		t.Fatalf("invoices created = %d, want 1", n)
	}
	for _, name := range []string{"booking_confirmed", "referral_credit", "invoice_issued"} {
		if f.events.count(name) != 1 {
			t.Errorf("%s called %d times, want 1", name, f.events.count(name))
		}
	}
}

func webhookBody(event, orderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":"captured","error_description":"card declined"}}}}`, event, paymentID, orderID))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newPaymentFixture(t)
	body := webhookBody("payment.captured", "order_x", "pay_x")
	err := f.pay.HandleWebhook(context.Background(), body, "nope")
	if !errors.Is(err, payment.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestWebhookCaptureIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	co, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	body := webhookBody("payment.captured", co.OrderID, "pay_hook")
	sig := payment.Sign(body, testGatewaySecret)
	for i := 0; i < 2; i++ {
		if err := f.pay.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}
	b, _ := f.bookings.GetByID(f.booking.ID)
	if b.Status != domain.BookingStatusConfirmed {
		t.Fatalf("booking status = %q, want confirmed", b.Status)
	}
	if f.invoices.createCount() != 1 || f.events.count("booking_confirmed") != 1 {
		t.Fatalf("invoices=%d calls=%v", f.invoices.createCount(), f.events.calls)
	}
}

func TestWebhookFailureAndUnknownOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	co, err := f.pay.Checkout(ctx, f.booking.ID, 7)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	unknown := webhookBody("payment.captured", "order_unknown", "pay_u")
	if err := f.pay.HandleWebhook(ctx, unknown, payment.Sign(unknown, testGatewaySecret)); err != nil {
		t.Fatalf("unknown order should be acknowledged, got %v", err)
	}

	failed := webhookBody("payment.failed", co.OrderID, "pay_f")
	if err := f.pay.HandleWebhook(ctx, failed, payment.Sign(failed, testGatewaySecret)); err != nil {
		t.Fatalf("failed webhook: %v", err)
	}
	if got := f.payments.status(co.PaymentID); got != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %q, want failed", got)
	}
	b, _ := f.bookings.GetByID(f.booking.ID)
	if b.Status != domain.BookingStatusPending {
		t.Fatalf("booking status = %q, want pending", b.Status)
	}

	captured := webhookBody("payment.captured", co.OrderID, "pay_c")
	if err := f.pay.HandleWebhook(ctx, captured, payment.Sign(captured, testGatewaySecret)); err != nil {
		t.Fatalf("capture webhook: %v", err)
	}
	b, _ = f.bookings.GetByID(f.booking.ID)
	if b.Status != domain.BookingStatusConfirmed || f.payments.status(co.PaymentID) != domain.PaymentStatusSuccess {
		t.Fatalf("capture after failure: booking=%q payment=%q", b.Status, f.payments.status(co.PaymentID))
	}
}
