package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyCheckoutSignature(t *testing.T) {
	p := NewRazorpayProvider("", "rzp_test_key", "topsecret", "hooksecret")
	sig := Sign(CheckoutMessage("order_1", "pay_1"), "topsecret")
	if err := p.VerifyPayment("order_1", "pay_1", sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := p.VerifyPayment("order_1", "pay_2", sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("tampered payment id accepted: %v", err)
	}
	if err := p.VerifyPayment("order_1", "pay_1", ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("empty signature accepted: %v", err)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	p := NewRazorpayProvider("", "k", "s", "hooksecret")
	body := []byte(`{"event":"payment.captured"}`)
	if err := p.VerifyWebhook(body, Sign(body, "hooksecret")); err != nil {
		t.Fatalf("valid webhook rejected: %v", err)
	}
	if err := p.VerifyWebhook(body, Sign(body, "s")); err == nil {
		t.Fatal("webhook signed with key secret must be rejected")
	}
}

func TestRazorpayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"auth"}}`))
			return
		}
		if r.URL.Path != "/orders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"order_abc","amount":2590000,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	}))
	defer srv.Close()

	p := NewRazorpayProvider(srv.URL, "key", "secret", "")
	o, err := p.CreateOrder(context.Background(), OrderRequest{AmountPaise: 2590000, Currency: "INR", Receipt: "rcpt_1"})
	if err != nil {
		t.Fatal(err)
	}
	if o.ID != "order_abc" || o.AmountPaise != 2590000 {
		t.Fatalf("unexpected order %+v", o)
	}

	bad := NewRazorpayProvider(srv.URL, "key", "wrong", "")
	if _, err := bad.CreateOrder(context.Background(), OrderRequest{AmountPaise: 1}); err == nil {
		t.Fatal("expected error for rejected credentials")
	}
}

func TestStubProviderRoundTrip(t *testing.T) {
	s := &StubProvider{}
	o, err := s.CreateOrder(context.Background(), OrderRequest{AmountPaise: 100, Currency: "INR"})
	if err != nil {
		t.Fatal(err)
	}
	sig := Sign(CheckoutMessage(o.ID, "pay_x"), "stub_secret")
	if err := s.VerifyPayment(o.ID, "pay_x", sig); err != nil {
		t.Fatalf("stub signature rejected: %v", err)
	}
}
