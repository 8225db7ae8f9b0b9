package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is an in-process gateway for development. Orders are accepted
// immediately and signatures use Secret the same way the real gateway does.
type StubProvider struct {
	Secret string
}

func (s *StubProvider) Name() string  { return "stub" }
func (s *StubProvider) KeyID() string { return "stub_key" }

func (s *StubProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	return &Order{
		ID:          fmt.Sprintf("order_stub_%d", time.Now().UnixNano()),
		AmountPaise: req.AmountPaise,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

func (s *StubProvider) VerifyPayment(orderID, paymentID, signature string) error {
	return VerifySignature(CheckoutMessage(orderID, paymentID), signature, s.secret())
}

func (s *StubProvider) VerifyWebhook(body []byte, signature string) error {
	return VerifySignature(body, signature, s.secret())
}

func (s *StubProvider) secret() string {
	if s.Secret == "" {
		return "stub_secret"
	}
	return s.Secret
}
