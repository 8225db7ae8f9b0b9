package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrInvalidSignature = errors.New("payment signature mismatch")

type OrderRequest struct {
	AmountPaise int64
	Currency    string
	Receipt     string // our unique reference, echoed back by the gateway
	Notes       map[string]string
}

type Order struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
	Status      string
}

// Provider is a payment gateway that collects a checkout against a server-created order.
type Provider interface {
	Name() string
	// KeyID is the public key handed to the checkout widget.
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// VerifyPayment checks the signature returned by the checkout for orderID/paymentID.
	VerifyPayment(orderID, paymentID, signature string) error
	// VerifyWebhook checks the signature header of a raw webhook body.
	VerifyWebhook(body []byte, signature string) error
}

// Sign returns hex(HMAC_SHA256(message, secret)).
func Sign(message []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature with Sign(message, secret) in constant time.
func VerifySignature(message []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	expected := Sign(message, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// CheckoutMessage is the string a checkout signature is computed over.
func CheckoutMessage(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}
