package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// RazorpayProvider creates orders through the Razorpay Orders API and verifies
// checkout and webhook signatures.
type RazorpayProvider struct {
	BaseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	client        *http.Client
}

func NewRazorpayProvider(baseURL, keyID, keySecret, webhookSecret string) *RazorpayProvider {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &RazorpayProvider{
		BaseURL:       baseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *RazorpayProvider) Name() string  { return "razorpay" }
func (p *RazorpayProvider) KeyID() string { return p.keyID }

type razorpayOrderReq struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	Error    *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

func (p *RazorpayProvider) CreateOrder(ctx context.Context, in OrderRequest) (*Order, error) {
	currency := in.Currency
	if currency == "" {
		currency = "INR"
	}
	body, _ := json.Marshal(razorpayOrderReq{
		Amount:   in.AmountPaise,
		Currency: currency,
		Receipt:  in.Receipt,
		Notes:    in.Notes,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.keyID, p.keySecret)
	log.Printf("[Razorpay] POST %s/orders receipt=%s amount=%d", p.BaseURL, in.Receipt, in.AmountPaise)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var out razorpayOrderResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("razorpay order: %d %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("razorpay order: %s %s", out.Error.Code, out.Error.Description)
		}
		return nil, fmt.Errorf("razorpay order: %d %s", resp.StatusCode, string(respBody))
	}
	if out.ID == "" {
		return nil, fmt.Errorf("razorpay order: empty order id")
	}
	return &Order{ID: out.ID, AmountPaise: out.Amount, Currency: out.Currency, Receipt: out.Receipt, Status: out.Status}, nil
}

func (p *RazorpayProvider) VerifyPayment(orderID, paymentID, signature string) error {
	return VerifySignature(CheckoutMessage(orderID, paymentID), signature, p.keySecret)
}

func (p *RazorpayProvider) VerifyWebhook(body []byte, signature string) error {
	return VerifySignature(body, signature, p.webhookSecret)
}
