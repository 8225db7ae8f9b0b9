package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher emits domain events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
	InvoiceIssued    = "invoice.issued"
	VisitRequested   = "visit.requested"
	ReferralCredited = "referral.credited"
)

type BookingEvent struct {
	BookingID   uint      `json:"booking_id"`
	UserID      uint      `json:"user_id"`
	ListingID   uint      `json:"listing_id"`
	RoomID      uint      `json:"room_configuration_id"`
	Status      string    `json:"status"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	AmountPaise int64     `json:"amount_paise"`
	At          time.Time `json:"at"`
}

type PaymentEvent struct {
	PaymentID         uint      `json:"payment_id"`
	BookingID         uint      `json:"booking_id"`
	ProviderOrderID   string    `json:"provider_order_id"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	AmountPaise       int64     `json:"amount_paise"`
	Reason            string    `json:"reason,omitempty"`
	At                time.Time `json:"at"`
}

type InvoiceEvent struct {
	InvoiceID     uint      `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	BookingID     uint      `json:"booking_id"`
	TotalPaise    int64     `json:"total_paise"`
	At            time.Time `json:"at"`
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("pgnest"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// Noop drops events. Used when NATS is not configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, subject string, data interface{}) error { return nil }
func (Noop) Close() error                                                        { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Subject string
	Data    interface{}
}

func (r *Recorder) Publish(ctx context.Context, subject string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Subject: subject, Data: data})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Subjects returns the recorded subjects in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Subject)
	}
	return out
}

// New connects to url, falling back to Noop when url is empty or unreachable.
func New(url string) Publisher {
	if url == "" {
		return Noop{}
	}
	p, err := NewNATSPublisher(url)
	if err != nil {
		log.Printf("[events] %v, events disabled", err)
		return Noop{}
	}
	log.Printf("[events] connected to %s", url)
	return p
}
