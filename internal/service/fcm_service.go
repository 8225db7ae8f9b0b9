package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ErrStaleDeviceToken means FCM no longer knows the device; the stored token should be dropped.
var ErrStaleDeviceToken = errors.New("device token is no longer registered")

// DevicePusher delivers a stored notification to a user's phone.
type DevicePusher interface {
	Push(ctx context.Context, deviceToken string, n *models.Notification, data map[string]interface{}) error
}

// FCMService pushes inbox notifications through Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService returns nil when no service account is configured or Firebase fails to start.
func NewFCMService(serviceAccountPath string) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Printf("[fcm] init app: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("[fcm] messaging client: %v", err)
		return nil
	}
	return &FCMService{client: client}
}

func (s *FCMService) Push(ctx context.Context, deviceToken string, n *models.Notification, data map[string]interface{}) error {
	if s == nil || deviceToken == "" || n == nil {
		return nil
	}
	_, err := s.client.Send(ctx, pushMessage(deviceToken, n, data))
	if messaging.IsUnregistered(err) {
		return ErrStaleDeviceToken
	}
	return err
}

// pushChannel maps a notification type to the Android channel the app registers.
func pushChannel(notifType string) string {
	switch notifType {
	case domain.NotifBookingCreated, domain.NotifBookingConfirmed, domain.NotifBookingStatus:
		return "bookings"
	case domain.NotifPaymentFailed, domain.NotifInvoiceReady, domain.NotifReferralCredited:
		return "payments"
	case domain.NotifVisitRequested, domain.NotifVisitStatus:
		return "visits"
	default:
		return "account"
	}
}

// pushData flattens the deep-link payload. FCM data values must be strings.
func pushData(n *models.Notification, data map[string]interface{}) map[string]string {
	out := map[string]string{
		"type":            n.Type,
		"notification_id": strconv.FormatUint(uint64(n.ID), 10),
	}
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case uint:
			out[k] = strconv.FormatUint(uint64(val), 10)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

func pushMessage(deviceToken string, n *models.Notification, data map[string]interface{}) *messaging.Message {
	ttl := 24 * time.Hour
	return &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: pushData(n, data),
		Android: &messaging.AndroidConfig{
			Priority:    "high",
			TTL:         &ttl,
			CollapseKey: n.Type,
			Notification: &messaging.AndroidNotification{
				ChannelID: pushChannel(n.Type),
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default", ThreadID: pushChannel(n.Type)},
			},
		},
	}
}
